package conversation

import (
	"path/filepath"
	"strings"
)

// Message is one speaker turn in a transcript. Speaker is never empty
// after parsing; untagged turns fall back to UnknownSpeaker.
type Message struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// UnknownSpeaker labels turns whose speaker could not be determined.
const UnknownSpeaker = "unknown"

// Conversation is a parsed transcript ready for analysis.
type Conversation struct {
	Messages []Message
	Format   string
	Language string
}

// Speakers returns the distinct speaker names in first-seen order.
func (c *Conversation) Speakers() []string {
	seen := make(map[string]struct{}, 4)
	names := make([]string, 0, 4)
	for _, msg := range c.Messages {
		if _, ok := seen[msg.Speaker]; ok {
			continue
		}
		seen[msg.Speaker] = struct{}{}
		names = append(names, msg.Speaker)
	}
	return names
}

// Transcript formats accepted for upload.
const (
	FormatJSON = "json"
	FormatText = "txt"
	FormatCSV  = "csv"
)

var allowedFormats = map[string]struct{}{
	FormatJSON: {},
	FormatText: {},
	FormatCSV:  {},
}

// DetectFormat maps a file name to its transcript format by extension.
func DetectFormat(fileName string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	_, ok := allowedFormats[ext]
	return ext, ok
}

// AllowedFormats lists the accepted upload extensions for error messages.
func AllowedFormats() []string {
	return []string{FormatJSON, FormatText, FormatCSV}
}
