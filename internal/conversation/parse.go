package conversation

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"convolens/internal/services"
)

var speakerLinePattern = regexp.MustCompile(`^[ \t]*([\w .\-]+?)[ \t]*:[ \t]*(.*)$`)

var speakerColumns = []string{"speaker", "user", "author", "speaker_id", "from", "name"}

var textColumns = []string{"text", "message", "content", "utterance", "line", "transcript", "msg"}

var jsonSpeakerKeys = []string{"speaker", "user", "author", "name", "user_id"}

var jsonTextKeys = []string{"text", "message", "line", "content", "utterance", "msg"}

// ParseFile reads and parses the transcript at path. A missing or
// unreadable file is a fatal error; malformed content is a validation
// error.
func ParseFile(path, format, lang string) (*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFatal, "conversation", "parse", "read transcript", err)
	}
	return Parse(data, format, lang)
}

// Parse decodes transcript bytes in the given format.
func Parse(data []byte, format, lang string) (*Conversation, error) {
	var (
		messages []Message
		err      error
	)
	switch format {
	case FormatJSON:
		messages, err = parseJSON(data)
	case FormatText:
		messages, err = parseText(data)
	case FormatCSV:
		messages, err = parseCSV(data)
	default:
		return nil, services.Wrap(services.ErrValidation, "conversation", "parse",
			fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, services.Wrap(services.ErrValidation, "conversation", "parse",
			"transcript contains no messages", nil)
	}
	return &Conversation{Messages: messages, Format: format, Language: lang}, nil
}

func parseJSON(data []byte) ([]Message, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, services.Wrap(services.ErrValidation, "conversation", "parse",
			"invalid JSON transcript", err)
	}

	items, ok := messageItems(root)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "conversation", "parse",
			"JSON transcript is not a message list", nil)
	}

	messages := make([]Message, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := firstStringValue(obj, jsonTextKeys)
		if text == "" {
			continue
		}
		speaker := firstStringValue(obj, jsonSpeakerKeys)
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		messages = append(messages, Message{Speaker: speaker, Text: text})
	}
	return messages, nil
}

// messageItems unwraps the message list from the supported JSON shapes:
// a bare array, {"transcript": [...]}, or {"log": {"messages": [...]}}.
func messageItems(root any) ([]any, bool) {
	if items, ok := root.([]any); ok {
		return items, true
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, false
	}
	if items, ok := obj["transcript"].([]any); ok {
		return items, true
	}
	if log, ok := obj["log"].(map[string]any); ok {
		if items, ok := log["messages"].([]any); ok {
			return items, true
		}
	}
	return nil, false
}

func firstStringValue(obj map[string]any, keys []string) string {
	for _, key := range keys {
		value, ok := obj[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return strings.TrimSpace(fmt.Sprintf("%v", v))
		}
	}
	return ""
}

func parseText(data []byte) ([]Message, error) {
	var messages []Message
	lastSpeaker := UnknownSpeaker

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if match := speakerLinePattern.FindStringSubmatch(line); match != nil {
			speaker := strings.TrimSpace(match[1])
			text := strings.TrimSpace(match[2])
			if plausibleSpeaker(speaker) && text != "" {
				lastSpeaker = speaker
				messages = append(messages, Message{Speaker: speaker, Text: text})
				continue
			}
		}
		// Untagged line: continuation of the previous speaker's turn.
		messages = append(messages, Message{Speaker: lastSpeaker, Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "conversation", "parse",
			"scan text transcript", err)
	}
	return messages, nil
}

func parseCSV(data []byte) ([]Message, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "conversation", "parse",
			"invalid CSV transcript", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	speakerCol, textCol := headerColumns(rows[0])
	if textCol >= 0 {
		return csvWithHeader(rows[1:], speakerCol, textCol), nil
	}
	return csvPositional(rows), nil
}

// headerColumns scans a candidate header row for known speaker and text
// column names. textCol == -1 means no usable header was found.
func headerColumns(header []string) (speakerCol, textCol int) {
	speakerCol, textCol = -1, -1
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if speakerCol < 0 {
			for _, candidate := range speakerColumns {
				if name == candidate {
					speakerCol = i
					break
				}
			}
		}
		if textCol < 0 {
			for _, candidate := range textColumns {
				if name == candidate {
					textCol = i
					break
				}
			}
		}
	}
	return speakerCol, textCol
}

func csvWithHeader(rows [][]string, speakerCol, textCol int) []Message {
	var messages []Message
	for _, row := range rows {
		if textCol >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[textCol])
		if text == "" {
			continue
		}
		speaker := UnknownSpeaker
		if speakerCol >= 0 && speakerCol < len(row) {
			if s := strings.TrimSpace(row[speakerCol]); s != "" {
				speaker = s
			}
		}
		messages = append(messages, Message{Speaker: speaker, Text: text})
	}
	return messages
}

// csvPositional handles headerless files: the last column is the text
// and the first column is the speaker when it looks like a name.
func csvPositional(rows [][]string) []Message {
	var messages []Message
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		text := strings.TrimSpace(row[len(row)-1])
		if text == "" {
			continue
		}
		speaker := UnknownSpeaker
		if len(row) > 1 {
			if s := strings.TrimSpace(row[0]); plausibleSpeaker(s) {
				speaker = s
			}
		}
		messages = append(messages, Message{Speaker: speaker, Text: text})
	}
	return messages
}

// plausibleSpeaker filters out cells that are clearly not speaker names.
func plausibleSpeaker(s string) bool {
	if s == "" || len(s) >= 50 {
		return false
	}
	if strings.Contains(s, ":") {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}
