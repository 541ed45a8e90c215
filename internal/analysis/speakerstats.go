package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"convolens/internal/conversation"
)

// SpeakerStatsStage summarizes who spoke and how much.
type SpeakerStatsStage struct{}

// SpeakerStatsPayload is the JSON shape the stage emits.
type SpeakerStatsPayload struct {
	TotalMessages      int            `json:"total_messages"`
	TotalSpeakers      int            `json:"total_speakers"`
	SpeakersFound      []string       `json:"speakers_found"`
	MessagesBySpeaker  map[string]int `json:"message_count_per_speaker"`
	WordsBySpeaker     map[string]int `json:"word_count_per_speaker"`
	QuestionsBySpeaker map[string]int `json:"question_count_per_speaker"`
}

func (SpeakerStatsStage) Name() string { return "speaker_stats" }

func (SpeakerStatsStage) Run(ctx context.Context, conv *conversation.Conversation) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := SpeakerStatsPayload{
		TotalMessages:      len(conv.Messages),
		MessagesBySpeaker:  make(map[string]int),
		WordsBySpeaker:     make(map[string]int),
		QuestionsBySpeaker: make(map[string]int),
	}
	for _, msg := range conv.Messages {
		payload.MessagesBySpeaker[msg.Speaker]++
		payload.WordsBySpeaker[msg.Speaker] += len(strings.Fields(msg.Text))
		if strings.Contains(msg.Text, "?") {
			payload.QuestionsBySpeaker[msg.Speaker]++
		}
	}
	payload.SpeakersFound = conv.Speakers()
	payload.TotalSpeakers = len(payload.SpeakersFound)

	return json.Marshal(payload)
}
