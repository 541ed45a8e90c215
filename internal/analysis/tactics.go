package analysis

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"convolens/internal/conversation"
)

// TacticsStage detects logical fallacies and manipulation tactics.
type TacticsStage struct{}

// TacticsPayload is the JSON shape the stage emits.
type TacticsPayload struct {
	Fallacies    map[string]Detection `json:"fallacies"`
	Manipulation map[string]Detection `json:"manipulation"`
}

// Detection tallies one tactic type with up to three example messages.
type Detection struct {
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

const maxDetectionExamples = 3

func (TacticsStage) Name() string { return "tactics" }

func (TacticsStage) Run(ctx context.Context, conv *conversation.Conversation) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := TacticsPayload{
		Fallacies:    make(map[string]Detection),
		Manipulation: make(map[string]Detection),
	}
	for _, msg := range conv.Messages {
		lowered := strings.ToLower(msg.Text)
		detect(payload.Fallacies, fallacyPatterns, lowered, msg.Text)
		detect(payload.Manipulation, manipulationPatterns, lowered, msg.Text)
	}

	return json.Marshal(payload)
}

func detect(sink map[string]Detection, table map[string][]*regexp.Regexp, lowered, original string) {
	for tactic, patterns := range table {
		if !matchesAny(patterns, lowered) {
			continue
		}
		d := sink[tactic]
		d.Count++
		if len(d.Examples) < maxDetectionExamples {
			d.Examples = append(d.Examples, original)
		}
		sink[tactic] = d
	}
}
