package analysis

import (
	"context"
	"encoding/json"
	"math"

	"convolens/internal/conversation"
)

// EmotionStage estimates each speaker's emotional tone from sentiment
// word hits. Scores per speaker sum to 1 across positive, negative, and
// neutral.
type EmotionStage struct{}

// EmotionPayload is the JSON shape the stage emits.
type EmotionPayload struct {
	Engine   string                   `json:"emotion_analysis_engine"`
	Speakers map[string]EmotionScores `json:"speakers"`
}

// EmotionScores holds a speaker's averaged tone distribution.
type EmotionScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

func (EmotionStage) Name() string { return "emotion" }

func (EmotionStage) Run(ctx context.Context, conv *conversation.Conversation) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sums := make(map[string]*EmotionScores)
	counts := make(map[string]int)
	for _, msg := range conv.Messages {
		p := polarity(msg.Text)
		score, ok := sums[msg.Speaker]
		if !ok {
			score = &EmotionScores{}
			sums[msg.Speaker] = score
		}
		score.Positive += math.Max(0, p)
		score.Negative += math.Max(0, -p)
		score.Neutral += 1 - math.Abs(p)
		counts[msg.Speaker]++
	}

	payload := EmotionPayload{
		Engine:   "lexicon_v1",
		Speakers: make(map[string]EmotionScores, len(sums)),
	}
	for speaker, score := range sums {
		n := float64(counts[speaker])
		payload.Speakers[speaker] = EmotionScores{
			Positive: score.Positive / n,
			Negative: score.Negative / n,
			Neutral:  score.Neutral / n,
		}
	}

	return json.Marshal(payload)
}
