package analysis

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"convolens/internal/conversation"
)

// InfluenceStage scores each speaker's conversational influence and
// builds the speaker interaction graph from turn transitions.
type InfluenceStage struct{}

// InfluencePayload is the JSON shape the stage emits.
type InfluencePayload struct {
	Scores []InfluenceScore `json:"influence_scores"`
	Nodes  []GraphNode      `json:"nodes"`
	Links  []GraphLink      `json:"links"`
}

// InfluenceScore ranks one speaker by normalized influence.
type InfluenceScore struct {
	Speaker      string   `json:"speaker"`
	Score        float64  `json:"score"`
	Tactics      []string `json:"tactics"`
	MessageCount int      `json:"message_count"`
}

// GraphNode is one speaker in the interaction graph.
type GraphNode struct {
	ID           string `json:"id"`
	MessageCount int    `json:"message_count"`
}

// GraphLink counts turn handoffs from one speaker to another.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
}

func (InfluenceStage) Name() string { return "influence_graph" }

func (InfluenceStage) Run(ctx context.Context, conv *conversation.Conversation) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type speakerAccum struct {
		score   float64
		tactics []string
		seen    map[string]struct{}
		count   int
	}
	accums := make(map[string]*speakerAccum)

	messageCounts := make(map[string]int)
	interactions := make(map[[2]string]int)
	lastSpeaker := ""

	for _, msg := range conv.Messages {
		messageCounts[msg.Speaker]++
		if lastSpeaker != "" && lastSpeaker != msg.Speaker {
			interactions[[2]string{lastSpeaker, msg.Speaker}]++
		}
		lastSpeaker = msg.Speaker

		acc, ok := accums[msg.Speaker]
		if !ok {
			acc = &speakerAccum{seen: make(map[string]struct{})}
			accums[msg.Speaker] = acc
		}
		acc.count++

		lowered := strings.ToLower(msg.Text)
		for tactic, patterns := range persuasionPatterns {
			if !matchesAny(patterns, lowered) {
				continue
			}
			acc.score += 0.1
			if _, dup := acc.seen[tactic]; !dup {
				acc.seen[tactic] = struct{}{}
				acc.tactics = append(acc.tactics, tactic)
			}
		}
		if len(strings.Fields(msg.Text)) > 20 {
			acc.score += 0.05
		}
		acc.score += math.Abs(polarity(msg.Text)) * 0.2
		if strings.Contains(msg.Text, "?") {
			acc.score += 0.1
		}
	}

	payload := InfluencePayload{}
	for speaker, acc := range accums {
		maxPossible := float64(acc.count) * 0.5
		normalized := 0.0
		if maxPossible > 0 {
			normalized = math.Min(acc.score/maxPossible, 1.0)
		}
		sort.Strings(acc.tactics)
		payload.Scores = append(payload.Scores, InfluenceScore{
			Speaker:      speaker,
			Score:        normalized,
			Tactics:      acc.tactics,
			MessageCount: acc.count,
		})
	}
	sort.Slice(payload.Scores, func(i, j int) bool {
		if payload.Scores[i].Score != payload.Scores[j].Score {
			return payload.Scores[i].Score > payload.Scores[j].Score
		}
		return payload.Scores[i].Speaker < payload.Scores[j].Speaker
	})

	for _, speaker := range conv.Speakers() {
		payload.Nodes = append(payload.Nodes, GraphNode{
			ID:           speaker,
			MessageCount: messageCounts[speaker],
		})
	}
	for pair, value := range interactions {
		payload.Links = append(payload.Links, GraphLink{
			Source: pair[0],
			Target: pair[1],
			Value:  value,
		})
	}
	sort.Slice(payload.Links, func(i, j int) bool {
		if payload.Links[i].Source != payload.Links[j].Source {
			return payload.Links[i].Source < payload.Links[j].Source
		}
		return payload.Links[i].Target < payload.Links[j].Target
	})

	return json.Marshal(payload)
}
