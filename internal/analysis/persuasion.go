package analysis

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"convolens/internal/conversation"
)

// PersuasionStage scores rhetorical appeals (ethos, pathos, logos) per
// speaker and tallies persuasion tactic usage across the conversation.
type PersuasionStage struct{}

// PersuasionPayload is the JSON shape the stage emits.
type PersuasionPayload struct {
	Engine          string                  `json:"persuasion_analysis_engine"`
	Speakers        map[string]AppealScores `json:"speakers"`
	TacticFrequency map[string]int          `json:"tactic_frequency"`
	SpeakerTactics  map[string][]string     `json:"speaker_tactics"`
}

// AppealScores counts rhetorical appeal hits for one speaker.
type AppealScores struct {
	Ethos         int      `json:"ethos_score"`
	Pathos        int      `json:"pathos_score"`
	Logos         int      `json:"logos_score"`
	EthosMatches  []string `json:"ethos_matches,omitempty"`
	PathosMatches []string `json:"pathos_matches,omitempty"`
	LogosMatches  []string `json:"logos_matches,omitempty"`
}

func (PersuasionStage) Name() string { return "persuasion" }

func (PersuasionStage) Run(ctx context.Context, conv *conversation.Conversation) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	speakers := make(map[string]*AppealScores)
	tacticFrequency := make(map[string]int)
	speakerTactics := make(map[string]map[string]struct{})

	for _, msg := range conv.Messages {
		lowered := strings.ToLower(msg.Text)

		score, ok := speakers[msg.Speaker]
		if !ok {
			score = &AppealScores{}
			speakers[msg.Speaker] = score
		}
		ethos, ethosTerms := lexiconHits(ethosLexicon, lowered)
		pathos, pathosTerms := lexiconHits(pathosLexicon, lowered)
		logos, logosTerms := lexiconHits(logosLexicon, lowered)
		score.Ethos += ethos
		score.Pathos += pathos
		score.Logos += logos
		score.EthosMatches = mergeTerms(score.EthosMatches, ethosTerms)
		score.PathosMatches = mergeTerms(score.PathosMatches, pathosTerms)
		score.LogosMatches = mergeTerms(score.LogosMatches, logosTerms)

		for tactic, patterns := range persuasionPatterns {
			if !matchesAny(patterns, lowered) {
				continue
			}
			tacticFrequency[tactic]++
			set, ok := speakerTactics[msg.Speaker]
			if !ok {
				set = make(map[string]struct{})
				speakerTactics[msg.Speaker] = set
			}
			set[tactic] = struct{}{}
		}
	}

	payload := PersuasionPayload{
		Engine:          "heuristic_lexicon_v1",
		Speakers:        make(map[string]AppealScores, len(speakers)),
		TacticFrequency: tacticFrequency,
		SpeakerTactics:  make(map[string][]string, len(speakerTactics)),
	}
	for speaker, score := range speakers {
		payload.Speakers[speaker] = *score
	}
	for speaker, set := range speakerTactics {
		tactics := make([]string, 0, len(set))
		for tactic := range set {
			tactics = append(tactics, tactic)
		}
		sort.Strings(tactics)
		payload.SpeakerTactics[speaker] = tactics
	}

	return json.Marshal(payload)
}

// mergeTerms appends new unique terms, keeping the slice sorted.
func mergeTerms(existing, added []string) []string {
	if len(added) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, term := range existing {
		seen[term] = struct{}{}
	}
	for _, term := range added {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		existing = append(existing, term)
	}
	sort.Strings(existing)
	return existing
}
