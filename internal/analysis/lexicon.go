package analysis

import "strings"

// Sentiment word lists for the emotion stage. Coverage is intentionally
// small: the stage estimates tone direction, not fine-grained affect.
var positiveWords = wordSet(
	"good", "great", "wonderful", "amazing", "fantastic", "excellent",
	"happy", "joy", "delight", "pleasure", "love", "hope", "glad",
	"thanks", "thank", "appreciate", "agree", "right", "perfect",
	"brilliant", "beautiful", "kind", "support", "win", "success",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "horrible", "worst", "hate", "angry",
	"mad", "furious", "sad", "sorrow", "pain", "fear", "afraid",
	"scared", "wrong", "stupid", "dumb", "idiot", "fail", "failure",
	"regret", "never", "liar", "unfair", "crisis", "threat", "loser",
)

// Rhetorical appeal lexicons, matched as whole words or phrases against
// lowercased text.
var ethosLexicon = []string{
	"expert", "expertise", "authority", "credentials", "experience",
	"experienced", "proven", "track record", "reliable", "trustworthy",
	"honest", "integrity", "sincere", "research shows",
	"studies indicate", "according to experts", "professor",
	"we believe", "our commitment", "our values", "ethically",
	"responsible",
}

var pathosLexicon = []string{
	"imagine", "feel", "feeling", "heart", "soul", "passion",
	"passionate", "hope", "dream", "desire", "joy", "happy",
	"wonderful", "amazing", "fantastic", "sad", "sorrow", "pain",
	"suffering", "heartbreaking", "tragic", "fear", "afraid", "danger",
	"risk", "threat", "anxiety", "worry", "anger", "outrage",
	"injustice", "unfair", "love", "compassion", "empathy", "urgent",
	"critical", "crisis", "story", "struggle", "our children",
	"our future", "community", "family", "common good",
}

var logosLexicon = []string{
	"logic", "logical", "reason", "rational", "evidence", "proof",
	"data", "statistics", "facts", "figures", "numbers", "analysis",
	"study", "research", "findings", "because", "therefore",
	"consequently", "as a result", "thus", "hence", "since",
	"given that", "it follows that", "clearly", "evidently",
	"demonstrates", "indicates", "confirms", "hypothesis", "theory",
	"premise", "conclusion", "systematic",
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// polarity estimates sentiment direction in [-1, 1] from word hits.
func polarity(text string) float64 {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if _, ok := positiveWords[word]; ok {
			pos++
		}
		if _, ok := negativeWords[word]; ok {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// lexiconHits returns the count and unique matched terms of lexicon
// entries found in the lowercased text. Multi-word entries match as
// substrings; single words match on word boundaries.
func lexiconHits(lexicon []string, lowered string) (int, []string) {
	var count int
	var matched []string
	fields := wordSet(splitWords(lowered)...)
	for _, term := range lexicon {
		if strings.Contains(term, " ") {
			if strings.Contains(lowered, term) {
				count++
				matched = append(matched, term)
			}
			continue
		}
		if _, ok := fields[term]; ok {
			count++
			matched = append(matched, term)
		}
	}
	return count, matched
}

func splitWords(lowered string) []string {
	fields := strings.Fields(lowered)
	for i, f := range fields {
		fields[i] = strings.Trim(f, ".,!?;:'\"()")
	}
	return fields
}
