package analysis

import "regexp"

func compileAll(exprs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(expr)
	}
	return out
}

// Logical fallacy indicators, matched against lowercased message text.
var fallacyPatterns = map[string][]*regexp.Regexp{
	"ad_hominem": compileAll([]string{
		`\b(you are|you're)\s+(stupid|dumb|an? idiot|a moron)\b`,
		`\bthat's\s+because\s+you\b`,
		`\bwhat\s+do\s+you\s+know\b`,
		`\byou\s+always\b`,
		`\byou\s+never\b`,
	}),
	"straw_man": compileAll([]string{
		`\bso\s+you're\s+saying\b`,
		`\bwhat\s+you're\s+really\s+saying\b`,
		`\byou\s+think\s+that\b.*\bis\s+okay\b`,
	}),
	"false_dichotomy": compileAll([]string{
		`\beither\s+.+\s+or\s+`,
		`\byou're\s+either\s+.+\s+or\s+`,
		`\bno\s+middle\s+ground\b`,
		`\bonly\s+two\s+(choices|options|types)\b`,
	}),
	"appeal_to_emotion": compileAll([]string{
		`\bthink\s+of\s+the\s+children\b`,
		`\bhow\s+can\s+you\s+.*\s+when\b`,
		`\bimagine\s+if\s+.*\s+happened\s+to\s+you\b`,
	}),
	"bandwagon": compileAll([]string{
		`\beveryone\s+(knows|agrees|thinks)\b`,
		`\bmost\s+people\s+(believe|think|agree)\b`,
		`\ball\s+the\s+experts\s+say\b`,
	}),
}

// Persuasion tactic indicators used by the persuasion and influence
// stages.
var persuasionPatterns = map[string][]*regexp.Regexp{
	"emotional_appeal": compileAll([]string{
		`\b(feel|feeling|felt)\b`,
		`\bheart\b`,
		`\b(love|hate)\b`,
		`\b(fear|afraid|scared)\b`,
		`\b(angry|mad|furious)\b`,
	}),
	"authority": compileAll([]string{
		`\b(expert|specialist|professional)\b`,
		`\bstudies?\s+show\b`,
		`\bresearch\s+(shows|indicates|proves)\b`,
		`\baccording\s+to\b`,
	}),
	"logic": compileAll([]string{
		`\btherefore\b`,
		`\bbecause\b`,
		`\bsince\b`,
		`\bthus\b`,
		`\bconsequently\b`,
		`\bas\s+a\s+result\b`,
	}),
	"social_proof": compileAll([]string{
		`\bpeople\s+(are|do|think|believe)\b`,
		`\btrend\b`,
		`\bpopular\b`,
		`\bmajority\b`,
	}),
}

// Manipulation tactic indicators.
var manipulationPatterns = map[string][]*regexp.Regexp{
	"gaslighting": compileAll([]string{
		`\byou're\s+(overreacting|being\s+dramatic)\b`,
		`\bthat\s+never\s+happened\b`,
		`\byou're\s+(imagining|misremembering)\b`,
		`\bit's\s+all\s+in\s+your\s+head\b`,
		`\bi\s+never\s+said\s+that\b`,
	}),
	"guilt_tripping": compileAll([]string{
		`\bafter\s+all\s+i've\s+done\b`,
		`\bi\s+thought\s+you\s+cared\b`,
		`\bif\s+you\s+(cared|loved\s+me)\b`,
		`\byou\s+owe\s+me\b`,
		`\byou\s+never\s+.*\s+anymore\b`,
	}),
	"intimidation": compileAll([]string{
		`\byou'll\s+regret\b`,
		`\bor\s+else\b`,
		`\byou\s+don't\s+want\s+to\s+.*\s+me\b`,
	}),
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
