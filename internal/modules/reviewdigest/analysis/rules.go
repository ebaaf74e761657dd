package analysis

import (
	"math"
	"regexp"
	"sort"

	"github.com/yungbote/review-digest/internal/domain/reviews"
)

// ruleWeight scales a rule's per-review count into a keyword weight. Rule
// labels outrank raw n-grams of the same frequency.
const ruleWeight = 3.6

type Rule struct {
	Label    string
	Patterns []*regexp.Regexp
}

type RuleMatch struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func newRule(label string, patterns ...string) Rule {
	r := Rule{Label: label, Patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, regexp.MustCompile(`(?i)`+p))
	}
	return r
}

var semanticRules = []Rule{
	newRule("teaching clarity",
		`\bclear(ly)?\b`, `\bexplain(s|ed|ing|ations?)?\b`, `\bwell[- ]explained\b`, `\bunclear\b`, `\bconfus(ing|ed)\b`),
	newRule("assessment fairness",
		`\bexams?\b`, `\bassessments?\b`, `\bmarking\b`, `\bgrad(e|es|ed|ing)\b`, `\b(un)?fair(ly|ness)?\b`, `\bquiz(zes)?\b`),
	newRule("module difficulty",
		`\bchalleng(e|es|ed|ing)\b`, `\bdifficult(y|ies)?\b`, `\bhard\b`, `\btough\b`, `\bdemanding\b`, `\bintense\b`),
	newRule("workload balance",
		`\bwork ?load\b`, `\btime[- ]consuming\b`, `\bmanageable\b`, `\bhours? (a|per) week\b`, `\btoo much work\b`),
	newRule("tutorial support",
		`\btutorials?\b`, `\btutors?\b`, `\blabs?\b`, `\bworkshops?\b`, `\bseminars?\b`),
	newRule("course materials",
		`\bslides?\b`, `\blecture notes\b`, `\breadings?\b`, `\bmaterials?\b`, `\btextbooks?\b`, `\brecordings?\b`),
	newRule("feedback quality",
		`\bfeedback\b`, `\bcomments on (my|our) work\b`),
	newRule("practical relevance",
		`\bpractical\b`, `\breal[- ]world\b`, `\bindustry\b`, `\bapplied\b`, `\bhands[- ]on\b`),
	newRule("engaging content",
		`\bengag(ing|ed)\b`, `\binteresting\b`, `\bfun\b`, `\benjoy(ed|able)?\b`, `\bboring\b`),
	newRule("lecture pacing",
		`\bpac(e|ed|ing)\b`, `\brushed\b`, `\btoo (fast|slow|quick)\b`),
	newRule("group work",
		`\bgroup (work|projects?|assignments?)\b`, `\bteam ?work\b`, `\bteammates?\b`),
	newRule("lecturer support",
		`\blecturers?\b.*\b(helpful|supportive|approachable|responsive)\b`, `\boffice hours\b`, `\bsupportive\b`, `\bapproachable\b`),
}

// Rules returns the fixed rule table.
func Rules() []Rule {
	out := make([]Rule, len(semanticRules))
	copy(out, semanticRules)
	return out
}

func (r Rule) Matches(comment string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(comment) {
			return true
		}
	}
	return false
}

// MatchRules counts, for each rule, how many comments match at least one of
// its patterns. Results are ordered by count desc then label asc, at most
// reviews.MaxKeywords entries.
func MatchRules(comments []string) []RuleMatch {
	out := make([]RuleMatch, 0, len(semanticRules))
	for _, rule := range semanticRules {
		count := 0
		for _, c := range comments {
			if rule.Matches(c) {
				count++
			}
		}
		if count > 0 {
			out = append(out, RuleMatch{Label: rule.Label, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > reviews.MaxKeywords {
		out = out[:reviews.MaxKeywords]
	}
	return out
}

// RuleKeywords converts rule matches into weighted keywords.
func RuleKeywords(matches []RuleMatch) []reviews.Keyword {
	out := make([]reviews.Keyword, 0, len(matches))
	for _, m := range matches {
		out = append(out, reviews.Keyword{Phrase: m.Label, Weight: weightOf(float64(m.Count) * ruleWeight)})
	}
	return reviews.CanonicalKeywords(out)
}

func weightOf(score float64) int {
	w := int(math.Round(score))
	if w < 1 {
		return 1
	}
	return w
}
