package reviewdigest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/analysis"
)

const (
	lowSignalMinLen   = 5
	lowSignalMaxRatio = 0.5
)

// Single words a generator tends to emit that say nothing about a module.
var lowSignalWords = map[string]struct{}{
	"before": {}, "after": {}, "final": {}, "first": {}, "last": {}, "line": {}, "really": {},
	"course": {}, "module": {}, "class": {}, "thing": {}, "things": {}, "stuff": {}, "good": {},
	"great": {}, "very": {}, "much": {}, "also": {}, "overall": {}, "lecture": {}, "lectures": {},
	"week": {}, "weeks": {}, "weekly": {}, "time": {}, "work": {}, "about": {}, "would": {},
	"could": {}, "should": {}, "there": {}, "their": {}, "other": {}, "which": {}, "these": {},
	"those": {}, "being": {}, "still": {}, "every": {}, "never": {}, "always": {}, "maybe": {},
	"quite": {}, "pretty": {}, "though": {}, "through": {}, "while": {}, "where": {}, "nice": {},
	"okay": {}, "fine": {}, "student": {}, "students": {}, "unit": {}, "subject": {}, "semester": {},
}

// IsLowSignal reports whether a keyword is a single word with no letters, a
// stop-listed word, or shorter than five characters.
func IsLowSignal(phrase string) bool {
	p := reviews.NormalizePhrase(phrase)
	if strings.ContainsAny(p, " \t") {
		return false
	}
	if !strings.ContainsFunc(p, unicode.IsLetter) {
		return true
	}
	if _, ok := lowSignalWords[p]; ok {
		return true
	}
	return utf8.RuneCountInString(p) < lowSignalMinLen
}

// GateKeywords keeps generated keywords unless they are empty or at least
// half low-signal, in which case the deterministic ranking from res is used.
func GateKeywords(generated []reviews.Keyword, res analysis.Result) ([]reviews.Keyword, bool) {
	kws := reviews.CanonicalKeywords(generated)
	if len(kws) == 0 {
		return DeterministicKeywords(res), true
	}
	low := 0
	for _, kw := range kws {
		if IsLowSignal(kw.Phrase) {
			low++
		}
	}
	if float64(low)/float64(len(kws)) >= lowSignalMaxRatio {
		return DeterministicKeywords(res), true
	}
	return kws, false
}

// DeterministicKeywords is the substitute ranking for rejected generator
// keywords: semantic rule labels when any matched, otherwise the analyzer's
// ranking minus low-signal single words (or verbatim if that empties it).
func DeterministicKeywords(res analysis.Result) []reviews.Keyword {
	if len(res.RuleKeywords) > 0 {
		return reviews.CanonicalKeywords(res.RuleKeywords)
	}
	filtered := make([]reviews.Keyword, 0, len(res.TopKeywords))
	for _, kw := range res.TopKeywords {
		if !IsLowSignal(kw.Phrase) {
			filtered = append(filtered, kw)
		}
	}
	if len(filtered) > 0 {
		return reviews.CanonicalKeywords(filtered)
	}
	return reviews.CanonicalKeywords(res.TopKeywords)
}
