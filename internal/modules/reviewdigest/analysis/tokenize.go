package analysis

import (
	"regexp"
	"strings"
)

const minTokenLen = 3

var letterRun = regexp.MustCompile(`[a-z]+`)

var stopWords = toSet(
	"the", "and", "but", "for", "nor", "yet", "with", "was", "were", "are", "this", "that",
	"these", "those", "there", "their", "they", "them", "then", "than", "have", "has", "had",
	"been", "being", "from", "into", "onto", "over", "under", "about", "also", "just", "very",
	"really", "quite", "much", "many", "some", "any", "all", "our", "out", "you", "your", "not",
	"its", "can", "could", "would", "should", "will", "shall", "may", "might", "must", "did",
	"does", "doing", "done", "get", "got", "what", "which", "who", "whom", "when", "where", "why",
	"how", "each", "more", "most", "other", "such", "only", "own", "same", "too", "both", "few",
	"she", "him", "her", "his", "one", "lot", "lots", "thing", "things", "even", "like", "because",
	"though", "although", "while", "well", "still", "able", "make", "made", "way", "bit", "since",
)

// Tokenize lower-cases text and returns maximal ASCII letter runs of at least
// three characters, excluding stop words. Order is preserved.
func Tokenize(text string) []string {
	raw := letterRun.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < minTokenLen {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
