package analysis

import (
	"fmt"
	"strings"
)

// FallbackSummary writes a short deterministic narrative for an analysis
// result. It returns "" when there are no reviews.
func FallbackSummary(res Result) string {
	if res.ReviewCount == 0 {
		return ""
	}
	noun := "reviews"
	if res.ReviewCount == 1 {
		noun = "review"
	}
	a := res.Averages
	sentences := []string{
		fmt.Sprintf("Based on %d student %s, this module averages %.2f out of 5 overall.", res.ReviewCount, noun, a.Overall),
		fmt.Sprintf("Teaching scores %.2f, workload %.2f, difficulty %.2f and assessment %.2f.", a.Teaching, a.Workload, a.Difficulty, a.Assessment),
	}

	topics := make([]string, 0, 3)
	for _, kw := range res.TopKeywords {
		if len(topics) == 3 {
			break
		}
		topics = append(topics, kw.Phrase)
	}
	if len(topics) > 0 {
		sentences = append(sentences, fmt.Sprintf("Students most often mention %s.", joinList(topics)))
	}

	s := res.Sentiment
	sentences = append(sentences, fmt.Sprintf("Overall sentiment is %s (%d positive, %d neutral, %d negative).",
		dominantSentiment(s.Positive, s.Neutral, s.Negative), s.Positive, s.Neutral, s.Negative))
	return strings.Join(sentences, " ")
}

func dominantSentiment(pos, neu, neg int) string {
	switch {
	case pos > neu && pos > neg:
		return "mostly positive"
	case neg > pos && neg > neu:
		return "mostly negative"
	case neu > pos && neu > neg:
		return "mostly neutral"
	default:
		return "mixed"
	}
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
