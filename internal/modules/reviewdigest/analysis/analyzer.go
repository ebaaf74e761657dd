package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/yungbote/review-digest/internal/domain/reviews"
)

const (
	unigramWeight  = 2.2
	bigramWeight   = 2.8
	trigramWeight  = 3.4
	sparseWeight   = 1.4
	minPhraseCount = 2
	sparseMinLen   = 4
	maxNGram       = 3
)

type Averages struct {
	Teaching   float64 `json:"teaching"`
	Workload   float64 `json:"workload"`
	Difficulty float64 `json:"difficulty"`
	Assessment float64 `json:"assessment"`
	Overall    float64 `json:"overall"`
}

type Result struct {
	ReviewCount int               `json:"review_count"`
	Averages    Averages          `json:"averages"`
	TopKeywords []reviews.Keyword `json:"top_keywords"`
	Sentiment   reviews.Sentiment `json:"sentiment"`

	// PhraseKeywords is the n-gram ranking alone; RuleKeywords is the
	// semantic rule ranking alone. TopKeywords merges both.
	PhraseKeywords []reviews.Keyword `json:"-"`
	RuleKeywords   []reviews.Keyword `json:"-"`
}

// Analyze computes rating averages, keyword rankings and a sentiment tally
// for a batch of reviews. It is pure and safe for concurrent use.
func Analyze(batch []reviews.Review) Result {
	res := Result{
		ReviewCount:    len(batch),
		TopKeywords:    []reviews.Keyword{},
		PhraseKeywords: []reviews.Keyword{},
		RuleKeywords:   []reviews.Keyword{},
	}
	if len(batch) == 0 {
		return res
	}

	comments := make([]string, 0, len(batch))
	tokenStreams := make([][]string, 0, len(batch))
	for _, r := range batch {
		comments = append(comments, r.Comment)
		tokenStreams = append(tokenStreams, Tokenize(r.Comment))
	}

	res.Averages = averages(batch)
	res.PhraseKeywords = phraseKeywords(tokenStreams)
	res.RuleKeywords = RuleKeywords(MatchRules(comments))
	res.TopKeywords = reviews.CanonicalKeywords(append(append([]reviews.Keyword{}, res.RuleKeywords...), res.PhraseKeywords...))
	res.Sentiment = TallySentiment(comments)
	return res
}

func averages(batch []reviews.Review) Averages {
	n := float64(len(batch))
	var teaching, workload, difficulty, assessment float64
	for _, r := range batch {
		teaching += float64(r.TeachingRating)
		workload += float64(r.WorkloadRating)
		difficulty += float64(r.DifficultyRating)
		assessment += float64(r.AssessmentRating)
	}
	teaching /= n
	workload /= n
	difficulty /= n
	assessment /= n
	return Averages{
		Teaching:   round2(teaching),
		Workload:   round2(workload),
		Difficulty: round2(difficulty),
		Assessment: round2(assessment),
		Overall:    round2((teaching + workload + difficulty + assessment) / 4),
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// phraseKeywords ranks 1-3 word phrases. N-grams never span two comments.
func phraseKeywords(streams [][]string) []reviews.Keyword {
	counts := make([]map[string]int, maxNGram+1)
	for n := 1; n <= maxNGram; n++ {
		counts[n] = map[string]int{}
	}
	for _, tokens := range streams {
		for n := 1; n <= maxNGram; n++ {
			for i := 0; i+n <= len(tokens); i++ {
				counts[n][strings.Join(tokens[i:i+n], " ")]++
			}
		}
	}

	weights := [...]float64{0, unigramWeight, bigramWeight, trigramWeight}
	var out []reviews.Keyword
	for n := 1; n <= maxNGram; n++ {
		for phrase, c := range counts[n] {
			if c < minPhraseCount {
				continue
			}
			out = append(out, reviews.Keyword{Phrase: phrase, Weight: weightOf(float64(c) * weights[n])})
		}
	}
	if len(out) == 0 {
		for tok, c := range counts[1] {
			if len(tok) < sparseMinLen {
				continue
			}
			out = append(out, reviews.Keyword{Phrase: tok, Weight: weightOf(float64(c) * sparseWeight)})
		}
	}
	return rank(out)
}

func rank(in []reviews.Keyword) []reviews.Keyword {
	out := append([]reviews.Keyword{}, in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Phrase < out[j].Phrase
	})
	if len(out) > reviews.MaxKeywords {
		out = out[:reviews.MaxKeywords]
	}
	return out
}
