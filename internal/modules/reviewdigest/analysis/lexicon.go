package analysis

import "github.com/yungbote/review-digest/internal/domain/reviews"

var positiveWords = toSet(
	"good", "great", "excellent", "helpful", "clear", "engaging", "interesting", "enjoyed",
	"enjoy", "enjoyable", "fair", "manageable", "useful", "amazing", "fantastic", "love",
	"loved", "supportive", "organized", "organised", "rewarding", "recommend", "recommended",
	"fun", "best", "awesome", "insightful", "approachable", "valuable", "nice", "brilliant",
	"passionate", "practical", "relevant", "structured", "prepared", "solid", "easy",
)

var negativeWords = toSet(
	"bad", "poor", "terrible", "confusing", "confused", "boring", "unclear", "difficult",
	"hard", "stressful", "unfair", "disorganized", "disorganised", "overwhelming", "heavy",
	"intense", "rushed", "useless", "worst", "awful", "hate", "hated", "frustrating", "slow",
	"vague", "unhelpful", "tedious", "impossible", "struggle", "struggled", "messy", "harsh",
)

// ScoreSentiment returns the net lexicon score of a comment: +1 per positive
// token, -1 per negative token.
func ScoreSentiment(comment string) int {
	net := 0
	for _, tok := range Tokenize(comment) {
		if _, ok := positiveWords[tok]; ok {
			net++
		}
		if _, ok := negativeWords[tok]; ok {
			net--
		}
	}
	return net
}

// TallySentiment classifies each comment and counts the classes. The counts
// always sum to len(comments).
func TallySentiment(comments []string) reviews.Sentiment {
	var s reviews.Sentiment
	for _, c := range comments {
		switch net := ScoreSentiment(c); {
		case net > 0:
			s.Positive++
		case net < 0:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	return s
}
