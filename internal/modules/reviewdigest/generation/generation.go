package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/platform/logger"
	"github.com/yungbote/review-digest/internal/platform/openai"
)

const (
	temperature  = 0.2
	DefaultModel = "gpt-4o-mini"
)

const systemInstruction = `You summarise student reviews of a single university course module.
Respond with strict JSON only, an object with exactly three keys:
"summary": a 2-4 sentence neutral summary of what students say,
"keywords": an array of at most 8 objects {"word": string, "count": integer} naming the most salient topics as short multi-word phrases where possible,
"sentiment": an object {"positive": integer, "neutral": integer, "negative": integer} counting reviews by overall tone; the three counts must sum to the number of reviews.
Do not include any other keys, prose, or markdown.`

type Credentials struct {
	APIKey string
	Model  string
}

func (c *Credentials) Usable() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

// Payload is a validated generator response. Keyword weights carry the
// generator's counts.
type Payload struct {
	Summary   string
	Keywords  []reviews.Keyword
	Sentiment reviews.Sentiment
}

type Adapter struct {
	client openai.Client
	log    *logger.Logger
}

func NewAdapter(client openai.Client, log *logger.Logger) *Adapter {
	return &Adapter{client: client, log: log.With("service", "DigestGenerationAdapter")}
}

// RequestGeneration asks the external service for a digest of comments. It
// returns nil whenever the service is unreachable or its answer is unusable;
// the reason is logged, never returned.
func (a *Adapter) RequestGeneration(ctx context.Context, comments []string, creds Credentials) *Payload {
	if a == nil || a.client == nil {
		return nil
	}
	req := BuildRequest(comments, creds.Model)
	resp, err := a.client.ChatCompletion(ctx, creds.APIKey, req)
	if err != nil {
		a.log.Warn("digest generation unavailable", "model", req.Model, "reviews", len(comments), "error", err.Error())
		return nil
	}
	payload, err := ParsePayload(resp.FirstContent())
	if err != nil {
		a.log.Warn("digest generation returned unusable payload", "model", req.Model, "error", err.Error())
		return nil
	}
	return payload
}

func BuildRequest(comments []string, model string) openai.ChatRequest {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return openai.ChatRequest{
		Model:          model,
		Temperature:    openai.F64(temperature),
		ResponseFormat: &openai.ResponseFormat{Type: "json_object"},
		Messages: []openai.Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: NumberedCorpus(comments)},
		},
	}
}

// NumberedCorpus renders comments as a 1-based numbered list.
func NumberedCorpus(comments []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reviews (%d):\n", len(comments))
	for i, c := range comments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(strings.ReplaceAll(c, "\n", " ")))
	}
	return b.String()
}

var (
	errEmptyContent     = errors.New("empty content")
	errMissingSummary   = errors.New("missing summary")
	errInvalidSentiment = errors.New("missing or invalid sentiment")
)

// ParsePayload validates the JSON object produced by the generator.
func ParsePayload(content string) (*Payload, error) {
	content = stripFences(content)
	if content == "" {
		return nil, errEmptyContent
	}
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("unparseable content: %w", err)
	}
	if obj == nil {
		return nil, errEmptyContent
	}

	summary, _ := obj["summary"].(string)
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, errMissingSummary
	}

	sentiment, ok := parseSentiment(obj["sentiment"])
	if !ok {
		return nil, errInvalidSentiment
	}

	return &Payload{
		Summary:   summary,
		Keywords:  ParseKeywords(obj["keywords"]),
		Sentiment: sentiment,
	}, nil
}

func parseSentiment(v any) (reviews.Sentiment, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return reviews.Sentiment{}, false
	}
	pos, ok1 := CoerceInt(m["positive"])
	neu, ok2 := CoerceInt(m["neutral"])
	neg, ok3 := CoerceInt(m["negative"])
	if !ok1 || !ok2 || !ok3 {
		return reviews.Sentiment{}, false
	}
	return reviews.Sentiment{Positive: pos, Neutral: neu, Negative: neg}, true
}

// ParseKeywords reads a loosely-typed keyword array. Entries need a
// non-blank "word" or "keyword" string; counts default and clamp to 1.
// A non-array yields an empty list.
func ParseKeywords(v any) []reviews.Keyword {
	arr, ok := v.([]any)
	if !ok {
		return []reviews.Keyword{}
	}
	out := make([]reviews.Keyword, 0, reviews.MaxKeywords)
	for _, item := range arr {
		if len(out) == reviews.MaxKeywords {
			break
		}
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		phrase := keywordText(entry)
		if phrase == "" {
			continue
		}
		count, ok := CoerceInt(entry["count"])
		if !ok || count < 1 {
			count = 1
		}
		out = append(out, reviews.Keyword{Phrase: phrase, Weight: count})
	}
	return out
}

func keywordText(entry map[string]any) string {
	for _, key := range []string{"word", "keyword"} {
		if s, ok := entry[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// CoerceInt converts JSON numbers (json.Number or float64) and numeric
// strings into an int. Non-finite values are rejected.
func CoerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		f, err := t.Float64()
		return floatToInt(f, err == nil)
	case float64:
		return floatToInt(t, true)
	case int:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return floatToInt(f, err == nil)
	default:
		return 0, false
	}
}

func floatToInt(f float64, ok bool) (int, bool) {
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
