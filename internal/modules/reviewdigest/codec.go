package reviewdigest

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/generation"
)

// storedKeyword mirrors the generator's keyword shape so persisted rows and
// generator output share one decoder.
type storedKeyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// EncodeRow maps a digest onto the cache row persisted for moduleID.
func EncodeRow(moduleID uuid.UUID, fingerprint string, d reviews.Digest, now time.Time) *reviews.ModuleReviewDigest {
	kws := reviews.CanonicalKeywords(d.TopKeywords)
	stored := make([]storedKeyword, 0, len(kws))
	for _, kw := range kws {
		stored = append(stored, storedKeyword{Word: kw.Phrase, Count: kw.Weight})
	}
	kwJSON, _ := json.Marshal(stored)
	sentJSON, _ := json.Marshal(d.Sentiment)

	source := d.Provenance
	if source != reviews.ProvenanceGenerated {
		source = reviews.ProvenanceFallback
	}
	now = now.UTC()
	return &reviews.ModuleReviewDigest{
		ModuleID:           moduleID,
		ReviewsFingerprint: fingerprint,
		Summary:            d.Summary,
		TopKeywords:        datatypes.JSON(kwJSON),
		Sentiment:          datatypes.JSON(sentJSON),
		Source:             string(source),
		GeneratedAt:        now,
		UpdatedAt:          now,
	}
}

// DecodeRow turns a persisted row into a canonical digest. Persisted JSON is
// untrusted: malformed parts decode to safe defaults instead of failing.
func DecodeRow(row *reviews.ModuleReviewDigest) reviews.Digest {
	if row == nil {
		return reviews.Digest{TopKeywords: []reviews.Keyword{}, Provenance: reviews.ProvenanceFallback}
	}
	return reviews.Digest{
		Summary:     row.Summary,
		TopKeywords: reviews.CanonicalKeywords(generation.ParseKeywords(looseJSON(row.TopKeywords))),
		Sentiment:   decodeSentiment(looseJSON(row.Sentiment)),
		Provenance:  reviews.ParseProvenance(row.Source),
	}
}

func looseJSON(raw datatypes.JSON) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func decodeSentiment(v any) reviews.Sentiment {
	m, ok := v.(map[string]any)
	if !ok {
		return reviews.Sentiment{}
	}
	field := func(key string) int {
		n, ok := generation.CoerceInt(m[key])
		if !ok || n < 0 {
			return 0
		}
		return n
	}
	return reviews.Sentiment{
		Positive: field("positive"),
		Neutral:  field("neutral"),
		Negative: field("negative"),
	}
}
