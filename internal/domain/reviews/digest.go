package reviews

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const MaxKeywords = 8

type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceFallback  Provenance = "fallback"
)

// ParseProvenance maps stored source values onto a Provenance; anything
// unrecognised is a fallback.
func ParseProvenance(s string) Provenance {
	if Provenance(strings.ToLower(strings.TrimSpace(s))) == ProvenanceGenerated {
		return ProvenanceGenerated
	}
	return ProvenanceFallback
}

type Keyword struct {
	Phrase string `json:"phrase"`
	Weight int    `json:"weight"`
}

type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

func (s Sentiment) Total() int { return s.Positive + s.Neutral + s.Negative }

type Digest struct {
	Summary     string     `json:"summary"`
	TopKeywords []Keyword  `json:"top_keywords"`
	Sentiment   Sentiment  `json:"sentiment"`
	Provenance  Provenance `json:"provenance"`
}

// NormalizePhrase is the comparison key used for keyword de-duplication.
func NormalizePhrase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalKeywords de-duplicates by normalized phrase (highest weight wins),
// clamps weights to at least 1, orders by weight desc then phrase asc, and
// caps the list at MaxKeywords. It never returns nil.
func CanonicalKeywords(in []Keyword) []Keyword {
	best := make(map[string]int, len(in))
	for _, kw := range in {
		phrase := NormalizePhrase(kw.Phrase)
		if phrase == "" {
			continue
		}
		w := kw.Weight
		if w < 1 {
			w = 1
		}
		if cur, ok := best[phrase]; !ok || w > cur {
			best[phrase] = w
		}
	}
	out := make([]Keyword, 0, len(best))
	for phrase, w := range best {
		out = append(out, Keyword{Phrase: phrase, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Phrase < out[j].Phrase
	})
	if len(out) > MaxKeywords {
		out = out[:MaxKeywords]
	}
	return out
}

// ModuleReviewDigest is the cached digest row, one per module.
type ModuleReviewDigest struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"module_id"`

	ReviewsFingerprint string `gorm:"column:reviews_fingerprint;not null" json:"reviews_fingerprint"`

	Summary     string         `gorm:"column:summary;type:text" json:"summary"`
	TopKeywords datatypes.JSON `gorm:"column:top_keywords;type:jsonb" json:"top_keywords"` // [{word,count}]
	Sentiment   datatypes.JSON `gorm:"column:sentiment;type:jsonb" json:"sentiment"`       // {positive,neutral,negative}
	Source      string         `gorm:"column:source;not null" json:"source"`

	GeneratedAt time.Time `gorm:"column:generated_at;not null" json:"generated_at"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;index" json:"updated_at"`
}

func (ModuleReviewDigest) TableName() string { return "module_review_digest" }
