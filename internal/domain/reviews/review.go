package reviews

import (
	"time"

	"github.com/google/uuid"
)

// Review is the read-only view of one student review used by digest analysis.
type Review struct {
	ID               string
	UpdatedAt        time.Time
	TeachingRating   int
	WorkloadRating   int
	DifficultyRating int
	AssessmentRating int
	Comment          string
}

type ModuleReview struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;index" json:"author_id"`

	TeachingRating   int `gorm:"not null" json:"teaching_rating"`
	WorkloadRating   int `gorm:"not null" json:"workload_rating"`
	DifficultyRating int `gorm:"not null" json:"difficulty_rating"`
	AssessmentRating int `gorm:"not null" json:"assessment_rating"`

	Comment string `gorm:"type:text;not null" json:"comment"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (ModuleReview) TableName() string { return "module_review" }

func (r *ModuleReview) ToReview() Review {
	return Review{
		ID:               r.ID.String(),
		UpdatedAt:        r.UpdatedAt,
		TeachingRating:   r.TeachingRating,
		WorkloadRating:   r.WorkloadRating,
		DifficultyRating: r.DifficultyRating,
		AssessmentRating: r.AssessmentRating,
		Comment:          r.Comment,
	}
}

func ToReviews(rows []*ModuleReview) []Review {
	out := make([]Review, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, r.ToReview())
	}
	return out
}
