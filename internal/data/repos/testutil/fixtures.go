package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/review-digest/internal/domain/reviews"
)

func SeedModuleReview(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, comment string, updatedAt time.Time) *types.ModuleReview {
	tb.Helper()
	r := &types.ModuleReview{
		ID:               uuid.New(),
		ModuleID:         moduleID,
		AuthorID:         uuid.New(),
		TeachingRating:   4,
		WorkloadRating:   3,
		DifficultyRating: 3,
		AssessmentRating: 4,
		Comment:          comment,
		CreatedAt:        updatedAt,
		UpdatedAt:        updatedAt,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed module review: %v", err)
	}
	return r
}
