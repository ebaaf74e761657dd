package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/review-digest/internal/domain/reviews"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.ModuleReview{},
		&types.ModuleReviewDigest{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
