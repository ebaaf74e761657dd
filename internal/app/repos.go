package app

import (
	"gorm.io/gorm"

	reviewrepo "github.com/yungbote/review-digest/internal/data/repos/reviews"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

type Repos struct {
	ModuleReview       reviewrepo.ModuleReviewRepo
	ModuleReviewDigest reviewrepo.ModuleReviewDigestRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		ModuleReview:       reviewrepo.NewModuleReviewRepo(db, log),
		ModuleReviewDigest: reviewrepo.NewModuleReviewDigestRepo(db, log),
	}
}
