package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/review-digest/internal/modules/reviewdigest/generation"
	"github.com/yungbote/review-digest/internal/observability"
	"github.com/yungbote/review-digest/internal/platform/logger"
	"github.com/yungbote/review-digest/internal/services"
)

type Services struct {
	ReviewDigest services.ReviewDigestService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	deps := services.ReviewDigestDeps{
		DB:          db,
		Reviews:     reposet.ModuleReview,
		Digests:     reposet.ModuleReviewDigest,
		Generator:   generation.NewAdapter(clients.OpenaiClient, log),
		Metrics:     metrics,
		Credentials: cfg.Credentials(),
		Model:       cfg.OpenAI.Model,
		Sweep: services.SweepConfig{
			Concurrency: cfg.Sweep.Concurrency,
			RatePerSec:  cfg.Sweep.RatePerSec,
		},
	}
	if clients.DigestBus != nil {
		deps.Publisher = clients.DigestBus
	}
	digestSvc, err := services.NewReviewDigestService(log, deps)
	if err != nil {
		return Services{}, err
	}
	return Services{ReviewDigest: digestSvc}, nil
}
