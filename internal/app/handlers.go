package app

import (
	httpH "github.com/yungbote/review-digest/internal/http/handlers"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Digest *httpH.DigestHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Digest: httpH.NewDigestHandler(log, serviceset.ReviewDigest),
	}
}
