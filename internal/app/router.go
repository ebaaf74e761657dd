package app

import (
	"github.com/gin-gonic/gin"

	server "github.com/yungbote/review-digest/internal/http"
	"github.com/yungbote/review-digest/internal/observability"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, metrics *observability.Metrics) *gin.Engine {
	log.Info("Wiring router...")
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	return server.NewRouter(server.RouterConfig{
		Log:           log,
		Metrics:       metrics,
		ServiceName:   serviceName,
		CORSOrigins:   cfg.CORSOrigins,
		HealthHandler: handlerset.Health,
		DigestHandler: handlerset.Digest,
	})
}
