package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/review-digest/internal/clients/redis"
	"github.com/yungbote/review-digest/internal/platform/logger"
	"github.com/yungbote/review-digest/internal/platform/openai"
)

type Clients struct {
	// DigestBus is nil when REDIS_ADDR is unset.
	DigestBus    redis.DigestBus
	OpenaiClient openai.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var bus redis.DigestBus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := redis.NewDigestBus(log, redis.Config{Addr: cfg.Redis.Addr, Channel: cfg.Redis.Channel})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis digest bus: %w", err)
		}
		bus = b
	} else {
		log.Warn("REDIS_ADDR not set; digest events disabled")
	}

	openaiClient, err := openai.NewClient(log, openai.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: cfg.OpenAITimeout(),
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	if cfg.Credentials() == nil {
		log.Warn("OPENAI_API_KEY not set; digests will use the deterministic fallback")
	}

	return Clients{DigestBus: bus, OpenaiClient: openaiClient}, nil
}
