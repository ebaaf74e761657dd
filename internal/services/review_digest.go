package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/yungbote/review-digest/internal/clients/redis"
	reviewrepo "github.com/yungbote/review-digest/internal/data/repos/reviews"
	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/analysis"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/generation"
	"github.com/yungbote/review-digest/internal/observability"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

// ErrLoad wraps failures reading reviews or the cached digest.
var ErrLoad = errors.New("load module reviews")

type ModuleDigest struct {
	ModuleID    uuid.UUID            `json:"module_id"`
	Fingerprint string               `json:"fingerprint"`
	Outcome     reviewdigest.Outcome `json:"outcome"`
	ReviewCount int                  `json:"review_count"`
	Digest      reviews.Digest       `json:"digest"`
}

type ModuleAnalysis struct {
	ModuleID uuid.UUID `json:"module_id"`
	analysis.Result
	Summary string `json:"summary"`
}

type SweepReport struct {
	Modules  int            `json:"modules"`
	Failed   int            `json:"failed"`
	Outcomes map[string]int `json:"outcomes"`
	Duration time.Duration  `json:"duration_ns"`
}

// EventPublisher is satisfied by redis.DigestBus.
type EventPublisher interface {
	Publish(ctx context.Context, ev redis.DigestEvent) error
}

type ReviewDigestService interface {
	GetDigest(ctx context.Context, moduleID uuid.UUID) (*ModuleDigest, error)
	Analyze(ctx context.Context, moduleID uuid.UUID) (*ModuleAnalysis, error)
	Sweep(ctx context.Context) (*SweepReport, error)
}

type SweepConfig struct {
	Concurrency int
	RatePerSec  float64
}

type ReviewDigestDeps struct {
	DB          *gorm.DB
	Reviews     reviewrepo.ModuleReviewRepo
	Digests     reviewrepo.ModuleReviewDigestRepo
	Generator   reviewdigest.Generator
	Publisher   EventPublisher
	Metrics     *observability.Metrics
	Credentials *generation.Credentials
	Model       string
	Sweep       SweepConfig
	Now         func() time.Time
}

type reviewDigestService struct {
	db        *gorm.DB
	log       *logger.Logger
	reviews   reviewrepo.ModuleReviewRepo
	digests   reviewrepo.ModuleReviewDigestRepo
	resolver  *reviewdigest.Resolver
	publisher EventPublisher
	metrics   *observability.Metrics
	creds     *generation.Credentials
	sweep     SweepConfig
}

func NewReviewDigestService(log *logger.Logger, deps ReviewDigestDeps) (ReviewDigestService, error) {
	if deps.Reviews == nil || deps.Digests == nil {
		return nil, fmt.Errorf("review and digest repos required")
	}
	s := &reviewDigestService{
		db:        deps.DB,
		log:       log.With("service", "ReviewDigestService"),
		reviews:   deps.Reviews,
		digests:   deps.Digests,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		creds:     deps.Credentials,
		sweep:     deps.Sweep,
	}
	if s.sweep.Concurrency <= 0 {
		s.sweep.Concurrency = 1
	}
	writer := reviewdigest.DigestWriterFunc(func(ctx context.Context, row *reviews.ModuleReviewDigest) error {
		return s.digests.UpsertByModuleID(ctx, s.db, row)
	})
	s.resolver = reviewdigest.NewResolver(deps.Generator, writer, log, reviewdigest.Options{
		DefaultModel: deps.Model,
		Now:          deps.Now,
	})
	return s, nil
}

func (s *reviewDigestService) load(ctx context.Context, moduleID uuid.UUID) ([]reviews.Review, *reviews.ModuleReviewDigest, error) {
	rows, err := s.reviews.GetByModuleID(ctx, s.db, moduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	cached, err := s.digests.GetByModuleID(ctx, s.db, moduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cached digest: %w", ErrLoad, err)
	}
	return reviews.ToReviews(rows), cached, nil
}

func (s *reviewDigestService) GetDigest(ctx context.Context, moduleID uuid.UUID) (*ModuleDigest, error) {
	ctx, span := otel.Tracer("review-digest/services").Start(ctx, "ReviewDigestService.GetDigest")
	defer span.End()
	span.SetAttributes(attribute.String("module.id", moduleID.String()))

	batch, cached, err := s.load(ctx, moduleID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	start := time.Now()
	res, err := s.resolver.Resolve(ctx, reviewdigest.Input{
		ModuleID:    moduleID,
		Reviews:     batch,
		Cached:      cached,
		Credentials: s.creds,
	})
	s.metrics.ObserveResolve(string(res.Outcome), time.Since(start))
	if res.KeywordsSubstituted {
		s.metrics.IncKeywordsSubstituted()
	}

	out := &ModuleDigest{
		ModuleID:    moduleID,
		Fingerprint: res.Fingerprint,
		Outcome:     res.Outcome,
		ReviewCount: len(batch),
		Digest:      res.Digest,
	}
	if err != nil {
		s.metrics.IncPersistFailure()
		s.log.Error("module digest persist failed", "module_id", moduleID.String(), "error", err)
		span.RecordError(err)
		return out, err
	}
	if res.Row != nil {
		s.publish(ctx, res.Row)
	}
	return out, nil
}

func (s *reviewDigestService) publish(ctx context.Context, row *reviews.ModuleReviewDigest) {
	if s.publisher == nil {
		return
	}
	ev := redis.NewDigestRegenerated(row.ModuleID.String(), row.ReviewsFingerprint, row.Source, row.GeneratedAt)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.IncPublishFailure()
		s.log.Warn("digest event publish failed", "module_id", ev.ModuleID, "error", err)
	}
}

func (s *reviewDigestService) Analyze(ctx context.Context, moduleID uuid.UUID) (*ModuleAnalysis, error) {
	rows, err := s.reviews.GetByModuleID(ctx, s.db, moduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	res := analysis.Analyze(reviews.ToReviews(rows))
	return &ModuleAnalysis{
		ModuleID: moduleID,
		Result:   res,
		Summary:  analysis.FallbackSummary(res),
	}, nil
}

// Sweep resolves every reviewed module, regenerating stale digests. One
// module failing does not stop the others.
func (s *reviewDigestService) Sweep(ctx context.Context) (*SweepReport, error) {
	start := time.Now()
	ids, err := s.reviews.ListModuleIDs(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: module ids: %w", ErrLoad, err)
	}

	var limiter *rate.Limiter
	if s.sweep.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.sweep.RatePerSec), 1)
	}

	var (
		mu     sync.Mutex
		report = &SweepReport{Modules: len(ids), Outcomes: map[string]int{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweep.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			d, err := s.GetDigest(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				s.log.Warn("sweep: module failed", "module_id", id.String(), "error", err)
				return nil
			}
			report.Outcomes[string(d.Outcome)]++
			return nil
		})
	}
	err = g.Wait()
	report.Duration = time.Since(start)
	resolved := 0
	for _, n := range report.Outcomes {
		resolved += n
	}
	s.metrics.ObserveSweep(resolved, report.Failed, report.Duration)
	if err != nil {
		return report, fmt.Errorf("sweep interrupted: %w", err)
	}

	s.log.Info("sweep finished",
		"modules", report.Modules,
		"failed", report.Failed,
		"outcomes", formatOutcomes(report.Outcomes),
		"elapsed", report.Duration.String(),
	)
	return report, nil
}

func formatOutcomes(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s=%d", k, m[k])
	}
	return out
}
