package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/review-digest/internal/clients/redis"
	reviewrepo "github.com/yungbote/review-digest/internal/data/repos/reviews"
	"github.com/yungbote/review-digest/internal/data/repos/testutil"
	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/generation"
	"github.com/yungbote/review-digest/internal/observability"
)

type stubGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *stubGenerator) RequestGeneration(_ context.Context, comments []string, _ generation.Credentials) *generation.Payload {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return &generation.Payload{
		Summary:   "Students discuss the weekly workload and the final exam.",
		Keywords:  []reviews.Keyword{{Phrase: "weekly workload", Weight: 3}, {Phrase: "final exam", Weight: 2}},
		Sentiment: reviews.Sentiment{Neutral: len(comments)},
	}
}

type memPublisher struct {
	mu     sync.Mutex
	events []redis.DigestEvent
	err    error
}

func (p *memPublisher) Publish(_ context.Context, ev redis.DigestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type failingDigestRepo struct {
	reviewrepo.ModuleReviewDigestRepo
}

func (failingDigestRepo) UpsertByModuleID(context.Context, *gorm.DB, *reviews.ModuleReviewDigest) error {
	return errors.New("disk full")
}

type fixture struct {
	db      *gorm.DB
	digests reviewrepo.ModuleReviewDigestRepo
	gen     *stubGenerator
	pub     *memPublisher
	svc     ReviewDigestService
	modules []uuid.UUID
}

func newFixture(t *testing.T, creds *generation.Credentials) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	f := &fixture{
		db:      db,
		digests: reviewrepo.NewModuleReviewDigestRepo(db, log),
		gen:     &stubGenerator{},
		pub:     &memPublisher{},
		modules: []uuid.UUID{uuid.New(), uuid.New()},
	}
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, m := range f.modules {
		testutil.SeedModuleReview(t, ctx, db, m, "Weekly workload was intense but the weekly workload prepared us well for the final exam.", base.Add(time.Duration(i)*time.Minute))
		testutil.SeedModuleReview(t, ctx, db, m, "The final exam felt fair and the weekly workload was still manageable overall.", base.Add(time.Duration(i)*time.Minute+time.Second))
	}

	svc, err := NewReviewDigestService(log, ReviewDigestDeps{
		DB:          db,
		Reviews:     reviewrepo.NewModuleReviewRepo(db, log),
		Digests:     f.digests,
		Generator:   f.gen,
		Publisher:   f.pub,
		Metrics:     observability.NewMetrics(),
		Credentials: creds,
		Sweep:       SweepConfig{Concurrency: 2},
	})
	if err != nil {
		t.Fatalf("NewReviewDigestService: %v", err)
	}
	f.svc = svc
	return f
}

func TestGetDigestWithoutCredentials(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	got, err := f.svc.GetDigest(ctx, f.modules[0])
	if err != nil {
		t.Fatalf("GetDigest: %v", err)
	}
	if got.Outcome != reviewdigest.OutcomeFallbackNoCredentials || got.ReviewCount != 2 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Digest.Provenance != reviews.ProvenanceFallback || got.Digest.Sentiment.Total() != 2 {
		t.Fatalf("unexpected digest: %+v", got.Digest)
	}
	if row, err := f.digests.GetByModuleID(ctx, f.db, f.modules[0]); err != nil || row != nil {
		t.Fatalf("fallback must not be persisted: err=%v row=%v", err, row)
	}
	if f.gen.calls != 0 || len(f.pub.events) != 0 {
		t.Fatalf("unexpected side effects: calls=%d events=%d", f.gen.calls, len(f.pub.events))
	}
}

func TestGetDigestGeneratesThenHitsCache(t *testing.T) {
	f := newFixture(t, &generation.Credentials{APIKey: "sk-test"})
	ctx := context.Background()
	moduleID := f.modules[0]

	first, err := f.svc.GetDigest(ctx, moduleID)
	if err != nil {
		t.Fatalf("GetDigest: %v", err)
	}
	if first.Outcome != reviewdigest.OutcomeGenerated {
		t.Fatalf("outcome=%s", first.Outcome)
	}
	row, err := f.digests.GetByModuleID(ctx, f.db, moduleID)
	if err != nil || row == nil || row.ReviewsFingerprint != first.Fingerprint || row.Source != "generated" {
		t.Fatalf("persisted row: err=%v row=%+v", err, row)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].ModuleID != moduleID.String() || f.pub.events[0].Fingerprint != first.Fingerprint {
		t.Fatalf("events=%+v", f.pub.events)
	}

	second, err := f.svc.GetDigest(ctx, moduleID)
	if err != nil {
		t.Fatalf("GetDigest: %v", err)
	}
	if second.Outcome != reviewdigest.OutcomeCacheHit || second.Fingerprint != first.Fingerprint {
		t.Fatalf("expected cache hit, got %+v", second)
	}
	if second.Digest.Summary != first.Digest.Summary || len(second.Digest.TopKeywords) != len(first.Digest.TopKeywords) {
		t.Fatalf("cached digest differs: %+v vs %+v", second.Digest, first.Digest)
	}
	if f.gen.calls != 1 || len(f.pub.events) != 1 {
		t.Fatalf("cache hit must not regenerate: calls=%d events=%d", f.gen.calls, len(f.pub.events))
	}
}

func TestGetDigestPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, &generation.Credentials{APIKey: "sk-test"})
	f.pub.err = errors.New("redis down")
	got, err := f.svc.GetDigest(context.Background(), f.modules[1])
	if err != nil || got.Outcome != reviewdigest.OutcomeGenerated {
		t.Fatalf("publish failure leaked: err=%v got=%+v", err, got)
	}
}

func TestGetDigestPersistFailure(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	moduleID := uuid.New()
	testutil.SeedModuleReview(t, context.Background(), db, moduleID, "Great tutorials.", time.Now().UTC())

	pub := &memPublisher{}
	svc, err := NewReviewDigestService(log, ReviewDigestDeps{
		DB:          db,
		Reviews:     reviewrepo.NewModuleReviewRepo(db, log),
		Digests:     failingDigestRepo{reviewrepo.NewModuleReviewDigestRepo(db, log)},
		Generator:   &stubGenerator{},
		Publisher:   pub,
		Credentials: &generation.Credentials{APIKey: "sk"},
	})
	if err != nil {
		t.Fatalf("NewReviewDigestService: %v", err)
	}

	got, err := svc.GetDigest(context.Background(), moduleID)
	if !errors.Is(err, reviewdigest.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if got == nil || got.Digest.Summary == "" {
		t.Fatalf("digest should still be returned alongside the error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("nothing was written, nothing should be announced")
	}
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, nil)
	got, err := f.svc.Analyze(context.Background(), f.modules[0])
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.ReviewCount != 2 || got.Summary == "" || len(got.TopKeywords) == 0 {
		t.Fatalf("unexpected analysis: %+v", got)
	}

	empty, err := f.svc.Analyze(context.Background(), uuid.New())
	if err != nil || empty.ReviewCount != 0 || empty.Summary != "" {
		t.Fatalf("unknown module: err=%v analysis=%+v", err, empty)
	}
}

func TestSweep(t *testing.T) {
	f := newFixture(t, &generation.Credentials{APIKey: "sk-test"})
	ctx := context.Background()

	report, err := f.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Modules != 2 || report.Failed != 0 || report.Outcomes[string(reviewdigest.OutcomeGenerated)] != 2 {
		t.Fatalf("first sweep: %+v", report)
	}

	report, err = f.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Outcomes[string(reviewdigest.OutcomeCacheHit)] != 2 {
		t.Fatalf("second sweep: %+v", report)
	}
	if f.gen.calls != 2 {
		t.Fatalf("generator calls=%d", f.gen.calls)
	}
}

func TestSweepCancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.Sweep(ctx); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestNewReviewDigestServiceRequiresRepos(t *testing.T) {
	if _, err := NewReviewDigestService(testutil.Logger(t), ReviewDigestDeps{}); err == nil {
		t.Fatalf("expected error")
	}
}
