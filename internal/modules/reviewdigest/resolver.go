package reviewdigest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/analysis"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/fingerprint"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/generation"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

// ErrPersist wraps any failure to write the regenerated digest row.
var ErrPersist = errors.New("persist module digest")

type Outcome string

const (
	OutcomeCacheHit                 Outcome = "cache_hit"
	OutcomeGenerated                Outcome = "generated"
	OutcomeFallbackNoReviews        Outcome = "fallback_no_reviews"
	OutcomeFallbackNoCredentials    Outcome = "fallback_no_credentials"
	OutcomeFallbackGenerationFailed Outcome = "fallback_generation_failed"
)

type Generator interface {
	RequestGeneration(ctx context.Context, comments []string, creds generation.Credentials) *generation.Payload
}

type DigestWriter interface {
	WriteDigest(ctx context.Context, row *reviews.ModuleReviewDigest) error
}

type DigestWriterFunc func(ctx context.Context, row *reviews.ModuleReviewDigest) error

func (f DigestWriterFunc) WriteDigest(ctx context.Context, row *reviews.ModuleReviewDigest) error {
	return f(ctx, row)
}

type Input struct {
	ModuleID    uuid.UUID
	Reviews     []reviews.Review
	Cached      *reviews.ModuleReviewDigest
	Credentials *generation.Credentials
}

type Result struct {
	Digest      reviews.Digest
	Fingerprint string
	Outcome     Outcome
	// Row is the row that was written; nil unless Outcome is OutcomeGenerated.
	Row *reviews.ModuleReviewDigest
	// KeywordsSubstituted is set when generated keywords were replaced by
	// the deterministic ranking.
	KeywordsSubstituted bool
}

type Options struct {
	DefaultModel string
	Now          func() time.Time
}

type Resolver struct {
	gen          Generator
	writer       DigestWriter
	log          *logger.Logger
	defaultModel string
	now          func() time.Time
}

func NewResolver(gen Generator, writer DigestWriter, log *logger.Logger, opts Options) *Resolver {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	model := strings.TrimSpace(opts.DefaultModel)
	if model == "" {
		model = generation.DefaultModel
	}
	return &Resolver{
		gen:          gen,
		writer:       writer,
		log:          log.With("service", "DigestResolver"),
		defaultModel: model,
		now:          now,
	}
}

// Resolve decides between the cached digest, a fresh generation and the
// deterministic fallback. The returned error is non-nil only when persisting
// a regenerated digest failed; the Result is still populated in that case.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Result, error) {
	ctx, span := otel.Tracer("review-digest/resolver").Start(ctx, "reviewdigest.resolve")
	defer span.End()

	res := Result{Fingerprint: fingerprint.FromReviews(in.Reviews)}
	log := r.log.With("module_id", in.ModuleID.String(), "reviews", len(in.Reviews))
	defer func() {
		span.SetAttributes(
			attribute.String("module.id", in.ModuleID.String()),
			attribute.Int("reviews.count", len(in.Reviews)),
			attribute.String("digest.outcome", string(res.Outcome)),
		)
	}()

	if in.Cached != nil && in.Cached.ReviewsFingerprint == res.Fingerprint {
		res.Digest = DecodeRow(in.Cached)
		res.Outcome = OutcomeCacheHit
		log.Debug("module digest cache hit", "fingerprint", res.Fingerprint)
		return res, nil
	}

	stats := analysis.Analyze(in.Reviews)
	switch {
	case len(in.Reviews) == 0:
		res.Digest = FallbackDigest(stats)
		res.Outcome = OutcomeFallbackNoReviews
		return res, nil
	case !in.Credentials.Usable():
		res.Digest = FallbackDigest(stats)
		res.Outcome = OutcomeFallbackNoCredentials
		log.Info("module digest fallback: no generation credentials", "stale_cache", in.Cached != nil)
		return res, nil
	}

	creds := *in.Credentials
	if strings.TrimSpace(creds.Model) == "" {
		creds.Model = r.defaultModel
	}
	var payload *generation.Payload
	if r.gen != nil {
		payload = r.gen.RequestGeneration(ctx, comments(in.Reviews), creds)
	}
	if payload == nil {
		res.Digest = FallbackDigest(stats)
		res.Outcome = OutcomeFallbackGenerationFailed
		log.Warn("module digest fallback: generation failed", "model", creds.Model)
		return res, nil
	}

	res.Digest, res.KeywordsSubstituted = ComposeGenerated(payload, stats)
	res.Outcome = OutcomeGenerated
	if res.KeywordsSubstituted {
		log.Info("generated keywords rejected as low-signal", "generated", len(payload.Keywords))
	}

	row := EncodeRow(in.ModuleID, res.Fingerprint, res.Digest, r.now())
	if r.writer == nil {
		return res, fmt.Errorf("%w: no writer configured", ErrPersist)
	}
	if err := r.writer.WriteDigest(ctx, row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return res, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	res.Row = row
	log.Info("module digest regenerated", "fingerprint", res.Fingerprint, "keywords", len(res.Digest.TopKeywords))
	return res, nil
}

// ComposeGenerated merges a generator payload with the deterministic
// analysis of the same reviews. The summary is always the generator's.
func ComposeGenerated(p *generation.Payload, stats analysis.Result) (reviews.Digest, bool) {
	kws, substituted := GateKeywords(p.Keywords, stats)
	return reviews.Digest{
		Summary:     p.Summary,
		TopKeywords: kws,
		Sentiment:   reconcileSentiment(p.Sentiment, stats),
		Provenance:  reviews.ProvenanceGenerated,
	}, substituted
}

// A generated tally must be non-negative and account for every review;
// otherwise the analyzer's tally stands in.
func reconcileSentiment(s reviews.Sentiment, stats analysis.Result) reviews.Sentiment {
	if s.Positive < 0 || s.Neutral < 0 || s.Negative < 0 || s.Total() != stats.ReviewCount {
		return stats.Sentiment
	}
	return s
}

// FallbackDigest builds the deterministic digest for an analysis result.
func FallbackDigest(stats analysis.Result) reviews.Digest {
	kws := stats.TopKeywords
	if kws == nil {
		kws = []reviews.Keyword{}
	}
	return reviews.Digest{
		Summary:     analysis.FallbackSummary(stats),
		TopKeywords: kws,
		Sentiment:   stats.Sentiment,
		Provenance:  reviews.ProvenanceFallback,
	}
}

func comments(batch []reviews.Review) []string {
	out := make([]string, 0, len(batch))
	for _, r := range batch {
		out = append(out, r.Comment)
	}
	return out
}
