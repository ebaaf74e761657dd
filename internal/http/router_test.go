package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/review-digest/internal/domain/reviews"
	httpH "github.com/yungbote/review-digest/internal/http/handlers"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest"
	"github.com/yungbote/review-digest/internal/observability"
	"github.com/yungbote/review-digest/internal/platform/logger"
	"github.com/yungbote/review-digest/internal/services"
)

type stubService struct {
	digestErr error
	sweepErr  error
}

func (s *stubService) GetDigest(_ context.Context, moduleID uuid.UUID) (*services.ModuleDigest, error) {
	out := &services.ModuleDigest{
		ModuleID:    moduleID,
		Fingerprint: "fp",
		Outcome:     reviewdigest.OutcomeFallbackNoCredentials,
		ReviewCount: 1,
		Digest: reviews.Digest{
			Summary:     "Based on 1 student review.",
			TopKeywords: []reviews.Keyword{{Phrase: "tutorial support", Weight: 4}},
			Sentiment:   reviews.Sentiment{Positive: 1},
			Provenance:  reviews.ProvenanceFallback,
		},
	}
	return out, s.digestErr
}

func (s *stubService) Analyze(_ context.Context, moduleID uuid.UUID) (*services.ModuleAnalysis, error) {
	if s.digestErr != nil {
		return nil, s.digestErr
	}
	out := &services.ModuleAnalysis{ModuleID: moduleID, Summary: "s"}
	out.ReviewCount = 3
	out.TopKeywords = []reviews.Keyword{}
	return out, nil
}

func (s *stubService) Sweep(context.Context) (*services.SweepReport, error) {
	if s.sweepErr != nil {
		return nil, s.sweepErr
	}
	return &services.SweepReport{Modules: 2, Outcomes: map[string]int{"cache_hit": 2}}, nil
}

func newTestRouter(svc services.ReviewDigestService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Log:           logger.Nop(),
		Metrics:       observability.NewMetrics(),
		HealthHandler: httpH.NewHealthHandler(nil),
		DigestHandler: httpH.NewDigestHandler(logger.Nop(), svc),
	})
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return env.Error.Code
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	r := newTestRouter(&stubService{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := serve(r, nethttp.MethodGet, path)
		if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("%s: status=%d body=%q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestGetDigestRoute(t *testing.T) {
	t.Parallel()
	r := newTestRouter(&stubService{})
	id := uuid.New()

	rec := serve(r, nethttp.MethodGet, fmt.Sprintf("/api/modules/%s/digest", id))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["module_id"] != id.String() || body["outcome"] != "fallback_no_credentials" {
		t.Fatalf("unexpected body: %v", body)
	}
	digest, _ := body["digest"].(map[string]any)
	if digest["provenance"] != "fallback" || digest["summary"] == "" {
		t.Fatalf("unexpected digest: %v", digest)
	}
}

func TestGetDigestErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		path       string
		svc        *stubService
		wantStatus int
		wantCode   string
	}{
		{"bad id", "/api/modules/not-a-uuid/digest", &stubService{}, nethttp.StatusBadRequest, "invalid_module_id"},
		{"nil id", "/api/modules/" + uuid.Nil.String() + "/analysis", &stubService{}, nethttp.StatusBadRequest, "invalid_module_id"},
		{"persist", "/api/modules/" + uuid.NewString() + "/digest", &stubService{digestErr: fmt.Errorf("%w: timeout", reviewdigest.ErrPersist)}, nethttp.StatusInternalServerError, "digest_persist_failed"},
		{"load", "/api/modules/" + uuid.NewString() + "/analysis", &stubService{digestErr: errors.New("db gone")}, nethttp.StatusInternalServerError, "digest_load_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(newTestRouter(tc.svc), nethttp.MethodGet, tc.path)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status=%d want %d", rec.Code, tc.wantStatus)
			}
			if got := errorCode(t, rec); got != tc.wantCode {
				t.Fatalf("code=%q want %q", got, tc.wantCode)
			}
		})
	}
}

func TestAnalysisRoute(t *testing.T) {
	t.Parallel()
	rec := serve(newTestRouter(&stubService{}), nethttp.MethodGet, "/api/modules/"+uuid.NewString()+"/analysis")
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["review_count"] != float64(3) || body["summary"] != "s" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, leaked := body["PhraseKeywords"]; leaked {
		t.Fatalf("internal rankings must not be serialized")
	}
}

func TestSweepRoute(t *testing.T) {
	t.Parallel()
	rec := serve(newTestRouter(&stubService{}), nethttp.MethodPost, "/api/digests/sweep")
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), `"cache_hit":2`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(newTestRouter(&stubService{sweepErr: errors.New("boom")}), nethttp.MethodPost, "/api/digests/sweep")
	if rec.Code != nethttp.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()
	r := newTestRouter(&stubService{})
	_ = serve(r, nethttp.MethodGet, "/healthz")
	rec := serve(r, nethttp.MethodGet, "/metrics")
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), "review_digest_http_requests_total") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
