package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/platform/logger"
	"github.com/yungbote/review-digest/internal/platform/openai"
)

func newAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := openai.NewClient(logger.Nop(), openai.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewAdapter(client, logger.Nop())
}

func respondContent(w http.ResponseWriter, content string) {
	body, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	_, _ = w.Write(body)
}

func TestRequestGenerationSuccess(t *testing.T) {
	var req openai.ChatRequest
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		respondContent(w, `{"summary":"Students liked it.","keywords":[{"word":"tutorial support","count":3},{"keyword":"final exam","count":"2"}],"sentiment":{"positive":2,"neutral":"0","negative":0}}`)
	})

	got := a.RequestGeneration(context.Background(), []string{"Great tutorials", "Fair final exam"}, Credentials{APIKey: "sk", Model: "gpt-test"})
	if got == nil {
		t.Fatalf("expected payload")
	}
	if got.Summary != "Students liked it." {
		t.Fatalf("summary: %q", got.Summary)
	}
	want := []reviews.Keyword{{Phrase: "tutorial support", Weight: 3}, {Phrase: "final exam", Weight: 2}}
	if len(got.Keywords) != 2 || got.Keywords[0] != want[0] || got.Keywords[1] != want[1] {
		t.Fatalf("keywords: %v", got.Keywords)
	}
	if got.Sentiment != (reviews.Sentiment{Positive: 2}) {
		t.Fatalf("sentiment: %+v", got.Sentiment)
	}

	if req.Model != "gpt-test" || req.Temperature == nil || *req.Temperature != 0.2 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Fatalf("missing json response format")
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "1. Great tutorials") || !strings.Contains(req.Messages[1].Content, "2. Fair final exam") {
		t.Fatalf("corpus not numbered: %q", req.Messages[1].Content)
	}
}

func TestRequestGenerationFailuresReturnNil(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) }},
		{"http 429", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "slow down", http.StatusTooManyRequests) }},
		{"body not json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) }},
		{"no choices", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"choices":[]}`)) }},
		{"content not json", func(w http.ResponseWriter, r *http.Request) { respondContent(w, "Here is your summary!") }},
		{"missing summary", func(w http.ResponseWriter, r *http.Request) {
			respondContent(w, `{"keywords":[],"sentiment":{"positive":1,"neutral":0,"negative":0}}`)
		}},
		{"blank summary", func(w http.ResponseWriter, r *http.Request) {
			respondContent(w, `{"summary":"  ","sentiment":{"positive":1,"neutral":0,"negative":0}}`)
		}},
		{"missing sentiment", func(w http.ResponseWriter, r *http.Request) { respondContent(w, `{"summary":"ok","keywords":[]}`) }},
		{"sentiment not object", func(w http.ResponseWriter, r *http.Request) {
			respondContent(w, `{"summary":"ok","sentiment":[1,0,0]}`)
		}},
		{"sentiment field not numeric", func(w http.ResponseWriter, r *http.Request) {
			respondContent(w, `{"summary":"ok","sentiment":{"positive":"many","neutral":0,"negative":0}}`)
		}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			a := newAdapter(t, tc.h)
			if got := a.RequestGeneration(context.Background(), []string{"x"}, Credentials{APIKey: "sk"}); got != nil {
				t.Fatalf("expected nil payload, got %+v", got)
			}
		})
	}
}

func TestRequestGenerationUnreachable(t *testing.T) {
	client, err := openai.NewClient(logger.Nop(), openai.Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	a := NewAdapter(client, logger.Nop())
	if got := a.RequestGeneration(context.Background(), []string{"x"}, Credentials{APIKey: "sk"}); got != nil {
		t.Fatalf("expected nil payload")
	}
}

func TestParsePayloadKeywordNormalization(t *testing.T) {
	got, err := ParsePayload("```json\n" + `{"summary":"s","sentiment":{"positive":1.0,"neutral":0,"negative":0},
		"keywords":[{"word":"a1","count":0},{"word":"a2","count":-4},{"count":3},{"word":""},{"keyword":"a3"},
		{"word":"a4","count":2.6},"junk",{"word":"a5"},{"word":"a6"},{"word":"a7"},{"word":"a8"},{"word":"a9"}]}` + "\n```")
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if len(got.Keywords) != reviews.MaxKeywords {
		t.Fatalf("expected %d keywords, got %v", reviews.MaxKeywords, got.Keywords)
	}
	if got.Keywords[0].Weight != 1 || got.Keywords[1].Weight != 1 || got.Keywords[2].Phrase != "a3" || got.Keywords[3].Weight != 3 {
		t.Fatalf("unexpected coercion: %v", got.Keywords)
	}
	if got.Keywords[7].Phrase != "a8" {
		t.Fatalf("unexpected truncation: %v", got.Keywords)
	}
}

func TestParsePayloadKeywordsMayBeEmpty(t *testing.T) {
	got, err := ParsePayload(`{"summary":"s","keywords":"none","sentiment":{"positive":0,"neutral":1,"negative":0}}`)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if got.Keywords == nil || len(got.Keywords) != 0 {
		t.Fatalf("expected empty keywords, got %v", got.Keywords)
	}
}

func TestBuildRequestDefaultsModel(t *testing.T) {
	req := BuildRequest([]string{"a"}, "  ")
	if req.Model != DefaultModel {
		t.Fatalf("model: %q", req.Model)
	}
}
