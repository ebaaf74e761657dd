package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRunAnalyze_FallbackDigest(t *testing.T) {
	in := `[
		{"id":"0b0f2f7e-8a51-4a3c-9a53-4c6b8d3f3a01","teaching_rating":4,"workload_rating":2,"difficulty_rating":3,"assessment_rating":4,
		 "comment":"Great lectures but the workload is heavy.","updated_at":"2026-03-01T10:00:00Z"},
		{"id":"0b0f2f7e-8a51-4a3c-9a53-4c6b8d3f3a02","teaching_rating":5,"workload_rating":3,"difficulty_rating":3,"assessment_rating":5,
		 "comment":"Clear lectures and fair assessment.","updated_at":"2026-03-02T10:00:00Z"}
	]`
	var out bytes.Buffer
	if err := runAnalyze(strings.NewReader(in), &out); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}

	var got analyzeOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if got.ReviewCount != 2 {
		t.Fatalf("review_count=%d want 2", got.ReviewCount)
	}
	if got.Averages.Teaching != 4.5 {
		t.Fatalf("teaching avg=%v want 4.5", got.Averages.Teaching)
	}
	if got.Fingerprint == "" {
		t.Fatalf("expected fingerprint")
	}
	if got.Digest.Provenance != "fallback" {
		t.Fatalf("provenance=%q want fallback", got.Digest.Provenance)
	}
	if !strings.HasPrefix(got.Digest.Summary, "Based on 2 student reviews") {
		t.Fatalf("unexpected summary %q", got.Digest.Summary)
	}
	if got.Digest.Sentiment.Total() != 2 {
		t.Fatalf("sentiment total=%d want 2", got.Digest.Sentiment.Total())
	}
}

func TestRunAnalyze_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := runAnalyze(strings.NewReader(`[]`), &out); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}
	if !strings.Contains(out.String(), `"review_count": 0`) {
		t.Fatalf("unexpected output %s", out.String())
	}
	if !strings.Contains(out.String(), `"top_keywords": []`) {
		t.Fatalf("expected empty keyword list, got %s", out.String())
	}
}

func TestRunAnalyze_BadInput(t *testing.T) {
	if err := runAnalyze(strings.NewReader(`{"not":"an array"}`), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "sweep", "analyze"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
}
