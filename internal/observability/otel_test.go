package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , bad, =x, tenant=t1 ")
	if len(got) != 2 || got["api-key"] != "abc" || got["tenant"] != "t1" {
		t.Fatalf("headers=%v", got)
	}
	if ParseHeaders("") != nil || ParseHeaders(",,") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestExporterKind(t *testing.T) {
	cases := []struct {
		cfg  OtelConfig
		want string
	}{
		{OtelConfig{}, "stdout"},
		{OtelConfig{Endpoint: "collector:4318"}, "otlp"},
		{OtelConfig{Exporter: "STDOUT", Endpoint: "collector:4318"}, "stdout"},
		{OtelConfig{Exporter: "otlp"}, "otlp"},
	}
	for _, tc := range cases {
		if got := exporterKind(tc.cfg); got != tc.want {
			t.Errorf("exporterKind(%+v)=%q want %q", tc.cfg, got, tc.want)
		}
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0.25: 0.25, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Errorf("clampRatio(%v)=%v", in, got)
		}
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{Enabled: false})
	if shutdown == nil {
		t.Fatalf("shutdown must never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
