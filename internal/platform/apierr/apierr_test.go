package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromUnwrapsWrappedError(t *testing.T) {
	base := New(http.StatusBadRequest, "invalid_module_id", errors.New("bad uuid"))
	wrapped := fmt.Errorf("handler: %w", base)

	got := From(wrapped)
	if got.Status != http.StatusBadRequest || got.Code != "invalid_module_id" {
		t.Fatalf("unexpected error: %+v", got)
	}
}

func TestFromDefaultsToInternal(t *testing.T) {
	got := From(errors.New("boom"))
	if got.Status != http.StatusInternalServerError || got.Code != "internal_error" {
		t.Fatalf("unexpected error: %+v", got)
	}
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
}
