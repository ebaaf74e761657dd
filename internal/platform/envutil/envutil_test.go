package envutil

import "testing"

func TestTypedLookups(t *testing.T) {
	t.Setenv("DIGEST_TEST_INT", " 12 ")
	t.Setenv("DIGEST_TEST_BAD_INT", "twelve")
	t.Setenv("DIGEST_TEST_FLOAT", "0.5")
	t.Setenv("DIGEST_TEST_BOOL", "off")
	t.Setenv("DIGEST_TEST_STRING", "  gpt-4o-mini ")

	if got := Int("DIGEST_TEST_INT", 1); got != 12 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("DIGEST_TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d", got)
	}
	if got := Float("DIGEST_TEST_FLOAT", 1); got != 0.5 {
		t.Fatalf("Float: got=%v", got)
	}
	if got := Bool("DIGEST_TEST_BOOL", true); got {
		t.Fatalf("Bool: expected false")
	}
	if got := Bool("DIGEST_TEST_UNSET_BOOL", true); !got {
		t.Fatalf("Bool default: expected true")
	}
	if got := String("DIGEST_TEST_STRING", "x"); got != "gpt-4o-mini" {
		t.Fatalf("String: got=%q", got)
	}
	if got := String("DIGEST_TEST_UNSET_STRING", "x"); got != "x" {
		t.Fatalf("String default: got=%q", got)
	}
}
