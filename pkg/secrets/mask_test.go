package secrets

import (
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	if Mask("") != "" {
		t.Fatalf("empty value should stay empty")
	}
	if got := Mask("abc"); got == "abc" {
		t.Fatalf("short value not masked")
	}
	if got := Mask("WdVdS-JOtwm1iSr9"); got == "WdVdS-JOtwm1iSr9" || strings.Contains(got, "JOtwm1") {
		t.Fatalf("unexpected mask %q", got)
	}
}
