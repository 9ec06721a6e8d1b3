package identity

import "testing"

func TestCanonical_LegacyPrefixCollapses(t *testing.T) {
	got := Canonical("STEAM_0:1:23456789", 0)
	if got != "STEAM_1:1:23456789" {
		t.Fatalf("unexpected canonical id: %q", got)
	}
}

func TestCanonical_CurrentPrefixUntouched(t *testing.T) {
	got := Canonical("STEAM_1:0:42", 0)
	if got != "STEAM_1:0:42" {
		t.Fatalf("unexpected canonical id: %q", got)
	}
}

func TestCanonical_StripsControlCharacters(t *testing.T) {
	got := Canonical("STEAM_0:0:4\x002\x1f\x7f", 0)
	if got != "STEAM_1:0:42" {
		t.Fatalf("unexpected canonical id: %q", got)
	}
}

func TestCanonical_UserIDFallback(t *testing.T) {
	// (85 >> 1) & mask = 42
	got := Canonical("", 85)
	if got != "STEAM_1:0:42" {
		t.Fatalf("unexpected canonical id: %q", got)
	}
}

func TestCanonical_AuthTakesPrecedenceOverUserID(t *testing.T) {
	got := Canonical("STEAM_1:1:7", 85)
	if got != "STEAM_1:1:7" {
		t.Fatalf("unexpected canonical id: %q", got)
	}
}

func TestCanonical_NoIdentity(t *testing.T) {
	if got := Canonical("", 0); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	if got := Canonical("", -3); got != "" {
		t.Fatalf("expected empty id for negative userid, got %q", got)
	}
}
