package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestValidClaimKind(t *testing.T) {
	for _, k := range []string{"FACT", "STORY", "ATOMIC"} {
		if !ValidClaimKind(k) {
			t.Errorf("ValidClaimKind(%q) = false", k)
		}
	}
	for _, k := range []string{"fact", "EVENT", ""} {
		if ValidClaimKind(k) {
			t.Errorf("ValidClaimKind(%q) = true", k)
		}
	}
}

func TestValidSource(t *testing.T) {
	for _, s := range []string{"conversation", "document", "podcast", "rss", "manual", "user"} {
		if !ValidSource(s) {
			t.Errorf("ValidSource(%q) = false", s)
		}
	}
	if ValidSource("telepathy") {
		t.Error("ValidSource(telepathy) = true")
	}
}

func TestSourceAutomated(t *testing.T) {
	for _, s := range []Source{SourceManual, SourceUser} {
		if s.Automated() {
			t.Errorf("%s should not count as automated", s)
		}
	}
	for _, s := range []Source{SourceConversation, SourceDocument, SourcePodcast, SourceRSS} {
		if !s.Automated() {
			t.Errorf("%s should count as automated", s)
		}
	}
}

func TestEnsureMutable(t *testing.T) {
	plain := &Claim{ID: uuid.New()}
	if err := EnsureMutable(plain, "deprecate"); err != nil {
		t.Errorf("unprotected claim should be mutable, got %v", err)
	}

	protected := &Claim{ID: uuid.New(), IsProtected: true}
	err := EnsureMutable(protected, "deprecate")
	var protectedErr *ProtectedClaimError
	if !errors.As(err, &protectedErr) {
		t.Fatalf("expected ProtectedClaimError, got %v", err)
	}
	if protectedErr.Op != "deprecate" {
		t.Errorf("Op = %q, want %q", protectedErr.Op, "deprecate")
	}
}
