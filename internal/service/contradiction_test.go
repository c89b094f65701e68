package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestKeywordHeuristic(t *testing.T) {
	h := KeywordHeuristic{}

	cases := []struct {
		a, b string
		want bool
	}{
		{"Sal mains survivor in Dead by Daylight", "Sal mains killer in Dead by Daylight", true},
		{"Nicky loves pineapple pizza", "Nicky does not love pineapple pizza", true},
		{"Nicky never apologizes on stream", "Nicky apologizes on stream", true},
		// Proper subset phrasing is agreement, not conflict.
		{"Nicky grew up in Newark New Jersey", "Nicky grew up in Newark", false},
		// Unrelated subjects share nothing.
		{"Anthony collects hot sauce", "Nicky hates cilantro", false},
	}
	for _, tc := range cases {
		if got := h.Contradicts(tc.a, tc.b); got != tc.want {
			t.Errorf("Contradicts(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func seedConflictPair(t *testing.T, memStore *mockClaimStore, ownerID uuid.UUID) (*domain.Claim, *domain.Claim) {
	t.Helper()
	a := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Source:       domain.SourceConversation,
		Status:       domain.StatusActive,
		Content:      "Sal plays survivor",
		CanonicalKey: CanonicalKey("Sal plays survivor"),
		Importance:   50,
		Confidence:   70,
	}
	b := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Source:       domain.SourcePodcast,
		Status:       domain.StatusActive,
		Content:      "Sal plays killer",
		CanonicalKey: CanonicalKey("Sal plays killer"),
		Importance:   50,
		Confidence:   70,
	}
	if err := memStore.Create(context.Background(), a); err != nil {
		t.Fatalf("seed a: %v", err)
	}
	if err := memStore.Create(context.Background(), b); err != nil {
		t.Fatalf("seed b: %v", err)
	}
	return a, b
}

func TestFindConflicts_PairsDisagreeingClaims(t *testing.T) {
	memStore := newMockClaimStore()
	svc := NewContradictionService(memStore, KeywordHeuristic{}, zap.NewNop())
	ownerID := uuid.New()

	a, b := seedConflictPair(t, memStore, ownerID)

	// An unrelated claim must not pollute the pairing.
	bystander := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Source:       domain.SourceConversation,
		Status:       domain.StatusActive,
		Content:      "Anthony collects hot sauce bottles",
		CanonicalKey: CanonicalKey("Anthony collects hot sauce bottles"),
		Importance:   50,
		Confidence:   70,
	}
	if err := memStore.Create(context.Background(), bystander); err != nil {
		t.Fatalf("seed bystander: %v", err)
	}

	pairs, err := svc.FindConflicts(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("find conflicts: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want exactly 1", len(pairs))
	}

	got := map[uuid.UUID]bool{pairs[0].ClaimA.ID: true, pairs[0].ClaimB.ID: true}
	if !got[a.ID] || !got[b.ID] {
		t.Error("pair should contain both disagreeing claims")
	}
}

func TestFindConflicts_ProtectedExcluded(t *testing.T) {
	memStore := newMockClaimStore()
	svc := NewContradictionService(memStore, KeywordHeuristic{}, zap.NewNop())
	ownerID := uuid.New()

	a, _ := seedConflictPair(t, memStore, ownerID)
	if err := memStore.Promote(context.Background(), a.ID); err != nil {
		t.Fatalf("promote: %v", err)
	}

	pairs, err := svc.FindConflicts(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("find conflicts: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("pairs = %d, want 0 once one side is protected", len(pairs))
	}
}

func TestResolve_WinnerBoostedLoserDeprecated(t *testing.T) {
	memStore := newMockClaimStore()
	svc := NewContradictionService(memStore, KeywordHeuristic{}, zap.NewNop())
	ownerID := uuid.New()

	winner, loser := seedConflictPair(t, memStore, ownerID)

	if err := svc.Resolve(context.Background(), ownerID, winner.ID, loser.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	gotWinner, _ := memStore.GetByID(context.Background(), winner.ID, ownerID)
	if gotWinner.Status != domain.StatusActive {
		t.Errorf("winner status = %s, want ACTIVE", gotWinner.Status)
	}
	if gotWinner.Importance != 55 {
		t.Errorf("winner importance = %d, want 55", gotWinner.Importance)
	}

	gotLoser, _ := memStore.GetByID(context.Background(), loser.ID, ownerID)
	if gotLoser.Status != domain.StatusDeprecated {
		t.Errorf("loser status = %s, want DEPRECATED", gotLoser.Status)
	}
	if gotLoser.Note == "" {
		t.Error("loser should carry a resolution note")
	}

	// The resolved pair no longer surfaces.
	pairs, err := svc.FindConflicts(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("find conflicts: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("pairs after resolve = %d, want 0", len(pairs))
	}
}

func TestResolve_Idempotent(t *testing.T) {
	memStore := newMockClaimStore()
	svc := NewContradictionService(memStore, KeywordHeuristic{}, zap.NewNop())
	ownerID := uuid.New()

	winner, loser := seedConflictPair(t, memStore, ownerID)

	if err := svc.Resolve(context.Background(), ownerID, winner.ID, loser.ID); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if err := svc.Resolve(context.Background(), ownerID, winner.ID, loser.ID); err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	gotWinner, _ := memStore.GetByID(context.Background(), winner.ID, ownerID)
	if gotWinner.Importance != 55 {
		t.Errorf("winner importance = %d after replay, want 55 (bonus applied once)", gotWinner.Importance)
	}
}

func TestResolve_ProtectedLoserRejected(t *testing.T) {
	memStore := newMockClaimStore()
	svc := NewContradictionService(memStore, KeywordHeuristic{}, zap.NewNop())
	ownerID := uuid.New()

	winner, loser := seedConflictPair(t, memStore, ownerID)
	if err := memStore.Promote(context.Background(), loser.ID); err != nil {
		t.Fatalf("promote: %v", err)
	}

	err := svc.Resolve(context.Background(), ownerID, winner.ID, loser.ID)
	var protectedErr *domain.ProtectedClaimError
	if !errors.As(err, &protectedErr) {
		t.Fatalf("expected ProtectedClaimError, got %v", err)
	}

	gotLoser, _ := memStore.GetByID(context.Background(), loser.ID, ownerID)
	if gotLoser.Status != domain.StatusActive {
		t.Errorf("protected loser status = %s, want ACTIVE", gotLoser.Status)
	}
	gotWinner, _ := memStore.GetByID(context.Background(), winner.ID, ownerID)
	if gotWinner.Importance != 50 {
		t.Errorf("winner importance = %d, want unchanged 50", gotWinner.Importance)
	}
}

func TestResolve_NotFound(t *testing.T) {
	svc := NewContradictionService(newMockClaimStore(), KeywordHeuristic{}, zap.NewNop())
	err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrClaimNotFound) {
		t.Errorf("err = %v, want ErrClaimNotFound", err)
	}
}

func TestDismiss_DemotesBothSides(t *testing.T) {
	memStore := newMockClaimStore()
	svc := NewContradictionService(memStore, KeywordHeuristic{}, zap.NewNop())
	ownerID := uuid.New()

	a, b := seedConflictPair(t, memStore, ownerID)

	if err := svc.Dismiss(context.Background(), ownerID, a.ID, b.ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		got, _ := memStore.GetByID(context.Background(), id, ownerID)
		if got.Importance != DismissedImportance {
			t.Errorf("claim %s importance = %d, want %d", id, got.Importance, DismissedImportance)
		}
		if got.Status != domain.StatusActive {
			t.Errorf("claim %s status = %s, dismissed claims stay ACTIVE", id, got.Status)
		}
	}
}
