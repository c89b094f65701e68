package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestNormalizeImportance_OverflowRescue(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{900, 70},  // round(900/10)=90, capped at 70
		{340, 34},  // round(340/10)=34
		{101, 10},  // round(101/10)=10
		{100, 100}, // in range, untouched
		{1, 1},
		{0, 1},
		{-5, 1},
	}
	for _, tc := range cases {
		if got := NormalizeImportance(tc.in); got != tc.want {
			t.Errorf("NormalizeImportance(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCompressToCeiling(t *testing.T) {
	cases := []struct {
		conf, ceiling, want int
	}{
		{100, 85, 80}, // 85 - (15/3)
		{96, 85, 82},  // 85 - (11/3)
		{85, 85, 85},  // at ceiling, untouched
		{40, 85, 40},  // below ceiling, untouched
		{150, 85, 70}, // floored at ceiling-15
		{100, 60, 47}, // rumor atomic ceiling
	}
	for _, tc := range cases {
		if got := CompressToCeiling(tc.conf, tc.ceiling); got != tc.want {
			t.Errorf("CompressToCeiling(%d, %d) = %d, want %d", tc.conf, tc.ceiling, got, tc.want)
		}
	}
}

func TestClampOnWrite_Idempotent(t *testing.T) {
	engine := NewConfidenceEngine(newMockClaimStore(), zap.NewNop())

	claim := &domain.Claim{
		Kind:       domain.ClaimKindFact,
		Source:     domain.SourceConversation,
		Importance: 900,
		Confidence: 100,
	}

	normalized := engine.ClampOnWrite(claim)
	if !normalized {
		t.Fatal("expected first clamp to report normalization")
	}
	if claim.Importance != 70 {
		t.Errorf("importance = %d, want 70", claim.Importance)
	}
	if claim.Confidence != 80 {
		t.Errorf("confidence = %d, want 80", claim.Confidence)
	}

	normalized = engine.ClampOnWrite(claim)
	if normalized {
		t.Error("second clamp should be a no-op")
	}
	if claim.Importance != 70 || claim.Confidence != 80 {
		t.Errorf("second clamp changed values: importance=%d confidence=%d", claim.Importance, claim.Confidence)
	}
}

func TestClampOnWrite_ProtectedPinsConfidence(t *testing.T) {
	engine := NewConfidenceEngine(newMockClaimStore(), zap.NewNop())

	claim := &domain.Claim{
		Kind:        domain.ClaimKindFact,
		Source:      domain.SourceManual,
		Importance:  90,
		Confidence:  55,
		IsProtected: true,
	}

	engine.ClampOnWrite(claim)
	if claim.Confidence != domain.MaxConfidence {
		t.Errorf("protected confidence = %d, want %d", claim.Confidence, domain.MaxConfidence)
	}
}

func TestClampOnWrite_RumorAtomicCeiling(t *testing.T) {
	engine := NewConfidenceEngine(newMockClaimStore(), zap.NewNop())

	claim := &domain.Claim{
		Kind:       domain.ClaimKindAtomic,
		Lane:       domain.LaneRumor,
		Source:     domain.SourcePodcast,
		Importance: 50,
		Confidence: 85,
	}

	engine.ClampOnWrite(claim)
	if claim.Confidence > RumorAtomicCeiling {
		t.Errorf("rumor atomic confidence = %d, want <= %d", claim.Confidence, RumorAtomicCeiling)
	}
}

func TestBoost_Staircase(t *testing.T) {
	memStore := newMockClaimStore()
	engine := NewConfidenceEngine(memStore, zap.NewNop())
	ownerID := uuid.New()

	claim := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Source:       domain.SourceConversation,
		Status:       domain.StatusActive,
		CanonicalKey: "boost|staircase",
		Importance:   50,
		Confidence:   70,
	}
	if err := memStore.Create(context.Background(), claim); err != nil {
		t.Fatalf("create: %v", err)
	}

	want := []int{85, 90, 95, 100}
	for i, expected := range want {
		updated, err := engine.Boost(context.Background(), claim.ID, ownerID)
		if err != nil {
			t.Fatalf("boost %d: %v", i+1, err)
		}
		if updated.Confidence != expected {
			t.Errorf("boost %d: confidence = %d, want %d", i+1, updated.Confidence, expected)
		}
	}

	// Fifth boost is a no-op, not an error.
	updated, err := engine.Boost(context.Background(), claim.ID, ownerID)
	if err != nil {
		t.Fatalf("fifth boost: %v", err)
	}
	if updated.Confidence != 100 {
		t.Errorf("fifth boost: confidence = %d, want 100", updated.Confidence)
	}
}

func TestBoost_ProtectedNoOp(t *testing.T) {
	memStore := newMockClaimStore()
	engine := NewConfidenceEngine(memStore, zap.NewNop())
	ownerID := uuid.New()

	claim := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Source:       domain.SourceManual,
		Status:       domain.StatusActive,
		CanonicalKey: "protected|boost",
		Importance:   100,
		Confidence:   100,
		IsProtected:  true,
	}
	if err := memStore.Create(context.Background(), claim); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := engine.Boost(context.Background(), claim.ID, ownerID)
	if err != nil {
		t.Fatalf("boost: %v", err)
	}
	if updated.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", updated.Confidence)
	}
}

func TestDeprecate_ProtectedRejected(t *testing.T) {
	memStore := newMockClaimStore()
	engine := NewConfidenceEngine(memStore, zap.NewNop())
	ownerID := uuid.New()

	claim := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Source:       domain.SourceManual,
		Status:       domain.StatusActive,
		CanonicalKey: "protected|deprecate",
		Importance:   100,
		Confidence:   100,
		IsProtected:  true,
	}
	if err := memStore.Create(context.Background(), claim); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := engine.Deprecate(context.Background(), claim.ID, ownerID, "test")
	var protectedErr *domain.ProtectedClaimError
	if !errors.As(err, &protectedErr) {
		t.Fatalf("expected ProtectedClaimError, got %v", err)
	}

	got, _ := memStore.GetByID(context.Background(), claim.ID, ownerID)
	if got.Status != domain.StatusActive {
		t.Errorf("status = %s, want ACTIVE", got.Status)
	}
}

func TestDeprecate_SetsStatus(t *testing.T) {
	memStore := newMockClaimStore()
	engine := NewConfidenceEngine(memStore, zap.NewNop())
	ownerID := uuid.New()

	claim := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Source:       domain.SourceConversation,
		Status:       domain.StatusActive,
		CanonicalKey: "plain|deprecate",
		Importance:   50,
		Confidence:   70,
	}
	if err := memStore.Create(context.Background(), claim); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := engine.Deprecate(context.Background(), claim.ID, ownerID, "superseded"); err != nil {
		t.Fatalf("deprecate: %v", err)
	}

	got, _ := memStore.GetByID(context.Background(), claim.ID, ownerID)
	if got.Status != domain.StatusDeprecated {
		t.Errorf("status = %s, want DEPRECATED", got.Status)
	}
	if got.Note != "superseded" {
		t.Errorf("note = %q, want %q", got.Note, "superseded")
	}
}

func TestDeprecate_NotFound(t *testing.T) {
	engine := NewConfidenceEngine(newMockClaimStore(), zap.NewNop())

	err := engine.Deprecate(context.Background(), uuid.New(), uuid.New(), "")
	if !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}
