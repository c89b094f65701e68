package service

import (
	"context"
	"errors"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// AutoExtractCeiling caps first-write confidence for machine-extracted
	// claims; they are never maximally confident.
	AutoExtractCeiling = 85
	// RumorAtomicCeiling caps atomics derived from a high-volatility story.
	RumorAtomicCeiling = 60
	// CeilingCompressionFloor bounds how far compression can push an
	// over-ceiling value below its ceiling.
	CeilingCompressionFloor = 15
	// ImportanceOverflowCap caps the rescue value for importance written in
	// the hundreds by a buggy extractor.
	ImportanceOverflowCap = 70
)

// boostSteps is the confirmation staircase. Each independent human or
// behavioral confirmation lifts confidence to the next rung.
var boostSteps = [...]int{85, 90, 95, 100}

// NextBoostStep returns the smallest rung above confidence, or confidence
// unchanged when already at or past the top rung.
func NextBoostStep(confidence int) int {
	for _, step := range boostSteps {
		if step > confidence {
			return step
		}
	}
	return confidence
}

// CompressToCeiling maps an over-ceiling confidence back under its ceiling
// while preserving relative ordering: new = ceiling - (old-ceiling)/3,
// bounded below by ceiling - CeilingCompressionFloor.
func CompressToCeiling(confidence, ceiling int) int {
	if confidence <= ceiling {
		return confidence
	}
	compressed := ceiling - (confidence-ceiling)/3
	if floor := ceiling - CeilingCompressionFloor; compressed < floor {
		compressed = floor
	}
	return compressed
}

// NormalizeImportance rescues importance values outside [1,100]. Values in
// the hundreds come from buggy upstream extraction; they are corrected to
// min(70, round(old/10)) rather than propagated into ranking.
func NormalizeImportance(importance int) int {
	if importance > domain.MaxImportance {
		corrected := (importance + 5) / 10
		if corrected > ImportanceOverflowCap {
			corrected = ImportanceOverflowCap
		}
		return corrected
	}
	if importance < domain.MinImportance {
		return domain.MinImportance
	}
	return importance
}

type ConfidenceEngine struct {
	store  domain.ClaimStore
	logger *zap.Logger
}

func NewConfidenceEngine(store domain.ClaimStore, logger *zap.Logger) *ConfidenceEngine {
	return &ConfidenceEngine{store: store, logger: logger}
}

// ceilingFor returns the confidence ceiling applicable to a claim, or
// MaxConfidence when no ceiling applies.
func ceilingFor(c *domain.Claim) int {
	if !c.Source.Automated() {
		return domain.MaxConfidence
	}
	if c.Kind == domain.ClaimKindAtomic && c.Lane == domain.LaneRumor {
		return RumorAtomicCeiling
	}
	return AutoExtractCeiling
}

// ClampOnWrite enforces the numeric invariants on a claim before it is
// persisted. It is idempotent and applied to every insert and update. The
// returned flag reports whether any value was corrected, so API callers can
// distinguish "accepted" from "accepted with correction".
func (e *ConfidenceEngine) ClampOnWrite(c *domain.Claim) bool {
	normalized := false

	if imp := NormalizeImportance(c.Importance); imp != c.Importance {
		e.logger.Debug("normalizing importance",
			zap.String("claim_id", c.ID.String()),
			zap.Int("old_importance", c.Importance),
			zap.Int("new_importance", imp))
		c.Importance = imp
		normalized = true
	}

	if c.IsProtected {
		if c.Confidence != domain.MaxConfidence {
			c.Confidence = domain.MaxConfidence
			normalized = true
		}
		return normalized
	}

	old := c.Confidence
	c.Confidence = CompressToCeiling(c.Confidence, ceilingFor(c))
	if c.Confidence > domain.MaxConfidence {
		c.Confidence = domain.MaxConfidence
	}
	if c.Confidence < domain.MinConfidence {
		c.Confidence = domain.MinConfidence
	}
	if c.Confidence != old {
		e.logger.Debug("normalizing confidence",
			zap.String("claim_id", c.ID.String()),
			zap.Int("old_confidence", old),
			zap.Int("new_confidence", c.Confidence))
		normalized = true
	}
	return normalized
}

// Boost lifts a claim one rung up the confirmation staircase. Boosting a
// protected or already-maxed claim is a no-op, not an error: concurrent
// confirmations of a settled claim carry no new information.
func (e *ConfidenceEngine) Boost(ctx context.Context, id, ownerID uuid.UUID) (*domain.Claim, error) {
	claim, err := e.store.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}

	if claim.IsProtected || claim.Confidence >= domain.MaxConfidence {
		return claim, nil
	}

	next := NextBoostStep(claim.Confidence)
	if next == claim.Confidence {
		return claim, nil
	}

	e.logger.Debug("boosting claim",
		zap.String("claim_id", id.String()),
		zap.Int("old_confidence", claim.Confidence),
		zap.Int("new_confidence", next))

	if err := e.store.UpdateConfidence(ctx, id, next); err != nil {
		return nil, err
	}
	claim.Confidence = next
	return claim, nil
}

// Deprecate soft-deletes a claim. Protected claims can never be deprecated
// through this path.
func (e *ConfidenceEngine) Deprecate(ctx context.Context, id, ownerID uuid.UUID, note string) error {
	claim, err := e.store.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClaimNotFound
		}
		return err
	}

	if err := domain.EnsureMutable(claim, "deprecate"); err != nil {
		return err
	}

	e.logger.Debug("deprecating claim",
		zap.String("claim_id", id.String()),
		zap.String("note", note))

	return e.store.UpdateStatus(ctx, id, domain.StatusDeprecated, note)
}
