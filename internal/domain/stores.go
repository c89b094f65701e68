package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile partitions the claim store per persona. API keys map to exactly
// one profile; every engine operation is scoped to one owner.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProfileStore interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Profile, error)
}

type ClaimStore interface {
	// Create inserts a new row. A second ACTIVE row for the same
	// (owner_id, canonical_key) fails with ErrConflict; callers retry as an
	// upsert against the winner.
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Claim, error)
	GetActiveByKey(ctx context.Context, ownerID uuid.UUID, key string) (*Claim, error)
	// ListActivePage returns ACTIVE claims ordered by creation time. Sweeps
	// use (offset, limit) as a restartable checkpoint and must not assume a
	// stable snapshot across pages.
	ListActivePage(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]Claim, error)
	ListByEventRef(ctx context.Context, ownerID uuid.UUID, eventRef string) ([]Claim, error)
	ListOwnerIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateConfidence(ctx context.Context, id uuid.UUID, confidence int) error
	UpdateImportance(ctx context.Context, id uuid.UUID, importance int) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status ClaimStatus, note string) error
	UpdateContent(ctx context.Context, id uuid.UUID, content, canonicalKey string) error
	// IncrementSupport bumps support_count by one and sets the merged
	// confidence in the same statement.
	IncrementSupport(ctx context.Context, id uuid.UUID, confidence int) error
	IncrementRetrieval(ctx context.Context, ids []uuid.UUID) error
	// Promote pins an existing claim: is_protected=true, confidence=100.
	Promote(ctx context.Context, id uuid.UUID) error
	UpdateQualityScore(ctx context.Context, id uuid.UUID, score float32) error
	// Purge hard-deletes a row. Reserved for quality-audit workflows;
	// deprecation is the default soft delete.
	Purge(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error
	FindSimilar(ctx context.Context, ownerID uuid.UUID, embedding []float32, threshold float32, limit int) ([]ClaimWithScore, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SimilarityClient locates the closest existing ACTIVE claim for
// near-duplicate detection. Implementations may be keyword-based or
// embedding-based; the consistency engine does not care which.
type SimilarityClient interface {
	NearestActive(ctx context.Context, ownerID uuid.UUID, content string) (*ClaimWithScore, error)
}

// ContradictionHeuristic decides whether two claim texts encode
// incompatible assertions. Pluggable so the keyword heuristic can be
// swapped for an embedding- or model-based one without touching the engine.
type ContradictionHeuristic interface {
	Contradicts(a, b string) bool
}

// EnsureMutable is the protected-claim guard consulted by every write path
// before mutating confidence or status.
func EnsureMutable(c *Claim, op string) error {
	if c.IsProtected {
		return &ProtectedClaimError{ID: c.ID.String(), Op: op}
	}
	return nil
}
