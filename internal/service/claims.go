package service

import (
	"context"
	"errors"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrClaimNotFound   = errors.New("claim not found")
	ErrContentEmpty    = errors.New("content is required")
	ErrOwnerIDMissing  = errors.New("owner_id is required")
	ErrInvalidKind     = errors.New("invalid claim kind")
	ErrInvalidSource   = errors.New("invalid source")
	ErrDuplicateKey    = errors.New("another active claim already holds this canonical key")
	ErrUpsertRaceLost  = errors.New("upsert retries exhausted")
)

const (
	// DefaultNearDuplicateThreshold is the similarity above which a new
	// claim is treated as a merge candidate instead of a silent duplicate.
	DefaultNearDuplicateThreshold = 0.82
	// upsertMaxAttempts bounds retry-as-upsert under insert races.
	upsertMaxAttempts = 3

	DefaultImportance = 50
	DefaultConfidence = 70
)

// UpsertInput is the write-path contract with extraction collaborators: raw
// text plus provenance, with the volatility signal passed explicitly.
type UpsertInput struct {
	Content         string
	Kind            domain.ClaimKind
	ParentID        *uuid.UUID
	Source          domain.Source
	SourceID        string
	Importance      int
	Confidence      int
	Volatility      int
	TemporalContext string
	EventRef        string
	EventDate       *time.Time
}

// UpsertResult reports what the engine did with the claim.
type UpsertResult struct {
	Claim *domain.Claim `json:"claim"`
	// Merged is true when the claim reaffirmed an existing record instead
	// of creating a new row.
	Merged bool `json:"merged"`
	// ConflictSuspected is true when a near-duplicate materially disagreed;
	// the claim was stored and left for the contradiction sweep to pair.
	ConflictSuspected bool `json:"conflict_suspected"`
	// Normalized is true when an out-of-invariant input value was corrected.
	Normalized bool `json:"normalized"`
}

type ClaimService struct {
	store      domain.ClaimStore
	confidence *ConfidenceEngine
	lanes      *LaneClassifier
	similarity domain.SimilarityClient
	heuristic  domain.ContradictionHeuristic
	embedder   domain.EmbeddingClient
	logger     *zap.Logger

	NearDuplicateThreshold float64
}

func NewClaimService(
	cs domain.ClaimStore,
	confidence *ConfidenceEngine,
	lanes *LaneClassifier,
	similarity domain.SimilarityClient,
	heuristic domain.ContradictionHeuristic,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		store:                  cs,
		confidence:             confidence,
		lanes:                  lanes,
		similarity:             similarity,
		heuristic:              heuristic,
		logger:                 logger,
		NearDuplicateThreshold: DefaultNearDuplicateThreshold,
	}
}

// SetEmbedder wires the external embedding collaborator. Without one,
// claims are stored without vectors and near-duplicate detection falls back
// to whatever the similarity client can do.
func (s *ClaimService) SetEmbedder(ec domain.EmbeddingClient) {
	s.embedder = ec
}

// Upsert is the single write path for extracted claims. Exact canonical-key
// matches reaffirm the existing record; near-duplicates either merge or are
// stored for the contradiction sweep; everything else inserts. Insert races
// on the same new key are retried as upserts against the winner and never
// surface to the caller.
func (s *ClaimService) Upsert(ctx context.Context, ownerID uuid.UUID, in UpsertInput) (*UpsertResult, error) {
	if in.Content == "" {
		return nil, ErrContentEmpty
	}
	if ownerID == uuid.Nil {
		return nil, ErrOwnerIDMissing
	}
	if in.Kind == "" {
		in.Kind = domain.ClaimKindFact
	}
	if !domain.ValidClaimKind(string(in.Kind)) {
		return nil, ErrInvalidKind
	}
	if in.Source == "" {
		in.Source = domain.SourceConversation
	}
	if !domain.ValidSource(string(in.Source)) {
		return nil, ErrInvalidSource
	}

	key := CanonicalKey(in.Content)

	for attempt := 0; attempt < upsertMaxAttempts; attempt++ {
		// Exact key match: evidence convergence, not a new row.
		existing, err := s.store.GetActiveByKey(ctx, ownerID, key)
		if err == nil {
			return s.merge(ctx, existing)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		result, err := s.insertOrRoute(ctx, ownerID, key, in)
		if errors.Is(err, store.ErrConflict) {
			// Lost the insert race; the winner's row now exists, so the
			// next iteration merges into it.
			s.logger.Debug("upsert race lost, retrying as merge",
				zap.String("owner_id", ownerID.String()),
				zap.String("canonical_key", key),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, ErrUpsertRaceLost
}

func (s *ClaimService) merge(ctx context.Context, existing *domain.Claim) (*UpsertResult, error) {
	merged := NextBoostStep(existing.Confidence)
	if existing.IsProtected {
		merged = domain.MaxConfidence
	}
	if err := s.store.IncrementSupport(ctx, existing.ID, merged); err != nil {
		return nil, err
	}
	existing.SupportCount++
	existing.Confidence = merged

	s.logger.Debug("claim reaffirmed",
		zap.String("claim_id", existing.ID.String()),
		zap.Int("support_count", existing.SupportCount),
		zap.Int("confidence", existing.Confidence))

	return &UpsertResult{Claim: existing, Merged: true}, nil
}

func (s *ClaimService) insertOrRoute(ctx context.Context, ownerID uuid.UUID, key string, in UpsertInput) (*UpsertResult, error) {
	conflictSuspected := false

	if s.similarity != nil {
		near, err := s.similarity.NearestActive(ctx, ownerID, in.Content)
		if err != nil {
			s.logger.Warn("near-duplicate lookup failed, inserting without dedup", zap.Error(err))
		} else if near != nil && float64(near.Score) >= s.NearDuplicateThreshold {
			if s.heuristic != nil && s.heuristic.Contradicts(in.Content, near.Content) {
				// Materially disagreeing near-duplicate: store the claim
				// and let the contradiction sweep pair the two.
				conflictSuspected = true
				s.logger.Info("near-duplicate disagrees, routing to contradiction sweep",
					zap.String("existing_id", near.ID.String()),
					zap.Float64("similarity", float64(near.Score)))
			} else {
				return s.merge(ctx, &near.Claim)
			}
		}
	}

	claim, normalized, err := s.buildClaim(ctx, ownerID, key, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, claim); err != nil {
		return nil, err
	}

	return &UpsertResult{Claim: claim, ConflictSuspected: conflictSuspected, Normalized: normalized}, nil
}

func (s *ClaimService) buildClaim(ctx context.Context, ownerID uuid.UUID, key string, in UpsertInput) (*domain.Claim, bool, error) {
	importance := in.Importance
	if importance == 0 {
		importance = DefaultImportance
	}
	confidence := in.Confidence
	if confidence == 0 {
		confidence = DefaultConfidence
	}

	claim := &domain.Claim{
		OwnerID:         ownerID,
		Kind:            in.Kind,
		ParentID:        in.ParentID,
		Content:         in.Content,
		Importance:      importance,
		Confidence:      confidence,
		Status:          domain.StatusActive,
		CanonicalKey:    key,
		SupportCount:    1,
		Source:          in.Source,
		SourceID:        in.SourceID,
		TemporalContext: in.TemporalContext,
		EventRef:        in.EventRef,
		EventDate:       in.EventDate,
	}

	lane, err := s.classifyLane(ctx, ownerID, claim, in.Volatility)
	if err != nil {
		return nil, false, err
	}
	claim.Lane = lane

	normalized := s.confidence.ClampOnWrite(claim)

	if s.embedder != nil {
		embedding, err := s.embedder.Embed(ctx, in.Content)
		if err != nil {
			s.logger.Warn("embedding failed, storing claim without vector", zap.Error(err))
		} else {
			claim.Embedding = embedding
		}
	}

	return claim, normalized, nil
}

func (s *ClaimService) classifyLane(ctx context.Context, ownerID uuid.UUID, claim *domain.Claim, volatility int) (domain.Lane, error) {
	// Atomics inherit the lane of the story that produced them.
	if claim.Kind == domain.ClaimKindAtomic && claim.ParentID != nil {
		parent, err := s.store.GetByID(ctx, *claim.ParentID, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Parent story may have been purged; the atomic outlives it.
				return s.lanes.Classify(claim.Kind, volatility), nil
			}
			return "", err
		}
		return parent.Lane, nil
	}
	return s.lanes.Classify(claim.Kind, volatility), nil
}

// AddProtected pins a core claim: confidence 100 unconditionally, immune to
// deprecation, contradiction candidacy, and timeline flagging. If an ACTIVE
// claim already holds the canonical key it is promoted in place.
func (s *ClaimService) AddProtected(ctx context.Context, ownerID uuid.UUID, content string, importance int) (*domain.Claim, error) {
	if content == "" {
		return nil, ErrContentEmpty
	}
	if ownerID == uuid.Nil {
		return nil, ErrOwnerIDMissing
	}

	// Omitted importance means a core identity claim; default it before
	// normalization maps zero to the floor.
	if importance == 0 {
		importance = domain.MaxImportance
	}

	key := CanonicalKey(content)
	claim := &domain.Claim{
		OwnerID:      ownerID,
		Kind:         domain.ClaimKindFact,
		Content:      content,
		Importance:   NormalizeImportance(importance),
		Confidence:   domain.MaxConfidence,
		IsProtected:  true,
		Lane:         domain.LaneCanon,
		Status:       domain.StatusActive,
		CanonicalKey: key,
		SupportCount: 1,
		Source:       domain.SourceManual,
	}

	if s.embedder != nil {
		if embedding, err := s.embedder.Embed(ctx, content); err == nil {
			claim.Embedding = embedding
		}
	}

	err := s.store.Create(ctx, claim)
	if errors.Is(err, store.ErrConflict) {
		existing, getErr := s.store.GetActiveByKey(ctx, ownerID, key)
		if getErr != nil {
			return nil, getErr
		}
		if err := s.store.Promote(ctx, existing.ID); err != nil {
			return nil, err
		}
		existing.IsProtected = true
		existing.Confidence = domain.MaxConfidence
		s.logger.Info("existing claim promoted to protected",
			zap.String("claim_id", existing.ID.String()))
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *ClaimService) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Claim, error) {
	claim, err := s.store.GetByID(ctx, id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrClaimNotFound
	}
	return claim, err
}

// Edit rewrites a claim's content through the explicit edit path and
// re-derives its canonical key. Protected claims are editable here: this is
// the protected-claim management surface, not an automated write path.
func (s *ClaimService) Edit(ctx context.Context, id, ownerID uuid.UUID, content string) (*domain.Claim, error) {
	if content == "" {
		return nil, ErrContentEmpty
	}
	claim, err := s.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	key := CanonicalKey(content)
	if err := s.store.UpdateContent(ctx, id, content, key); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	claim.Content = content
	claim.CanonicalKey = key
	return claim, nil
}

// SetQuality records a reviewer's quality verdict in [0,1]. Quality is
// audit telemetry, not a ranking signal, so protected claims accept it too.
func (s *ClaimService) SetQuality(ctx context.Context, id, ownerID uuid.UUID, score float32) error {
	if score < 0 || score > 1 {
		return &domain.ValidationError{Field: "quality_score", Value: score}
	}
	if _, err := s.GetByID(ctx, id, ownerID); err != nil {
		return err
	}
	return s.store.UpdateQualityScore(ctx, id, score)
}

// Purge hard-deletes a claim. Reserved for quality-audit workflows.
func (s *ClaimService) Purge(ctx context.Context, id, ownerID uuid.UUID) error {
	err := s.store.Purge(ctx, id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrClaimNotFound
	}
	return err
}
