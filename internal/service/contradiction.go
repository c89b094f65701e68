package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultConflictSimilarityThreshold is the keyword-Jaccard level at
	// which two claims become contradiction candidates.
	DefaultConflictSimilarityThreshold = 0.45
	// conflictKeyPrefixTokens is the shared leading token count that marks
	// two canonical keys as covering the same subject.
	conflictKeyPrefixTokens = 2

	// ResolutionImportanceBonus is added to the surviving side's importance.
	ResolutionImportanceBonus = 5
	// DismissedImportance demotes both sides of a conflict not worth
	// arbitrating out of ranking contention.
	DismissedImportance = 1

	conflictSweepPageSize = 200
	conflictScanCap       = 2000

	defaultConflictSweepInterval = 30 * time.Minute
)

// KeywordHeuristic is the default contradiction heuristic: two claims about
// the same subject disagree when each asserts something the other does not,
// or when exactly one of them is negated.
type KeywordHeuristic struct{}

func (KeywordHeuristic) Contradicts(a, b string) bool {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return false
	}

	if setA["not"] != setB["not"] || containsNever(setA) != containsNever(setB) {
		return true
	}

	shared, onlyA, onlyB := 0, 0, 0
	for t := range setA {
		if setB[t] {
			shared++
		} else {
			onlyA++
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB++
		}
	}

	// Mutually exclusive categorical assertions: same subject tokens, each
	// side with its own divergent tail.
	return shared >= 2 && onlyA >= 1 && onlyB >= 1
}

func containsNever(set map[string]bool) bool {
	return set["never"]
}

// ContradictionService detects and resolves conflicting claims. Detection
// is a paginated scan that never holds a lock; resolution is a per-record
// transaction, so a crash mid-sweep leaves the store valid.
type ContradictionService struct {
	store     domain.ClaimStore
	heuristic domain.ContradictionHeuristic
	logger    *zap.Logger

	SimilarityThreshold float64

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewContradictionService(cs domain.ClaimStore, heuristic domain.ContradictionHeuristic, logger *zap.Logger) *ContradictionService {
	if heuristic == nil {
		heuristic = KeywordHeuristic{}
	}
	return &ContradictionService{
		store:               cs,
		heuristic:           heuristic,
		logger:              logger,
		SimilarityThreshold: DefaultConflictSimilarityThreshold,
		interval:            defaultConflictSweepInterval,
		stopCh:              make(chan struct{}),
	}
}

func (s *ContradictionService) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *ContradictionService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("contradiction sweep started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				s.runSweep(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("contradiction sweep stopped")
				return
			}
		}
	}()
}

func (s *ContradictionService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ContradictionService) runSweep(ctx context.Context) {
	owners, err := s.store.ListOwnerIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list owners for contradiction sweep", zap.Error(err))
		return
	}

	for _, ownerID := range owners {
		pairs, err := s.FindConflicts(ctx, ownerID)
		if err != nil {
			s.logger.Error("contradiction sweep failed for owner",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err))
			continue
		}
		if len(pairs) > 0 {
			s.logger.Info("contradictions detected",
				zap.String("owner_id", ownerID.String()),
				zap.Int("pairs", len(pairs)))
		}
	}
}

// FindConflicts pairs ACTIVE claims that cover the same subject but encode
// incompatible assertions. Protected claims are never candidates on either
// side. Pairs are computed, not persisted; the caller consumes them with a
// resolution decision.
func (s *ContradictionService) FindConflicts(ctx context.Context, ownerID uuid.UUID) ([]domain.ContradictionPair, error) {
	var candidates []domain.Claim
	for offset := 0; offset < conflictScanCap; offset += conflictSweepPageSize {
		page, err := s.store.ListActivePage(ctx, ownerID, offset, conflictSweepPageSize)
		if err != nil {
			return nil, err
		}
		for _, c := range page {
			if c.IsProtected {
				continue
			}
			candidates = append(candidates, c)
		}
		if len(page) < conflictSweepPageSize {
			break
		}
	}

	var pairs []domain.ContradictionPair
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]

			reason, related := s.related(a, b)
			if !related {
				continue
			}
			if !s.heuristic.Contradicts(a.Content, b.Content) {
				continue
			}
			pairs = append(pairs, domain.ContradictionPair{ClaimA: a, ClaimB: b, Reason: reason})
		}
	}
	return pairs, nil
}

func (s *ContradictionService) related(a, b domain.Claim) (domain.ConflictReason, bool) {
	if keyPrefixOverlap(a.CanonicalKey, b.CanonicalKey, conflictKeyPrefixTokens) {
		return domain.ConflictKeyPrefix, true
	}
	if KeywordJaccard(a.Content, b.Content) > s.SimilarityThreshold {
		return domain.ConflictSimilarity, true
	}
	return "", false
}

// Resolve applies a reviewer decision: the winner gains importance, the
// loser is deprecated. Re-resolving an already-resolved pair is a no-op
// because concurrent reviewers may submit the same decision.
func (s *ContradictionService) Resolve(ctx context.Context, ownerID, winnerID, loserID uuid.UUID) error {
	winner, err := s.store.GetByID(ctx, winnerID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClaimNotFound
		}
		return err
	}
	loser, err := s.store.GetByID(ctx, loserID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClaimNotFound
		}
		return err
	}

	if loser.Status == domain.StatusDeprecated {
		return nil
	}
	if err := domain.EnsureMutable(loser, "resolve as loser"); err != nil {
		return err
	}

	bumped := winner.Importance + ResolutionImportanceBonus
	if bumped > domain.MaxImportance {
		bumped = domain.MaxImportance
	}
	if bumped != winner.Importance {
		if err := s.store.UpdateImportance(ctx, winnerID, bumped); err != nil {
			return err
		}
	}

	note := "deprecated by conflict resolution in favor of " + winnerID.String()
	if err := s.store.UpdateStatus(ctx, loserID, domain.StatusDeprecated, note); err != nil {
		return err
	}

	s.logger.Info("conflict resolved",
		zap.String("owner_id", ownerID.String()),
		zap.String("winner_id", winnerID.String()),
		zap.String("loser_id", loserID.String()))
	return nil
}

// Dismiss marks a conflict as not worth arbitrating: both sides drop to
// minimum importance but stay ACTIVE and unresolved.
func (s *ContradictionService) Dismiss(ctx context.Context, ownerID, idA, idB uuid.UUID) error {
	for _, id := range []uuid.UUID{idA, idB} {
		claim, err := s.store.GetByID(ctx, id, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrClaimNotFound
			}
			return err
		}
		if err := domain.EnsureMutable(claim, "dismiss"); err != nil {
			return err
		}
		if claim.Importance == DismissedImportance {
			continue
		}
		if err := s.store.UpdateImportance(ctx, id, DismissedImportance); err != nil {
			return err
		}
	}

	s.logger.Info("conflict dismissed",
		zap.String("owner_id", ownerID.String()),
		zap.String("claim_a", idA.String()),
		zap.String("claim_b", idB.String()))
	return nil
}
