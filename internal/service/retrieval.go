package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Confidence and importance carry the most weight: they are the only
	// invariant-bounded signals and therefore the most trustworthy axis.
	DefaultConfidenceWeight = 0.35
	DefaultImportanceWeight = 0.35
	DefaultRecencyWeight    = 0.20
	DefaultFrequencyWeight  = 0.10

	DefaultRecencyDecay = 0.001 // per hour

	// DefaultWindowOverlapLimit prunes candidates already implied by the
	// recent conversation window.
	DefaultWindowOverlapLimit = 0.5

	DefaultContextK  = 10
	rankCandidateCap = 500
)

// RetrievalScorer ranks ACTIVE claims for context assembly.
type RetrievalScorer struct {
	ConfidenceWeight float64
	ImportanceWeight float64
	RecencyWeight    float64
	FrequencyWeight  float64
	RecencyDecay     float64
}

func NewRetrievalScorer() *RetrievalScorer {
	return &RetrievalScorer{
		ConfidenceWeight: DefaultConfidenceWeight,
		ImportanceWeight: DefaultImportanceWeight,
		RecencyWeight:    DefaultRecencyWeight,
		FrequencyWeight:  DefaultFrequencyWeight,
		RecencyDecay:     DefaultRecencyDecay,
	}
}

type ScoreBreakdown struct {
	Confidence float64 `json:"confidence"`
	Importance float64 `json:"importance"`
	Recency    float64 `json:"recency"`
	Frequency  float64 `json:"frequency"`
	Relevance  float64 `json:"relevance"`
	FinalScore float64 `json:"final_score"`
}

type ScoredClaim struct {
	domain.ClaimWithScore
	Breakdown *ScoreBreakdown `json:"score_breakdown,omitempty"`
}

func (s *RetrievalScorer) Score(claim domain.Claim, query string, now time.Time) ScoredClaim {
	confidence := float64(claim.Confidence) / float64(domain.MaxConfidence)
	importance := float64(claim.Importance) / float64(domain.MaxImportance)

	ageHours := now.Sub(claim.UpdatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	recency := math.Exp(-s.RecencyDecay * ageHours)

	frequency := math.Log1p(float64(claim.RetrievalCount)) / math.Log1p(100)
	if frequency > 1 {
		frequency = 1
	}

	relevance := KeywordJaccard(query, claim.Content)

	base := s.ConfidenceWeight*confidence +
		s.ImportanceWeight*importance +
		s.RecencyWeight*recency +
		s.FrequencyWeight*frequency
	final := base * (0.5 + 0.5*relevance)

	return ScoredClaim{
		ClaimWithScore: domain.ClaimWithScore{Claim: claim, Score: float32(final)},
		Breakdown: &ScoreBreakdown{
			Confidence: confidence,
			Importance: importance,
			Recency:    recency,
			Frequency:  frequency,
			Relevance:  relevance,
			FinalScore: final,
		},
	}
}

func (s *RetrievalScorer) ScoreAndRank(claims []domain.Claim, query string, now time.Time) []ScoredClaim {
	scored := make([]ScoredClaim, 0, len(claims))
	for _, c := range claims {
		scored = append(scored, s.Score(c, query, now))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Breakdown.FinalScore > scored[j].Breakdown.FinalScore
	})
	return scored
}

// Prune removes candidates already implied by the recent conversation
// window. Pruning runs strictly after ranking and never removes the top
// ranked claim, so a decisive fact can never be pruned into an empty
// context.
func Prune(ranked []ScoredClaim, recentWindow string, overlapLimit float64) []ScoredClaim {
	if len(ranked) == 0 || recentWindow == "" {
		return ranked
	}

	kept := make([]ScoredClaim, 1, len(ranked))
	kept[0] = ranked[0]
	for _, c := range ranked[1:] {
		if KeywordJaccard(c.Content, recentWindow) > overlapLimit {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// RetrievalService is the read path: rank, prune, and record telemetry.
// It reads ACTIVE claims lock-free; racing with a concurrent deprecation
// may return a claim deprecated microseconds later, which is acceptable.
type RetrievalService struct {
	store  domain.ClaimStore
	scorer *RetrievalScorer
	logger *zap.Logger

	WindowOverlapLimit float64
}

func NewRetrievalService(cs domain.ClaimStore, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		store:              cs,
		scorer:             NewRetrievalScorer(),
		logger:             logger,
		WindowOverlapLimit: DefaultWindowOverlapLimit,
	}
}

// Rank returns the top k ACTIVE claims for a query, highest score first.
func (s *RetrievalService) Rank(ctx context.Context, ownerID uuid.UUID, query string, k int) ([]ScoredClaim, error) {
	if k <= 0 {
		k = DefaultContextK
	}

	candidates, err := s.store.ListActivePage(ctx, ownerID, 0, rankCandidateCap)
	if err != nil {
		return nil, err
	}

	ranked := s.scorer.ScoreAndRank(candidates, query, time.Now())
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// RankForContext builds the bounded claim list handed to the generator:
// rank, prune against the conversation window, then count the retrievals.
func (s *RetrievalService) RankForContext(ctx context.Context, ownerID uuid.UUID, query, recentWindow string, k int) ([]ScoredClaim, error) {
	ranked, err := s.Rank(ctx, ownerID, query, k)
	if err != nil {
		return nil, err
	}

	pruned := Prune(ranked, recentWindow, s.WindowOverlapLimit)

	ids := make([]uuid.UUID, 0, len(pruned))
	for _, c := range pruned {
		ids = append(ids, c.ID)
	}
	if err := s.store.IncrementRetrieval(ctx, ids); err != nil {
		// Telemetry only; the context is still valid.
		s.logger.Warn("failed to record retrievals", zap.Error(err))
	}

	s.logger.Debug("context assembled",
		zap.String("owner_id", ownerID.String()),
		zap.Int("ranked", len(ranked)),
		zap.Int("pruned", len(ranked)-len(pruned)),
		zap.Int("returned", len(pruned)))

	return pruned, nil
}
