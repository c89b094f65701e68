package service

import (
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
)

// DefaultVolatilityThreshold is the volatility level above which narrative
// claims land in the rumor lane.
const DefaultVolatilityThreshold = 70

// LaneClassifier assigns truth lanes from the externally supplied
// volatility signal. Volatility is always an explicit argument; the engine
// holds no ambient volatility state.
type LaneClassifier struct {
	VolatilityThreshold int
}

func NewLaneClassifier() *LaneClassifier {
	return &LaneClassifier{VolatilityThreshold: DefaultVolatilityThreshold}
}

// Classify maps a claim kind and a volatility level (0-100) to a lane.
// Stories born under high volatility are rumors; everything else is canon.
// Atomic inheritance from a parent story is the caller's concern, since it
// needs a store lookup.
func (l *LaneClassifier) Classify(kind domain.ClaimKind, volatility int) domain.Lane {
	if kind == domain.ClaimKindStory || kind == domain.ClaimKindAtomic {
		if volatility > l.VolatilityThreshold {
			return domain.LaneRumor
		}
	}
	return domain.LaneCanon
}
