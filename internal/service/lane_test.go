package service

import (
	"testing"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
)

func TestLaneClassifier(t *testing.T) {
	l := NewLaneClassifier()

	cases := []struct {
		name       string
		kind       domain.ClaimKind
		volatility int
		want       domain.Lane
	}{
		{"stable fact", domain.ClaimKindFact, 10, domain.LaneCanon},
		{"volatile fact stays canon", domain.ClaimKindFact, 95, domain.LaneCanon},
		{"stable story", domain.ClaimKindStory, 50, domain.LaneCanon},
		{"volatile story", domain.ClaimKindStory, 90, domain.LaneRumor},
		{"volatile atomic", domain.ClaimKindAtomic, 90, domain.LaneRumor},
		{"story at threshold stays canon", domain.ClaimKindStory, 70, domain.LaneCanon},
		{"story just over threshold", domain.ClaimKindStory, 71, domain.LaneRumor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := l.Classify(tc.kind, tc.volatility); got != tc.want {
				t.Errorf("Classify(%s, %d) = %s, want %s", tc.kind, tc.volatility, got, tc.want)
			}
		})
	}
}
