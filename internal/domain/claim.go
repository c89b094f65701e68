package domain

import (
	"time"

	"github.com/google/uuid"
)

type ClaimKind string

const (
	ClaimKindFact   ClaimKind = "FACT"
	ClaimKindStory  ClaimKind = "STORY"
	ClaimKindAtomic ClaimKind = "ATOMIC"
)

func ValidClaimKind(k string) bool {
	switch ClaimKind(k) {
	case ClaimKindFact, ClaimKindStory, ClaimKindAtomic:
		return true
	}
	return false
}

type ClaimStatus string

const (
	StatusActive     ClaimStatus = "ACTIVE"
	StatusDeprecated ClaimStatus = "DEPRECATED"
	StatusAmbiguous  ClaimStatus = "AMBIGUOUS"
)

func ValidClaimStatus(s string) bool {
	switch ClaimStatus(s) {
	case StatusActive, StatusDeprecated, StatusAmbiguous:
		return true
	}
	return false
}

type Lane string

const (
	LaneCanon     Lane = "CANON"
	LaneRumor     Lane = "RUMOR"
	LaneAmbiguous Lane = "AMBIGUOUS"
)

func ValidLane(l string) bool {
	switch Lane(l) {
	case LaneCanon, LaneRumor, LaneAmbiguous:
		return true
	}
	return false
}

// Source identifies which extraction pipeline produced a claim. Everything
// except manual and user entry is treated as automated extraction and is
// subject to the auto-extraction confidence ceiling.
type Source string

const (
	SourceConversation Source = "conversation"
	SourceDocument     Source = "document"
	SourcePodcast      Source = "podcast"
	SourceRSS          Source = "rss"
	SourceManual       Source = "manual"
	SourceUser         Source = "user"
)

func ValidSource(s string) bool {
	switch Source(s) {
	case SourceConversation, SourceDocument, SourcePodcast, SourceRSS, SourceManual, SourceUser:
		return true
	}
	return false
}

// Automated reports whether claims from this source were machine-extracted
// rather than entered by a human.
func (s Source) Automated() bool {
	return s != SourceManual && s != SourceUser
}

const (
	MinImportance = 1
	MaxImportance = 100
	MinConfidence = 1
	MaxConfidence = 100
)

// Claim is one stored assertion about a persona. Importance and Confidence
// hold 1..100 at all times; enforcement happens on every write path, never
// at read time.
type Claim struct {
	ID             uuid.UUID      `json:"id"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	Kind           ClaimKind      `json:"kind"`
	ParentID       *uuid.UUID     `json:"parent_id,omitempty"` // weak back-reference, ATOMIC -> STORY
	Content        string         `json:"content"`
	Importance     int            `json:"importance"`
	Confidence     int            `json:"confidence"`
	IsProtected    bool           `json:"is_protected"`
	Lane           Lane           `json:"lane"`
	Status         ClaimStatus    `json:"status"`
	CanonicalKey   string         `json:"canonical_key"`
	SupportCount   int            `json:"support_count"`
	Source         Source         `json:"source"`
	SourceID       string         `json:"source_id,omitempty"`
	TemporalContext string        `json:"temporal_context,omitempty"`
	EventRef       string         `json:"event_ref,omitempty"`
	EventDate      *time.Time     `json:"event_date,omitempty"`
	RetrievalCount int            `json:"retrieval_count"`
	QualityScore   float32        `json:"quality_score"`
	Embedding      []float32      `json:"-"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Note           string         `json:"note,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ClaimWithScore decorates a claim with a retrieval score.
type ClaimWithScore struct {
	Claim
	Score float32 `json:"score"`
}

// ConflictReason classifies why two claims were paired by the detector.
type ConflictReason string

const (
	ConflictKeyPrefix  ConflictReason = "key_prefix_overlap"
	ConflictSimilarity ConflictReason = "keyword_similarity"
)

// ContradictionPair is computed, consumed by a resolution call, and never
// persisted as its own entity.
type ContradictionPair struct {
	ClaimA Claim          `json:"claim_a"`
	ClaimB Claim          `json:"claim_b"`
	Reason ConflictReason `json:"reason"`
}

// Orientation is the computed temporal position of an event-referencing
// claim relative to audit time.
type Orientation string

const (
	OrientationFuture    Orientation = "FUTURE"
	OrientationPast      Orientation = "PAST"
	OrientationAmbiguous Orientation = "AMBIGUOUS"
	OrientationNone      Orientation = "NONE"
)

// TimelineConflictType classifies a framing/orientation mismatch.
type TimelineConflictType string

const (
	ConflictStaleFuture      TimelineConflictType = "STALE_FUTURE"
	ConflictStalePast        TimelineConflictType = "STALE_PAST"
	ConflictInternalTimeline TimelineConflictType = "INTERNAL_CONFLICT"
)

// TimelineFlag is one anomaly found by a timeline audit pass.
type TimelineFlag struct {
	ClaimID     uuid.UUID            `json:"claim_id"`
	Type        TimelineConflictType `json:"type"`
	Orientation Orientation          `json:"orientation"`
	Detail      string               `json:"detail"`
}

// AuditResult summarizes one timeline audit pass. Anomalies are recorded
// here rather than surfaced as errors so a pass always completes.
type AuditResult struct {
	Inspected     int            `json:"inspected"`
	Flagged       []TimelineFlag `json:"flagged"`
	Applied       int            `json:"applied"`
	SkippedEvents int            `json:"skipped_events"`
	Checkpoint    int            `json:"checkpoint"`
}
