package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// orientationAmbiguityWindow treats events within half a day of audit
	// time as neither past nor future.
	orientationAmbiguityWindow = 12 * time.Hour

	timelineSweepPageSize        = 200
	defaultTimelineSweepInterval = time.Hour
)

var futureMarkers = []string{"upcoming", "will ", "soon", "next ", "planning to", "about to", "scheduled"}
var pastMarkers = []string{"last ", "recently", "used to", "back in", "former", "previously", "wrapped up"}

type framing int

const (
	framingNone framing = iota
	framingFuture
	framingPast
)

// detectFraming reads the temporal stance a claim takes toward its event.
func detectFraming(text string) framing {
	lower := strings.ToLower(text)
	for _, m := range futureMarkers {
		if strings.Contains(lower, m) {
			return framingFuture
		}
	}
	for _, m := range pastMarkers {
		if strings.Contains(lower, m) {
			return framingPast
		}
	}
	return framingNone
}

// Orient computes where an event sits relative to now.
func Orient(eventDate *time.Time, now time.Time) domain.Orientation {
	if eventDate == nil {
		return domain.OrientationNone
	}
	delta := eventDate.Sub(now)
	if delta > orientationAmbiguityWindow {
		return domain.OrientationFuture
	}
	if delta < -orientationAmbiguityWindow {
		return domain.OrientationPast
	}
	return domain.OrientationAmbiguous
}

// TimelineAuditor flags claims whose temporal framing disagrees with where
// their event actually sits relative to audit time.
type TimelineAuditor struct {
	store  domain.ClaimStore
	logger *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTimelineAuditor(cs domain.ClaimStore, logger *zap.Logger) *TimelineAuditor {
	return &TimelineAuditor{
		store:    cs,
		logger:   logger,
		interval: defaultTimelineSweepInterval,
		stopCh:   make(chan struct{}),
	}
}

func (a *TimelineAuditor) SetInterval(d time.Duration) {
	a.interval = d
}

func (a *TimelineAuditor) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		a.logger.Info("timeline sweep started", zap.Duration("interval", a.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				a.runSweep(ctx)
				cancel()
			case <-a.stopCh:
				a.logger.Info("timeline sweep stopped")
				return
			}
		}
	}()
}

func (a *TimelineAuditor) Stop() {
	close(a.stopCh)
	a.wg.Wait()
}

func (a *TimelineAuditor) runSweep(ctx context.Context) {
	owners, err := a.store.ListOwnerIDs(ctx)
	if err != nil {
		a.logger.Error("failed to list owners for timeline sweep", zap.Error(err))
		return
	}

	for _, ownerID := range owners {
		result, err := a.Audit(ctx, ownerID, time.Now(), false)
		if err != nil {
			a.logger.Error("timeline sweep failed for owner",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err))
			continue
		}
		if len(result.Flagged) > 0 {
			a.logger.Info("timeline anomalies reconciled",
				zap.String("owner_id", ownerID.String()),
				zap.Int("flagged", len(result.Flagged)),
				zap.Int("applied", result.Applied),
				zap.Int("skipped_events", result.SkippedEvents))
		}
	}
}

// EventClaims lists the ACTIVE claims referencing one event, for reviewing
// a flagged timeline conflict.
func (a *TimelineAuditor) EventClaims(ctx context.Context, ownerID uuid.UUID, eventRef string) ([]domain.Claim, error) {
	return a.store.ListByEventRef(ctx, ownerID, eventRef)
}

// Audit runs a full pass from the beginning of the owner's claims.
func (a *TimelineAuditor) Audit(ctx context.Context, ownerID uuid.UUID, now time.Time, dryRun bool) (*domain.AuditResult, error) {
	return a.AuditFrom(ctx, ownerID, now, dryRun, 0)
}

// AuditFrom resumes an audit from a checkpoint offset. The scan is
// read-only: corrections are collected and written only after the last
// page, because the pages are offsets into the ACTIVE set and a status
// change mid-scan would shift every record behind it below the offset.
// Each correction is an independent write, so an interrupted pass leaves
// the store valid and the returned checkpoint lets the caller continue
// where it stopped. Anomalous records are counted, never fatal: the pass
// always completes.
func (a *TimelineAuditor) AuditFrom(ctx context.Context, ownerID uuid.UUID, now time.Time, dryRun bool, checkpoint int) (*domain.AuditResult, error) {
	result := &domain.AuditResult{Checkpoint: checkpoint}
	eventOrientations := make(map[string]map[domain.Orientation][]uuid.UUID)

	for {
		page, err := a.store.ListActivePage(ctx, ownerID, result.Checkpoint, timelineSweepPageSize)
		if err != nil {
			return result, err
		}

		for i := range page {
			claim := &page[i]
			result.Inspected++

			if claim.IsProtected {
				continue
			}
			if claim.EventRef == "" && claim.EventDate == nil && claim.TemporalContext == "" {
				continue
			}

			orientation := Orient(claim.EventDate, now)
			if claim.EventRef != "" && orientation != domain.OrientationNone {
				byOrientation := eventOrientations[claim.EventRef]
				if byOrientation == nil {
					byOrientation = make(map[domain.Orientation][]uuid.UUID)
					eventOrientations[claim.EventRef] = byOrientation
				}
				byOrientation[orientation] = append(byOrientation[orientation], claim.ID)
			}

			if claim.EventRef != "" && orientation == domain.OrientationNone {
				// Event with no resolvable orientation; recorded, not fatal.
				result.SkippedEvents++
				continue
			}
			if orientation == domain.OrientationAmbiguous {
				result.SkippedEvents++
				continue
			}

			flag, ok := a.checkFraming(claim, orientation)
			if !ok {
				continue
			}
			result.Flagged = append(result.Flagged, flag)
		}

		result.Checkpoint += len(page)
		if len(page) < timelineSweepPageSize {
			break
		}
	}

	if !dryRun {
		for _, flag := range result.Flagged {
			note := "timeline audit: " + string(flag.Type) + " (" + flag.Detail + ")"
			if err := a.store.UpdateStatus(ctx, flag.ClaimID, domain.StatusAmbiguous, note); err != nil {
				a.logger.Error("failed to reconcile stale claim",
					zap.String("claim_id", flag.ClaimID.String()),
					zap.Error(err))
				continue
			}
			result.Applied++
		}
	}

	// Same event, incompatible computed orientations: flag both sides but
	// leave reconciliation to a reviewer.
	for eventRef, byOrientation := range eventOrientations {
		if len(byOrientation[domain.OrientationFuture]) == 0 || len(byOrientation[domain.OrientationPast]) == 0 {
			continue
		}
		for _, orientation := range []domain.Orientation{domain.OrientationFuture, domain.OrientationPast} {
			for _, id := range byOrientation[orientation] {
				result.Flagged = append(result.Flagged, domain.TimelineFlag{
					ClaimID:     id,
					Type:        domain.ConflictInternalTimeline,
					Orientation: orientation,
					Detail:      "event " + eventRef + " has claims on both sides of now",
				})
			}
		}
	}

	return result, nil
}

func (a *TimelineAuditor) checkFraming(claim *domain.Claim, orientation domain.Orientation) (domain.TimelineFlag, bool) {
	framed := detectFraming(claim.TemporalContext + " " + claim.Content)

	switch {
	case framed == framingFuture && orientation == domain.OrientationPast:
		return domain.TimelineFlag{
			ClaimID:     claim.ID,
			Type:        domain.ConflictStaleFuture,
			Orientation: orientation,
			Detail:      "claim framed as upcoming but event date has passed",
		}, true
	case framed == framingPast && orientation == domain.OrientationFuture:
		return domain.TimelineFlag{
			ClaimID:     claim.ID,
			Type:        domain.ConflictStalePast,
			Orientation: orientation,
			Detail:      "claim framed as past but event date is ahead",
		}, true
	}
	return domain.TimelineFlag{}, false
}
