package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/api/middleware"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuditHandler struct {
	auditor *service.TimelineAuditor
}

func NewAuditHandler(auditor *service.TimelineAuditor) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

// RunTimeline triggers a timeline audit for the authenticated profile.
// Query params: dry_run (default true), checkpoint (resume offset).
func (h *AuditHandler) RunTimeline(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	dryRun := true
	if v := r.URL.Query().Get("dry_run"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dry_run value")
			return
		}
		dryRun = parsed
	}

	checkpoint := 0
	if v := r.URL.Query().Get("checkpoint"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid checkpoint value")
			return
		}
		checkpoint = parsed
	}

	result, err := h.auditor.AuditFrom(r.Context(), profile.ID, time.Now(), dryRun, checkpoint)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "timeline audit failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type eventClaimsResponse struct {
	EventRef string         `json:"event_ref"`
	Claims   []domain.Claim `json:"claims"`
	Count    int            `json:"count"`
}

// EventClaims lists the ACTIVE claims referencing one event, so a reviewer
// can inspect a flagged timeline conflict in full.
func (h *AuditHandler) EventClaims(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	eventRef := chi.URLParam(r, "ref")
	if eventRef == "" {
		writeError(w, http.StatusBadRequest, "event ref is required")
		return
	}

	claims, err := h.auditor.EventClaims(r.Context(), profile.ID, eventRef)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list event claims")
		return
	}

	writeJSON(w, http.StatusOK, eventClaimsResponse{EventRef: eventRef, Claims: claims, Count: len(claims)})
}
