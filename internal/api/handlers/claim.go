package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/api/middleware"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ClaimHandler struct {
	svc        *service.ClaimService
	confidence *service.ConfidenceEngine
}

func NewClaimHandler(svc *service.ClaimService, confidence *service.ConfidenceEngine) *ClaimHandler {
	return &ClaimHandler{svc: svc, confidence: confidence}
}

type upsertClaimRequest struct {
	Content         string     `json:"content"`
	Kind            string     `json:"kind,omitempty"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty"`
	Source          string     `json:"source,omitempty"`
	SourceID        string     `json:"source_id,omitempty"`
	Importance      int        `json:"importance,omitempty"`
	Confidence      int        `json:"confidence,omitempty"`
	Volatility      int        `json:"volatility,omitempty"`
	TemporalContext string     `json:"temporal_context,omitempty"`
	EventRef        string     `json:"event_ref,omitempty"`
	EventDate       *time.Time `json:"event_date,omitempty"`
}

func (h *ClaimHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req upsertClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Upsert(r.Context(), profile.ID, service.UpsertInput{
		Content:         req.Content,
		Kind:            domain.ClaimKind(req.Kind),
		ParentID:        req.ParentID,
		Source:          domain.Source(req.Source),
		SourceID:        req.SourceID,
		Importance:      req.Importance,
		Confidence:      req.Confidence,
		Volatility:      req.Volatility,
		TemporalContext: req.TemporalContext,
		EventRef:        req.EventRef,
		EventDate:       req.EventDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentEmpty),
			errors.Is(err, service.ErrOwnerIDMissing),
			errors.Is(err, service.ErrInvalidKind),
			errors.Is(err, service.ErrInvalidSource):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to upsert claim")
		}
		return
	}

	status := http.StatusCreated
	if result.Merged {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

type addProtectedRequest struct {
	Content    string `json:"content"`
	Importance int    `json:"importance,omitempty"`
}

func (h *ClaimHandler) AddProtected(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addProtectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.svc.AddProtected(r.Context(), profile.ID, req.Content, req.Importance)
	if err != nil {
		if errors.Is(err, service.ErrContentEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add protected claim")
		return
	}

	writeJSON(w, http.StatusCreated, claim)
}

func (h *ClaimHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := h.svc.GetByID(r.Context(), id, profile.ID)
	if err != nil {
		if errors.Is(err, service.ErrClaimNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get claim")
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

func (h *ClaimHandler) Boost(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := h.confidence.Boost(r.Context(), id, profile.ID)
	if err != nil {
		writeStoreError(w, err, "failed to boost claim")
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

type deprecateRequest struct {
	Note string `json:"note,omitempty"`
}

func (h *ClaimHandler) Deprecate(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req deprecateRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.confidence.Deprecate(r.Context(), id, profile.ID, req.Note); err != nil {
		writeStoreError(w, err, "failed to deprecate claim")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deprecated"})
}

type editClaimRequest struct {
	Content string `json:"content"`
}

func (h *ClaimHandler) Edit(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req editClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.svc.Edit(r.Context(), id, profile.ID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentEmpty):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClaimNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDuplicateKey):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to edit claim")
		}
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

type setQualityRequest struct {
	Score float32 `json:"score"`
}

func (h *ClaimHandler) SetQuality(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req setQualityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetQuality(r.Context(), id, profile.ID, req.Score); err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.Is(err, service.ErrClaimNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to set quality score")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *ClaimHandler) Purge(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	if err := h.svc.Purge(r.Context(), id, profile.ID); err != nil {
		if errors.Is(err, service.ErrClaimNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to purge claim")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

// writeStoreError maps guard and lookup failures. A ProtectedClaimError is
// a rejection, distinct from not-found and from internal failures.
func writeStoreError(w http.ResponseWriter, err error, fallback string) {
	var protectedErr *domain.ProtectedClaimError
	switch {
	case errors.As(err, &protectedErr):
		writeError(w, http.StatusConflict, protectedErr.Error())
	case errors.Is(err, service.ErrClaimNotFound):
		writeError(w, http.StatusNotFound, "claim not found")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
