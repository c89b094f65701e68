package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/api/middleware"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/service"
	"github.com/google/uuid"
)

type ConflictHandler struct {
	svc *service.ContradictionService
}

func NewConflictHandler(svc *service.ContradictionService) *ConflictHandler {
	return &ConflictHandler{svc: svc}
}

type listConflictsResponse struct {
	Pairs []domain.ContradictionPair `json:"pairs"`
	Count int                        `json:"count"`
}

func (h *ConflictHandler) List(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pairs, err := h.svc.FindConflicts(r.Context(), profile.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to find conflicts")
		return
	}

	writeJSON(w, http.StatusOK, listConflictsResponse{Pairs: pairs, Count: len(pairs)})
}

type resolveConflictRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
	LoserID  uuid.UUID `json:"loser_id"`
}

func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req resolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WinnerID == uuid.Nil || req.LoserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "winner_id and loser_id are required")
		return
	}

	if err := h.svc.Resolve(r.Context(), profile.ID, req.WinnerID, req.LoserID); err != nil {
		writeResolutionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

type dismissConflictRequest struct {
	ClaimA uuid.UUID `json:"claim_a"`
	ClaimB uuid.UUID `json:"claim_b"`
}

func (h *ConflictHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dismissConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClaimA == uuid.Nil || req.ClaimB == uuid.Nil {
		writeError(w, http.StatusBadRequest, "claim_a and claim_b are required")
		return
	}

	if err := h.svc.Dismiss(r.Context(), profile.ID, req.ClaimA, req.ClaimB); err != nil {
		writeResolutionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

func writeResolutionError(w http.ResponseWriter, err error) {
	var protectedErr *domain.ProtectedClaimError
	switch {
	case errors.As(err, &protectedErr):
		writeError(w, http.StatusConflict, protectedErr.Error())
	case errors.Is(err, service.ErrClaimNotFound):
		writeError(w, http.StatusNotFound, "claim not found")
	default:
		writeError(w, http.StatusInternalServerError, "failed to apply resolution")
	}
}
