package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/api/middleware"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/service"
)

type RetrievalHandler struct {
	svc *service.RetrievalService
}

func NewRetrievalHandler(svc *service.RetrievalService) *RetrievalHandler {
	return &RetrievalHandler{svc: svc}
}

type contextRequest struct {
	Query        string `json:"query"`
	RecentWindow string `json:"recent_window,omitempty"`
	K            int    `json:"k,omitempty"`
}

type contextResponse struct {
	Claims []service.ScoredClaim `json:"claims"`
	Count  int                   `json:"count"`
}

// Context assembles the bounded claim list for the downstream generator.
func (h *RetrievalHandler) Context(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	claims, err := h.svc.RankForContext(r.Context(), profile.ID, req.Query, req.RecentWindow, req.K)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to assemble context")
		return
	}

	writeJSON(w, http.StatusOK, contextResponse{Claims: claims, Count: len(claims)})
}
