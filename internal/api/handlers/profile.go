package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/api/middleware"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/store"
	"github.com/google/uuid"
)

type ProfileHandler struct {
	store domain.ProfileStore
}

func NewProfileHandler(store domain.ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

type createProfileRequest struct {
	Name string `json:"name"`
}

type createProfileResponse struct {
	*domain.Profile
	// APIKey is returned exactly once, at creation.
	APIKey string `json:"api_key"`
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	apiKey := uuid.NewString()
	profile := &domain.Profile{
		Name:       req.Name,
		APIKeyHash: middleware.HashAPIKey(apiKey),
	}

	if err := h.store.Create(r.Context(), profile); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "profile already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, createProfileResponse{Profile: profile, APIKey: apiKey})
}
