package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/talenthub/prefhub/internal/adapter/api/middleware"
	"github.com/talenthub/prefhub/internal/domain"
	"github.com/talenthub/prefhub/internal/usecase"
)

// PreferenceHandler exposes the resolved preference record and the per-field
// mutators over HTTP.
type PreferenceHandler struct {
	preferences *usecase.PreferenceUseCase
	users       domain.UserRepository
	logger      *slog.Logger
}

func NewPreferenceHandler(preferences *usecase.PreferenceUseCase, users domain.UserRepository, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		preferences: preferences,
		users:       users,
		logger:      logger.With("component", "preference_handler"),
	}
}

// valueRequest is the body of the single-field mutators.
type valueRequest struct {
	Value string `json:"value"`
}

// GetEffective handles GET /api/v1/preferences.
func (h *PreferenceHandler) GetEffective(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// SetTheme handles PUT /api/v1/preferences/theme.
func (h *PreferenceHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}

	theme := domain.Theme(value)
	switch theme {
	case domain.ThemeLight, domain.ThemeDark, domain.ThemeSystem:
	default:
		http.Error(w, "unknown theme", http.StatusUnprocessableEntity)
		return
	}

	h.preferences.SetTheme(r.Context(), theme)
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// SetLanguage handles PUT /api/v1/preferences/language. A language outside the
// tenant's allowed set is refused without touching the stored record.
func (h *PreferenceHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}

	if !h.preferences.SetLanguage(r.Context(), value) {
		http.Error(w, "language not permitted for this tenant", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// SetTimezone handles PUT /api/v1/preferences/timezone.
func (h *PreferenceHandler) SetTimezone(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}

	h.preferences.SetTimezone(r.Context(), value)
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// SetDateFormat handles PUT /api/v1/preferences/date-format.
func (h *PreferenceHandler) SetDateFormat(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}

	h.preferences.SetDateFormat(r.Context(), value)
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// SetTimeFormat handles PUT /api/v1/preferences/time-format.
func (h *PreferenceHandler) SetTimeFormat(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}

	format := domain.TimeFormat(value)
	if format != domain.TimeFormat12h && format != domain.TimeFormat24h {
		http.Error(w, "unknown time format", http.StatusUnprocessableEntity)
		return
	}

	h.preferences.SetTimeFormat(r.Context(), format)
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// PatchNotifications handles PATCH /api/v1/preferences/notifications. The body
// is a partial notification record; absent fields keep their stored values.
func (h *PreferenceHandler) PatchNotifications(w http.ResponseWriter, r *http.Request) {
	var partial domain.UserNotificationPreference
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.preferences.SetNotifications(r.Context(), partial)
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// Reset handles DELETE /api/v1/preferences. It removes the user layer so
// resolution falls through to tenant and system values.
func (h *PreferenceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.preferences.ResetToDefaults(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Hydrate handles POST /api/v1/preferences/hydrate. It pulls the server-side
// snapshot for the current user and overwrites the stored layer with it.
func (h *PreferenceHandler) Hydrate(w http.ResponseWriter, r *http.Request) {
	if err := h.preferences.Hydrate(r.Context()); err != nil {
		h.logger.Error("failed to hydrate preferences from remote", "error", err)
		http.Error(w, "upstream preference service unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, h.preferences.Effective(r.Context()))
}

// Me handles GET /api/v1/me.
func (h *PreferenceHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.FindByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load user", "user_id", id.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func decodeValue(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	if req.Value == "" {
		http.Error(w, "value is required", http.StatusBadRequest)
		return "", false
	}
	return req.Value, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
