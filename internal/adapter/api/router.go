package api

import (
	"log/slog"
	"net/http"

	"github.com/talenthub/prefhub/internal/adapter/api/handler"
	"github.com/talenthub/prefhub/internal/adapter/api/middleware"
	"github.com/talenthub/prefhub/internal/domain"
	"github.com/talenthub/prefhub/internal/pkg/config"
	"github.com/talenthub/prefhub/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the preference
// service.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	users domain.UserRepository,
	preferences *usecase.PreferenceUseCase,
	stream *handler.PreferenceStreamBroker,
) http.Handler {
	mux := http.NewServeMux()

	prefHandler := handler.NewPreferenceHandler(preferences, users, logger)

	authMiddleware := middleware.Auth(cfg.JWTSecret, logger)

	mux.Handle("GET /api/v1/preferences", authMiddleware(http.HandlerFunc(prefHandler.GetEffective)))
	mux.Handle("DELETE /api/v1/preferences", authMiddleware(http.HandlerFunc(prefHandler.Reset)))
	mux.Handle("PUT /api/v1/preferences/theme", authMiddleware(http.HandlerFunc(prefHandler.SetTheme)))
	mux.Handle("PUT /api/v1/preferences/language", authMiddleware(http.HandlerFunc(prefHandler.SetLanguage)))
	mux.Handle("PUT /api/v1/preferences/timezone", authMiddleware(http.HandlerFunc(prefHandler.SetTimezone)))
	mux.Handle("PUT /api/v1/preferences/date-format", authMiddleware(http.HandlerFunc(prefHandler.SetDateFormat)))
	mux.Handle("PUT /api/v1/preferences/time-format", authMiddleware(http.HandlerFunc(prefHandler.SetTimeFormat)))
	mux.Handle("PATCH /api/v1/preferences/notifications", authMiddleware(http.HandlerFunc(prefHandler.PatchNotifications)))
	mux.Handle("POST /api/v1/preferences/hydrate", authMiddleware(http.HandlerFunc(prefHandler.Hydrate)))
	mux.Handle("GET /api/v1/preferences/stream", authMiddleware(stream))
	mux.Handle("GET /api/v1/me", authMiddleware(http.HandlerFunc(prefHandler.Me)))

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
