package routes

import (
	"net/http"

	"github.com/packvault/packvault/internal/app"
	"github.com/packvault/packvault/internal/handler"
	"github.com/packvault/packvault/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	files := handler.NewFileHandler(app.FileService, app.UploadOptions())
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)
	mux.Handle("GET /metrics", app.Metrics.Handler())

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Uploads (rate limited per user)
	uploadLimiter := middleware.RateLimit(middleware.NewRateLimiter(app.Cfg.UploadRateLimit, app.Cfg.UploadRateWindow))
	mux.HandleFunc("POST /resources/{resource_uuid}/files", middleware.RequireAuth(uploadLimiter(files.Upload)))

	// Files
	mux.HandleFunc("GET /resources/{resource_uuid}/files", middleware.RequireAuth(files.List))
	mux.HandleFunc("GET /resources/{resource_uuid}/files/{file_uuid}", middleware.RequireAuth(files.Show))
	mux.HandleFunc("GET /resources/{resource_uuid}/files/{file_uuid}/content", middleware.RequireAuth(files.Content))
	mux.HandleFunc("DELETE /resources/{resource_uuid}/files/{file_uuid}", middleware.RequireAuth(files.Delete))

	// Resources
	mux.HandleFunc("DELETE /resources/{resource_uuid}", middleware.RequireAuth(files.DeleteResource))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.WithRequestID, // Must run before logging so the id is logged
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.Cfg.JWTSecret),
	)

	return handler
}
