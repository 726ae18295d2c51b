package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/model"
)

// Config holds the router's dependencies.
type Config struct {
	DB         *sql.DB
	Engine     *engine.Engine
	JWTSecret  string
	TokenTTL   time.Duration
	DateLayout string
	Location   *time.Location
	// Archiver is optional; without it report archiving is unavailable.
	Archiver Archiver
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, Engine: cfg.Engine, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
	itemsHandler := &ItemsHandler{Engine: cfg.Engine}
	loansHandler := &LoansHandler{Engine: cfg.Engine}
	logsHandler := &LogsHandler{Engine: cfg.Engine, DateLayout: cfg.DateLayout, Location: cfg.Location, Archiver: cfg.Archiver}
	usersHandler := &UsersHandler{Engine: cfg.Engine}
	systemHandler := &SystemHandler{Engine: cfg.Engine}

	optionalMW := OptionalAuth(cfg.JWTSecret, cfg.DB, cfg.Engine)
	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB, cfg.Engine)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleVolunteer)

	public := func(h http.HandlerFunc) http.Handler { return optionalMW(h) }
	staff := func(h http.HandlerFunc) http.Handler { return authMW(requireStaff(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public: login, branding, browsing, borrowing and returning.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/settings", public(systemHandler.Settings))
	mux.Handle("GET /api/items", public(itemsHandler.List))
	mux.Handle("GET /api/items/{id}", public(itemsHandler.Get))
	mux.Handle("GET /api/loans", public(loansHandler.List))
	mux.Handle("POST /api/loans", public(loansHandler.Borrow))
	mux.Handle("POST /api/loans/{id}/return", public(loansHandler.Return))

	// Staff.
	mux.Handle("POST /api/auth/logout", staff(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", staff(authHandler.ChangePassword))
	mux.Handle("POST /api/items", staff(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", staff(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", staff(itemsHandler.Delete))
	mux.Handle("POST /api/items/{id}/toggle", staff(itemsHandler.Toggle))
	mux.Handle("PUT /api/items/{id}/image", staff(itemsHandler.UploadImage))
	mux.Handle("GET /api/logs", staff(logsHandler.List))
	mux.Handle("DELETE /api/logs/{id}", staff(logsHandler.Delete))
	mux.Handle("GET /api/dashboard", staff(systemHandler.Dashboard))
	mux.Handle("GET /api/reports/activity.csv", staff(logsHandler.ExportCSV))

	// Admin.
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("PUT /api/settings", admin(systemHandler.UpdateSettings))
	mux.Handle("PUT /api/settings/logo", admin(systemHandler.UploadLogo))
	mux.Handle("PUT /api/settings/background", admin(systemHandler.UploadBackground))
	mux.Handle("POST /api/system/reset", admin(systemHandler.Reset))
	mux.Handle("POST /api/reports/archive", admin(logsHandler.Archive))

	return mux
}
