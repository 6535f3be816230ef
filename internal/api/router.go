// Package api serves the JSON review API.
package api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cocreview/app"
	"cocreview/internal"
	"cocreview/models"
)

// DefaultSessionCookie is the cookie carrying the session token.
const DefaultSessionCookie = "coc_session"

// Authenticator resolves a session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Config wires the API to the application services.
type Config struct {
	Documents *app.DocumentService
	Auth      *app.AuthService
	Admin     *app.AdminService

	SessionCookie  string
	SessionTTL     time.Duration
	SecureCookie   bool
	MaxUploadBytes int64
	// AccessLog enables chi's request logger.
	AccessLog bool
	Logger    *internal.Logger
}

// Handler holds the API's dependencies.
type Handler struct {
	docs   *app.DocumentService
	auth   *app.AuthService
	admin  *app.AdminService
	authn  Authenticator
	cfg    Config
	logger *internal.Logger
}

// NewHandler creates the API handler set.
func NewHandler(cfg Config) *Handler {
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{
		docs:   cfg.Documents,
		auth:   cfg.Auth,
		admin:  cfg.Admin,
		authn:  cfg.Auth,
		cfg:    cfg,
		logger: logger,
	}
}

// Router builds the chi router. Paths are relative; mount it under /api.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if h.cfg.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireUser)

		r.Post("/auth/logout", h.handleLogout)
		r.Get("/me", h.handleMe)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.handleListDocuments)
			r.Post("/", h.handleUpload)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetDocument)
				r.Put("/", h.handleSaveDocument)
				r.Delete("/", h.handleDeleteDocument)
				r.Get("/pdf", h.handlePDF)
				r.Get("/grid", h.handleGrid)
				r.Get("/table", h.handleTable)
				r.Patch("/fields", h.handleUpdateField)
				r.Post("/fields", h.handleAddField)
				r.Delete("/fields", h.handleRemoveField)
				r.Patch("/samples/{rowID}", h.handleUpdateSampleCell)
				r.Post("/reextract", h.handleReextract)
				r.Get("/export", h.handleExport)
				r.Get("/summary", h.handleSummary)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/labs", h.handleListLabs)
			r.Post("/labs", h.handleCreateLab)
			r.Patch("/labs/{id}", h.handleSetLabActive)
			r.Get("/users", h.handleListUsers)
			r.Post("/users", h.handleCreateUser)
			r.Delete("/users/{id}", h.handleDeactivateUser)
		})
	})

	return r
}
