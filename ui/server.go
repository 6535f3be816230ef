// Package ui serves the browser review pages.
package ui

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cocreview/app"
	"cocreview/domain/coc"
	"cocreview/domain/core"
	"cocreview/internal"
	"cocreview/internal/grid"
	"cocreview/internal/stats"
	"cocreview/models"
	"cocreview/ports"
	"cocreview/ui/middleware"
	"cocreview/ui/templates/fragments"
)

//go:embed templates/pages/*.html templates/partials/*.html
var embeddedFiles embed.FS

// Config wires the UI to the services and the JSON API.
type Config struct {
	Documents *app.DocumentService
	Auth      *app.AuthService
	// API is mounted under /api.
	API http.Handler

	SessionCookie string
	SessionTTL    time.Duration
	SecureCookie  bool
	AccessLog     bool
	Debug         bool
	Logger        *internal.Logger
}

// Server represents the review web server
type Server struct {
	router    *gin.Engine
	templates *template.Template
	docs      *app.DocumentService
	auth      *app.AuthService
	cfg       Config
	logger    *internal.Logger
	srv       *http.Server
}

// NewServer parses the templates and registers every route.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "coc_session"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router: gin.New(),
		docs:   cfg.Documents,
		auth:   cfg.Auth,
		cfg:    cfg,
		logger: logger,
	}
	if err := s.parseTemplates(); err != nil {
		return nil, err
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": core.Now()})
	})
	s.router.GET("/login", s.handleLoginPage)
	s.router.POST("/login", s.handleLogin)
	s.router.POST("/logout", s.handleLogout)

	if s.cfg.API != nil {
		api := gin.WrapH(http.StripPrefix("/api", s.cfg.API))
		s.router.Any("/api/*path", api)
	}

	pages := s.router.Group("/", s.requireSession())
	pages.GET("/", s.handleIndex)
	pages.POST("/upload", s.handleUpload)
	pages.GET("/documents/:id", s.handleDocument)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("review UI listening on %s", addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

type loginPage struct {
	Title string
	User  *models.User
	Login string
	Error string
}

func (s *Server) handleLoginPage(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, fragments.LoginPage, loginPage{Title: "Sign in"})
}

func (s *Server) handleLogin(c *gin.Context) {
	login := c.PostForm("login")
	token, _, err := s.auth.Login(c.Request.Context(), login, c.PostForm("password"))
	if err != nil {
		s.renderTemplate(c, http.StatusUnauthorized, fragments.LoginPage, loginPage{
			Title: "Sign in",
			Login: login,
			Error: "Invalid username or password.",
		})
		return
	}
	s.setSessionCookie(c, token, int(s.cfg.SessionTTL/time.Second))
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(s.cfg.SessionCookie); err == nil && token != "" {
		if err := s.auth.Logout(c.Request.Context(), token); err != nil {
			s.logger.Warn("logout: %v", err)
		}
	}
	s.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/login")
}

type indexPage struct {
	Title     string
	User      *models.User
	Documents []*models.Document
	Error     string
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderIndex(c, http.StatusOK, "")
}

func (s *Server) renderIndex(c *gin.Context, status int, message string) {
	user := middleware.CurrentUser(c)
	docs, err := s.docs.List(c.Request.Context(), user, ports.DocumentFilter{Limit: 100})
	if err != nil {
		s.logger.Error("listing documents: %v", err)
		message = "Documents could not be loaded."
	}
	s.renderTemplate(c, status, fragments.IndexPage, indexPage{
		Title:     "Documents",
		User:      user,
		Documents: docs,
		Error:     message,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	user := middleware.CurrentUser(c)
	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		s.renderIndex(c, http.StatusBadRequest, "Choose at least one PDF to upload.")
		return
	}

	uploads := make([]app.Upload, 0, len(form.File["file"]))
	for _, fh := range form.File["file"] {
		f, err := fh.Open()
		if err != nil {
			s.renderIndex(c, http.StatusBadRequest, "Could not read "+fh.Filename+".")
			return
		}
		defer f.Close()
		uploads = append(uploads, app.Upload{Filename: fh.Filename, Body: f})
	}

	docs, err := s.docs.UploadMany(c.Request.Context(), user, uploads)
	if err != nil {
		s.renderIndex(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(docs) == 1 {
		c.Redirect(http.StatusSeeOther, "/documents/"+docs[0].ID.String())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

type documentPage struct {
	Title     string
	User      *models.User
	Document  *models.Document
	Summary   *stats.Summary
	FieldRows []coc.FieldRow
	Grid      grid.Grid
}

func (s *Server) handleDocument(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := core.ParseDocumentID(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := s.docs.Get(c.Request.Context(), user, id)
	if err != nil {
		c.String(http.StatusNotFound, "document not found")
		return
	}
	sum, err := s.docs.Summary(c.Request.Context(), user, id, 0)
	if err != nil {
		s.logger.Warn("summary of %s: %v", id, err)
		sum = nil
	}
	sections := doc.Data.CategorizedSections
	s.renderTemplate(c, http.StatusOK, fragments.DocumentPage, documentPage{
		Title:     doc.Filename,
		User:      user,
		Document:  doc,
		Summary:   sum,
		FieldRows: grid.FieldRows(sections),
		Grid:      grid.SampleGrid(sections.CollectedSampleDataInfo),
	})
}
