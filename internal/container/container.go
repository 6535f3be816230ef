// Package container wires the review application from its configuration.
package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"cocreview/adapters/excel"
	"cocreview/adapters/extraction"
	"cocreview/adapters/extraction/heuristic"
	"cocreview/adapters/postgres"
	"cocreview/adapters/storage"
	"cocreview/app"
	"cocreview/internal"
	"cocreview/internal/api"
	"cocreview/internal/config"
	"cocreview/internal/migration"
	"cocreview/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB        *sqlx.DB
	Blobs     ports.BlobStore
	Extractor ports.Extractor

	// Repositories (data access layer)
	LabRepo      ports.LabRepository
	UserRepo     ports.UserRepository
	SessionRepo  ports.SessionRepository
	DocumentRepo ports.DocumentRepository

	// Services
	Documents *app.DocumentService
	Auth      *app.AuthService
	Admin     *app.AdminService

	API *api.Handler
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// Open connects to the configured database and runs the migrations.
func (c *Container) Open(ctx context.Context) error {
	db, err := postgres.Open(ctx, c.Config.Database.Driver, c.Config.Database.URL, c.Config.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return c.InitWithDatabase(db)
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	c.initRepositories()
	if err := c.initAdapters(); err != nil {
		return fmt.Errorf("failed to initialize adapters: %w", err)
	}
	c.initServices()
	c.Logger.Info("container initialized (%s database, extractor %T)", c.Config.Database.Driver, c.Extractor)
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() {
	c.LabRepo = postgres.NewLabRepository(c.DB)
	c.UserRepo = postgres.NewUserRepository(c.DB)
	c.SessionRepo = postgres.NewSessionRepository(c.DB)
	c.DocumentRepo = postgres.NewDocumentRepository(c.DB)
}

func (c *Container) initAdapters() error {
	if c.Blobs == nil {
		store, err := storage.NewDiskStore(c.Config.Storage.UploadDir)
		if err != nil {
			return err
		}
		c.Blobs = store
	}
	if c.Extractor != nil {
		return nil
	}

	ex := c.Config.Extraction
	if ex.URL == "" {
		c.Logger.Warn("EXTRACTION_URL is not set; uploads will be stored but not extracted")
		c.Extractor = extraction.Disabled{}
		return nil
	}
	cfg := extraction.Config{BaseURL: ex.URL, APIKey: ex.APIKey, Timeout: ex.Timeout}
	if ex.HeuristicFallback {
		cfg.Fallback = heuristic.NewExtractor()
	}
	client, err := extraction.NewClient(cfg)
	if err != nil {
		return err
	}
	c.Extractor = client
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config
	c.Documents = app.NewDocumentService(app.DocumentServiceConfig{
		Documents:      c.DocumentRepo,
		Blobs:          c.Blobs,
		Extractor:      c.Extractor,
		Exporter:       excel.Exporter{},
		MaxConcurrent:  cfg.Extraction.MaxConcurrent,
		MaxUploadBytes: cfg.Storage.MaxUploadMB << 20,
		Logger:         c.Logger,
	})
	c.Auth = app.NewAuthService(c.UserRepo, c.LabRepo, c.SessionRepo, cfg.Auth.SessionTTL, cfg.Auth.BcryptCost, c.Logger)
	c.Admin = app.NewAdminService(c.LabRepo, c.UserRepo, c.SessionRepo, c.Auth)
	c.API = api.NewHandler(api.Config{
		Documents:      c.Documents,
		Auth:           c.Auth,
		Admin:          c.Admin,
		SessionCookie:  cfg.Server.SessionCookie,
		SessionTTL:     cfg.Auth.SessionTTL,
		MaxUploadBytes: cfg.Storage.MaxUploadMB << 20,
		AccessLog:      cfg.Server.GinMode == "debug",
		Logger:         c.Logger,
	})
}

// Bootstrap creates the first lab and admin when the database has no users.
func (c *Container) Bootstrap(ctx context.Context) error {
	a := c.Config.Auth
	created, err := c.Auth.Bootstrap(ctx, app.BootstrapRequest{
		LabName:  a.BootstrapLabName,
		Email:    a.BootstrapAdminEmail,
		Password: a.BootstrapAdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}
	if created {
		c.Logger.Info("created bootstrap admin %s", a.BootstrapAdminEmail)
	}
	return nil
}

// Close releases the database connection.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
