package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cocreview/adapters/extraction"
	"cocreview/adapters/storage"
	"cocreview/internal"
	"cocreview/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Database:   config.DatabaseConfig{Driver: "sqlite", URL: "file::memory:"},
		Server:     config.ServerConfig{Port: "0", SessionCookie: "coc_session"},
		Storage:    config.StorageConfig{MaxUploadMB: 1},
		Extraction: config.ExtractionConfig{MaxConcurrent: 2, Timeout: time.Second},
		Auth: config.AuthConfig{
			SessionTTL:             time.Hour,
			BcryptCost:             4,
			BootstrapAdminEmail:    "root@lab.test",
			BootstrapAdminPassword: "root-password",
			BootstrapLabName:       "Bayou Labs",
		},
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestOpen_WiresServices(t *testing.T) {
	ctx := context.Background()
	c, err := New(testConfig(), internal.NewLoggerWith(zap.NewNop(), internal.LogLevelError))
	require.NoError(t, err)
	c.Blobs = storage.NewMemStore()
	require.NoError(t, c.Open(ctx))
	t.Cleanup(func() { c.Close() })

	assert.IsType(t, extraction.Disabled{}, c.Extractor)
	require.NotNil(t, c.Documents)
	require.NotNil(t, c.API)

	require.NoError(t, c.Bootstrap(ctx))
	require.NoError(t, c.Bootstrap(ctx))

	lab, err := c.LabRepo.GetByCode(ctx, "bayou-labs")
	require.NoError(t, err)
	assert.Equal(t, "Bayou Labs", lab.Name)

	_, user, err := c.Auth.Login(ctx, "root", "root-password")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
}

func TestOpen_ServiceExtractor(t *testing.T) {
	cfg := testConfig()
	cfg.Extraction.URL = "http://extraction.local/"
	cfg.Extraction.HeuristicFallback = true
	c, err := New(cfg, internal.NewLoggerWith(zap.NewNop(), internal.LogLevelError))
	require.NoError(t, err)
	c.Blobs = storage.NewMemStore()
	require.NoError(t, c.Open(context.Background()))
	t.Cleanup(func() { c.Close() })

	assert.IsType(t, &extraction.Client{}, c.Extractor)
}
