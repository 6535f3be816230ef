package ui

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cocreview/adapters/excel"
	"cocreview/adapters/postgres"
	"cocreview/adapters/storage"
	"cocreview/app"
	"cocreview/domain/coc"
	"cocreview/internal"
	"cocreview/internal/api"
	"cocreview/internal/migration"
	"cocreview/ports"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, filename string, pdf []byte) (*ports.ExtractionResult, error) {
	return &ports.ExtractionResult{
		Source: "service",
		Entities: []coc.Entity{
			coc.NewEntity("company_name", "Acme Environmental", 0.97),
			coc.NewEntity("customer_sample_id_1", "MW-01", 0.93),
			coc.NewEntity("customer_sample_id_1_matrix", "GW G", 0.9),
			coc.NewEntity("Sample01_analysis01", "8260 VOC", 0.4),
		},
	}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	db, err := postgres.Open(ctx, "sqlite", "file::memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	logger := internal.NewLoggerWith(zap.NewNop(), internal.LogLevelError)
	labs := postgres.NewLabRepository(db)
	users := postgres.NewUserRepository(db)
	sessions := postgres.NewSessionRepository(db)
	auth := app.NewAuthService(users, labs, sessions, time.Hour, bcrypt.MinCost, logger)
	docs := app.NewDocumentService(app.DocumentServiceConfig{
		Documents:      postgres.NewDocumentRepository(db),
		Blobs:          storage.NewMemStore(),
		Extractor:      stubExtractor{},
		Exporter:       excel.Exporter{},
		MaxUploadBytes: 1 << 20,
		Logger:         logger,
	})
	_, err = auth.Bootstrap(ctx, app.BootstrapRequest{Email: "admin@acme.test", Password: "admin-pass"})
	require.NoError(t, err)

	apiHandler := api.NewHandler(api.Config{
		Documents: docs,
		Auth:      auth,
		Admin:     app.NewAdminService(labs, users, sessions, auth),
		Logger:    logger,
	})
	s, err := NewServer(Config{
		Documents: docs,
		Auth:      auth,
		API:       apiHandler.Router(),
		Logger:    logger,
	})
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func loginCookie(t *testing.T, s *Server) *http.Cookie {
	t.Helper()
	form := url.Values{"login": {"admin"}, "password": {"admin-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(s, req, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == "coc_session" {
			require.NotEmpty(t, c.Value)
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_PagesRequireSession(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil), &http.Cookie{Name: "coc_session", Value: "bogus"})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in")
}

func TestServer_BadLogin(t *testing.T) {
	s := newTestServer(t)
	form := url.Values{"login": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(s, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")
	assert.Contains(t, rec.Body.String(), `value="admin"`)
}

func TestServer_UploadAndReview(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No documents yet.")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "coc.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = serve(s, req, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/documents/"), location)

	rec = serve(s, httptest.NewRequest(http.MethodGet, location, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "coc.pdf")
	assert.Contains(t, body, "MW-01")
	assert.Contains(t, body, "Acme Environmental")
	assert.Contains(t, body, `data-row="sample-1-analysis-01-0"`)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	assert.Contains(t, rec.Body.String(), location)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_APIMountedUnderPrefix(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/me", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/me", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_Logout(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/logout", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
