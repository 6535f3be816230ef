package extraction

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cocreview/adapters/extraction/heuristic"
	apperrors "cocreview/internal/errors"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r.Clone(context.Background())
		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			b, _ := io.ReadAll(f)
			assert.Equal(t, "%PDF-1.7", string(b))
			assert.Equal(t, "coc.pdf", hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url + "/", APIKey: "k", Timeout: 5 * time.Second, Fallback: heuristic.NewExtractor()})
	require.NoError(t, err)
	return c
}

func TestExtract_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"type":"company_name","value":"Acme","confidence":0.9}]`},
		{"entities key", `{"entities":[{"type":"company_name","value":"Acme","confidence":0.9}],"pages":[{},{}]}`},
		{"nested data", `{"data":{"entities":[{"type":"company_name","value":"Acme","confidence":0.9}]},"page_count":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := newServer(t, http.StatusOK, tt.body)
			res, err := newClient(t, srv.URL).Extract(context.Background(), "coc.pdf", []byte("%PDF-1.7"))
			require.NoError(t, err)

			assert.Equal(t, SourceService, res.Source)
			require.Len(t, res.Entities, 1)
			assert.Equal(t, "Acme", res.Entities[0].Text())
			assert.Equal(t, "Bearer k", seen.Header.Get("Authorization"))
			assert.Equal(t, "/extract", seen.URL.Path)
		})
	}
}

func TestExtract_OCRPayloadUsesFallback(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"pages":[{"text":"Company Name: Acme"},{"text":"1  MW-01  GW G  4/6/24  08:00"}]}`)

	res, err := newClient(t, srv.URL).Extract(context.Background(), "coc.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)

	assert.Equal(t, SourceHeuristic, res.Source)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "company_name", res.Entities[0].Type)
	assert.Equal(t, heuristic.Confidence, res.Entities[0].Confidence)
}

func TestExtract_Errors(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `{"error":"model offline"}`)
	_, err := newClient(t, srv.URL).Extract(context.Background(), "coc.pdf", []byte("%PDF-1.7"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "model offline")

	srv, _ = newServer(t, http.StatusOK, `{"status":"ok"}`)
	_, err = newClient(t, srv.URL).Extract(context.Background(), "coc.pdf", []byte("%PDF-1.7"))
	assert.Error(t, err)

	srv, _ = newServer(t, http.StatusOK, `not json`)
	_, err = newClient(t, srv.URL).Extract(context.Background(), "coc.pdf", []byte("%PDF-1.7"))
	assert.Error(t, err)
}

func TestExtract_TextWithoutFallback(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"text":"Company Name: Acme"}`)
	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Extract(context.Background(), "coc.pdf", []byte("%PDF-1.7"))
	assert.Error(t, err)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "  "})
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}
