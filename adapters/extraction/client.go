// Package extraction calls the document extraction service and turns its
// response into COC entities.
package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"cocreview/domain/coc"
	apperrors "cocreview/internal/errors"
	"cocreview/ports"
)

// Result sources.
const (
	SourceService   = "service"
	SourceHeuristic = "heuristic"
)

// Config holds extraction client settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Fallback handles responses that carry OCR text instead of entities.
	// Nil disables the fallback.
	Fallback ports.TextExtractor
}

// Client implements ports.Extractor over HTTP
type Client struct {
	baseURL    string
	apiKey     string
	fallback   ports.TextExtractor
	httpClient *http.Client
}

// NewClient creates an extraction client
func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, apperrors.ConfigInvalid("missing extraction service URL")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		fallback:   config.Fallback,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Extract posts the PDF as multipart form data and decodes the response.
func (c *Client) Extract(ctx context.Context, filename string, pdf []byte) (*ports.ExtractionResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.ExternalServiceError("extraction", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ExternalServiceError("extraction", fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.ExternalServiceError("extraction",
			fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(raw), 512)))
	}
	return c.decode(ctx, raw)
}

// decode accepts the response shapes the service has used: a bare entity
// array, {"entities": [...]}, {"data": {"entities": [...]}}, or an OCR
// payload {"pages": [{"text": ...}], "text": ...}.
func (c *Client) decode(ctx context.Context, raw []byte) (*ports.ExtractionResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.ExternalServiceError("extraction", fmt.Errorf("response is not valid JSON"))
	}
	res := gjson.ParseBytes(raw)
	pages := int(res.Get("pages.#").Int())
	if pages == 0 {
		pages = int(res.Get("page_count").Int())
	}

	for _, path := range []string{"@this", "entities", "data.entities"} {
		list := res.Get(path)
		if list.IsArray() {
			return &ports.ExtractionResult{
				Entities: coc.DecodeEntities([]byte(list.Raw)),
				Source:   SourceService,
				Pages:    pages,
			}, nil
		}
	}

	text := ocrText(res)
	if text == "" {
		return nil, apperrors.ExternalServiceError("extraction", fmt.Errorf("response carries neither entities nor text"))
	}
	if c.fallback == nil {
		return nil, apperrors.ExternalServiceError("extraction", fmt.Errorf("response carries only OCR text"))
	}
	entities, err := c.fallback.ExtractText(ctx, text)
	if err != nil {
		return nil, err
	}
	return &ports.ExtractionResult{Entities: entities, Source: SourceHeuristic, Pages: pages}, nil
}

func ocrText(res gjson.Result) string {
	var parts []string
	for _, p := range res.Get("pages.#.text").Array() {
		if s := strings.TrimSpace(p.String()); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	return strings.TrimSpace(res.Get("text").String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
