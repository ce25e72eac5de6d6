// Package unstructured provides a document parser adapter backed by
// the Unstructured partitioning API.
//
// The hi_res strategy runs layout detection, so one request can take
// minutes for a large PDF. Tables arrive as HTML and images as base64
// blocks; both are mapped onto fragments for the normaliser to handle.
package unstructured

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "http://localhost:8000"
	DefaultStrategy = "hi_res"
	DefaultTimeout  = 15 * time.Minute
)

// partitionPath is the Unstructured API partition endpoint.
const partitionPath = "/general/v0/general"

// Config holds configuration for the Unstructured parser.
type Config struct {
	// BaseURL is the partitioning API base URL (default: http://localhost:8000).
	BaseURL string

	// APIKey authenticates against hosted deployments. Empty for local.
	APIKey string

	// Strategy is the partitioning strategy (default: hi_res).
	Strategy string

	// Timeout is the request timeout (default: 15m). Layout detection
	// dominates the wall time, not transfer.
	Timeout time.Duration
}

// Parser splits documents into fragments using the Unstructured API.
type Parser struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	strategy string
}

// element is one partitioned element in the API response.
type element struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Metadata elementMetadata `json:"metadata"`
}

// elementMetadata carries the element fields Tome consumes.
type elementMetadata struct {
	PageNumber  int    `json:"page_number"`
	TextAsHTML  string `json:"text_as_html"`
	ImageBase64 string `json:"image_base64"`
}

// New creates a new Unstructured parser.
func New(cfg Config) *Parser {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Parser{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		strategy: cfg.Strategy,
	}
}

// Parse reads the document at path and returns its fragments in
// document order.
func (p *Parser) Parse(ctx context.Context, path string) ([]domain.Fragment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	_ = writer.WriteField("strategy", p.strategy)
	_ = writer.WriteField("extract_image_block_types", `["Image"]`)
	_ = writer.WriteField("pdf_infer_table_structure", "true")

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalise form: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+partitionPath,
		&body,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("unstructured-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("unstructured error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("unstructured error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var elements []element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return toFragments(elements), nil
}

// toFragments maps API elements onto domain fragments, in order.
// Image elements without image data are dropped; there is nothing to
// caption. Text elements cover every remaining category (Title,
// NarrativeText, ListItem, and so on).
func toFragments(elements []element) []domain.Fragment {
	fragments := make([]domain.Fragment, 0, len(elements))

	for _, el := range elements {
		switch {
		case el.Type == "Image":
			if el.Metadata.ImageBase64 == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(el.Metadata.ImageBase64)
			if err != nil || len(data) == 0 {
				continue
			}
			fragments = append(fragments, domain.Fragment{
				Type:  domain.FragmentImage,
				Image: data,
				Page:  el.Metadata.PageNumber,
			})

		case strings.Contains(el.Type, "Table"):
			text := el.Metadata.TextAsHTML
			if text == "" {
				text = el.Text
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			fragments = append(fragments, domain.Fragment{
				Type: domain.FragmentTable,
				Text: text,
				Page: el.Metadata.PageNumber,
			})

		default:
			if strings.TrimSpace(el.Text) == "" {
				continue
			}
			fragments = append(fragments, domain.Fragment{
				Type: domain.FragmentText,
				Text: el.Text,
				Page: el.Metadata.PageNumber,
			})
		}
	}

	return fragments
}

// Ping validates the service is reachable via its healthcheck endpoint.
func (p *Parser) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthcheck", http.NoBody)
	if err != nil {
		return fmt.Errorf("unstructured: failed to create ping request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("unstructured: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unstructured: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (p *Parser) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
