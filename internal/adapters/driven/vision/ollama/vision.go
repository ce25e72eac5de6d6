// Package ollama provides a vision service adapter using Ollama.
//
// Captions are produced by a multimodal model such as llava. The
// caption text stands in for the image everywhere downstream: it is
// what gets embedded, retrieved, and quoted in answers.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

// Ensure VisionService implements the interface.
var _ driven.VisionService = (*VisionService)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "http://localhost:11434"
	DefaultVisionModel   = "llava"
	DefaultVisionTimeout = 120 * time.Second
)

// VisionConfig holds configuration for the Ollama vision service.
type VisionConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the vision model to use (default: llava).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// VisionService captions images using Ollama.
type VisionService struct {
	client      *http.Client
	baseURL     string
	model       string
	promptStore driven.PromptStore
}

// visionMessage is the Ollama chat message format with image payloads.
type visionMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// visionRequest is the Ollama /api/chat request format.
type visionRequest struct {
	Model    string          `json:"model"`
	Messages []visionMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// visionResponse is the Ollama /api/chat response format.
type visionResponse struct {
	Message visionMessage `json:"message"`
	Done    bool          `json:"done"`
}

// NewVisionService creates a new Ollama vision service.
func NewVisionService(cfg VisionConfig) *VisionService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVisionModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultVisionTimeout
	}

	return &VisionService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// defaultCaptionPrompt is the fallback prompt when no PromptStore is configured.
const defaultCaptionPrompt = `Describe this image in detail. What concepts, diagrams, or formulas are visible? Be descriptive. This description will be used for a search index.`

// Caption describes the image so the description can be embedded and
// retrieved like any text chunk.
func (s *VisionService) Caption(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	prompt := s.loadPrompt(driven.PromptCaption, defaultCaptionPrompt)

	reqBody := visionRequest{
		Model: s.model,
		Messages: []visionMessage{
			{
				Role:    "user",
				Content: prompt,
				Images:  []string{base64.StdEncoding.EncodeToString(image)},
			},
		},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var visResp visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&visResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	caption := strings.TrimSpace(visResp.Message.Content)
	if caption == "" {
		return "", fmt.Errorf("ollama returned empty caption for model %q", s.model)
	}

	return caption, nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *VisionService) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// ModelName returns the name of the vision model being used.
func (s *VisionService) ModelName() string {
	return s.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the service uses hardcoded default prompts.
func (s *VisionService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (s *VisionService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *VisionService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
