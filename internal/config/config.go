// Package config loads and persists Tome's configuration.
// Configuration lives in a TOML file within the tome config directory
// and can be read and edited by dotted key via the config command.
// Environment variables override file values so containerised runs can
// point at different backends without editing the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Defaults shared across the pipeline.
const (
	// DefaultCollection is the vector store collection documents index into.
	DefaultCollection = "document_rag"

	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 5
)

// AIProvider identifies a service provider for AI backends.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
	}
}

// ParserConfig holds document parser configuration.
type ParserConfig struct {
	// BaseURL is the partitioning API endpoint.
	BaseURL string `toml:"base_url"`

	// APIKey authenticates against hosted partitioning APIs. Empty for
	// a local server.
	APIKey string `toml:"api_key"`

	// Strategy selects the partitioning strategy. "hi_res" runs layout
	// detection and extracts tables and images.
	Strategy string `toml:"strategy"`
}

// VisionConfig holds image captioning configuration.
type VisionConfig struct {
	// Provider is the vision service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the vision model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint.
	BaseURL string `toml:"base_url"`

	// Enabled indicates whether image fragments are captioned.
	// When false, image fragments are skipped during indexing.
	Enabled bool `toml:"enabled"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	// Provider is the embedding service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint.
	BaseURL string `toml:"base_url"`

	// Dimensions is the embedding vector size. Zero means look up the
	// model in EmbeddingDimensions.
	Dimensions int `toml:"dimensions"`
}

// LLMConfig holds language model configuration.
type LLMConfig struct {
	// Provider is the LLM service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the LLM model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint.
	BaseURL string `toml:"base_url"`
}

// VectorConfig holds vector store configuration.
type VectorConfig struct {
	// Provider selects the vector store backend. "qdrant" or "memory".
	Provider string `toml:"provider"`

	// URL is the Qdrant endpoint.
	URL string `toml:"url"`

	// APIKey authenticates against secured Qdrant deployments.
	APIKey string `toml:"api_key"`

	// Collection is the collection name documents index into.
	Collection string `toml:"collection"`
}

// SessionsConfig holds session persistence configuration.
type SessionsConfig struct {
	// DataDir is where the session database lives.
	// Empty means ~/.tome/data.
	DataDir string `toml:"data_dir"`
}

// QueryConfig holds query behaviour configuration.
type QueryConfig struct {
	// TopK is the number of chunks retrieved per query.
	TopK int `toml:"top_k"`
}

// Config holds all application configuration.
type Config struct {
	// Parser holds document parser settings.
	Parser ParserConfig `toml:"parser"`

	// Vision holds image captioning settings.
	Vision VisionConfig `toml:"vision"`

	// Embedding holds embedding provider settings.
	Embedding EmbeddingConfig `toml:"embedding"`

	// LLM holds language model settings.
	LLM LLMConfig `toml:"llm"`

	// Vector holds vector store settings.
	Vector VectorConfig `toml:"vector"`

	// Sessions holds session persistence settings.
	Sessions SessionsConfig `toml:"sessions"`

	// Query holds query behaviour settings.
	Query QueryConfig `toml:"query"`
}

// Default returns configuration with sensible defaults: local Ollama
// for all AI services, local Qdrant for storage, captioning enabled.
func Default() Config {
	return Config{
		Parser: ParserConfig{
			BaseURL:  "http://localhost:8000",
			Strategy: "hi_res",
		},
		Vision: VisionConfig{
			Provider: AIProviderOllama,
			Model:    "llava",
			BaseURL:  "http://localhost:11434",
			Enabled:  true,
		},
		Embedding: EmbeddingConfig{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		LLM: LLMConfig{
			Provider: AIProviderOllama,
			Model:    "llama3",
			BaseURL:  "http://localhost:11434",
		},
		Vector: VectorConfig{
			Provider:   "qdrant",
			URL:        "http://localhost:6333",
			Collection: DefaultCollection,
		},
		Sessions: SessionsConfig{},
		Query: QueryConfig{
			TopK: DefaultTopK,
		},
	}
}

// DefaultDir returns the tome config directory, ~/.tome.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".tome"), nil
}

// DefaultPath returns the default config file path, ~/.tome/config.toml.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads configuration from path, filling defaults for anything the
// file does not set. If path is empty the default path is used. A
// missing file is not an error; defaults apply. Environment variables
// are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnv()

	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = EmbeddingDimensions()[cfg.Embedding.Model]
	}

	return &cfg, nil
}

// Save persists the configuration to path, creating the directory if
// needed. If path is empty the default path is used.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// Write with restricted permissions; the file may hold API keys.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Environment overrides. A single Ollama variable retargets all three
// Ollama-backed services at once.
func (c *Config) applyEnv() {
	if v := os.Getenv("TOME_OLLAMA_URL"); v != "" {
		c.Vision.BaseURL = v
		c.Embedding.BaseURL = v
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("TOME_QDRANT_URL"); v != "" {
		c.Vector.URL = v
	}
	if v := os.Getenv("TOME_QDRANT_API_KEY"); v != "" {
		c.Vector.APIKey = v
	}
	if v := os.Getenv("TOME_UNSTRUCTURED_URL"); v != "" {
		c.Parser.BaseURL = v
	}
	if v := os.Getenv("TOME_UNSTRUCTURED_API_KEY"); v != "" {
		c.Parser.APIKey = v
	}
	if v := os.Getenv("TOME_COLLECTION"); v != "" {
		c.Vector.Collection = v
	}
}

// Get retrieves a configuration value by dotted key, e.g. "query.top_k".
func (c *Config) Get(key string) (any, bool) {
	flat, err := c.flatten()
	if err != nil {
		return nil, false
	}
	val, ok := flat[key]
	return val, ok
}

// Keys returns all configuration keys in dotted notation, sorted.
func (c *Config) Keys() []string {
	flat, err := c.flatten()
	if err != nil {
		return nil
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a configuration value by dotted key. The value string is
// coerced to the type of the existing value, so "query.top_k" rejects
// text that is not a number. Unknown keys are rejected.
func (c *Config) Set(key, value string) error {
	flat, err := c.flatten()
	if err != nil {
		return err
	}

	existing, ok := flat[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	coerced, err := coerce(value, existing)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	nested, err := c.toMap()
	if err != nil {
		return err
	}
	setNested(nested, strings.Split(key, "."), coerced)

	data, err := toml.Marshal(nested)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("applying config change: %w", err)
	}
	return nil
}

// toMap converts the typed config to a nested map via a TOML round trip.
func (c *Config) toMap() (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return m, nil
}

// flatten converts the config to dot-notation keys.
// E.g., {"query": {"top_k": 5}} becomes {"query.top_k": 5}.
func (c *Config) flatten() (map[string]any, error) {
	m, err := c.toMap()
	if err != nil {
		return nil, err
	}
	return flattenMap(m, ""), nil
}

func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// setNested walks the key path and sets the leaf value.
func setNested(m map[string]any, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}

	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		m[path[0]] = child
	}
	setNested(child, path[1:], value)
}

// coerce parses raw according to the type of the existing value.
func coerce(raw string, existing any) (any, error) {
	switch existing.(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected true or false")
		}
		return b, nil
	case int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number")
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number")
		}
		return f, nil
	default:
		return raw, nil
	}
}
