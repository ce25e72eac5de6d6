// Package ratelimit provides client-side rate limiting for the backend
// services Tome calls during indexing. A local Ollama instance serves
// captioning, embedding, and generation from the same GPU, and a long
// document can queue hundreds of requests at once, so each backend gets
// a token bucket with a backoff hook for 429 responses.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ServiceType identifies a backend service for rate limiting purposes.
type ServiceType string

const (
	// ServiceEmbedding is the embedding endpoint.
	ServiceEmbedding ServiceType = "embedding"
	// ServiceVision is the image captioning endpoint.
	ServiceVision ServiceType = "vision"
	// ServiceGeneration is the text generation endpoint.
	ServiceGeneration ServiceType = "generation"
	// ServiceVectorStore is the vector store endpoint.
	ServiceVectorStore ServiceType = "vectorstore"
	// ServiceParser is the document parsing endpoint.
	ServiceParser ServiceType = "parser"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits provides conservative defaults for each backend.
// Vision and generation calls occupy the model for seconds at a time,
// so their sustained rates are far below the embedding rate.
var DefaultRateLimits = map[ServiceType]RateLimitConfig{
	ServiceEmbedding:   {RequestsPerSecond: 20.0, BurstSize: 40},
	ServiceVision:      {RequestsPerSecond: 1.0, BurstSize: 2},
	ServiceGeneration:  {RequestsPerSecond: 1.0, BurstSize: 2},
	ServiceVectorStore: {RequestsPerSecond: 50.0, BurstSize: 100},
	ServiceParser:      {RequestsPerSecond: 2.0, BurstSize: 4},
}

// RateLimiter provides rate limiting for backend service requests.
// It uses a token bucket algorithm with optional backoff for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	service ServiceType
}

// NewRateLimiter creates a new rate limiter for the specified service.
func NewRateLimiter(service ServiceType) *RateLimiter {
	cfg, ok := DefaultRateLimits[service]
	if !ok {
		// Default fallback
		cfg = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		service: service,
	}
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	// First, check for backoff from previous rate limit errors
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	// Then wait for the token bucket
	return r.limiter.Wait(ctx)
}

// RecordRateLimitError records a rate limit error and sets a backoff period.
// Call this when a backend responds with 429.
func (r *RateLimiter) RecordRateLimitError(retryAfterSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfterSeconds <= 0 {
		// Default backoff: 60 seconds
		retryAfterSeconds = 60
	}

	r.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}

// Allow checks if a request can be made immediately without blocking.
// Returns true if the request is allowed, false if it would exceed the rate limit.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}

	return r.limiter.Allow()
}
