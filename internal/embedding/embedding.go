// Package embedding turns text into fixed-dimension vectors using one or
// more external providers.
//
// Providers are tried in a fixed fallback order: the first is the default,
// the rest take over in sequence when a call fails or times out. Every
// vector leaving this package is reconciled to one target dimension so all
// stored vectors stay comparable under a single cosine metric, regardless
// of which provider produced them.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Provider is one embedding backend. Implementations embed every input text
// in order and return exactly one vector per input, at their native
// dimensionality. Backends with a request-size cap sub-batch internally.
type Provider interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Default hard deadlines for provider calls.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultBatchTimeout = 60 * time.Second
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// TargetDimension is the width all vectors are reconciled to.
	TargetDimension int

	// Timeout bounds a single-text embed call. Zero means DefaultTimeout.
	Timeout time.Duration

	// BatchTimeout bounds a batch embed call. Zero means DefaultBatchTimeout.
	BatchTimeout time.Duration
}

// Service embeds text with provider fallback and dimension reconciliation.
// Stateless per call; safe for concurrent use.
type Service struct {
	providers    []Provider
	targetDim    int
	timeout      time.Duration
	batchTimeout time.Duration
	logger       *slog.Logger
}

// NewService creates a Service. The provider order is the fallback order;
// the first provider is the default. logger may be nil.
func NewService(providers []Provider, cfg ServiceConfig, logger *slog.Logger) (*Service, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	if cfg.TargetDimension <= 0 {
		return nil, fmt.Errorf("target dimension must be positive, got %d", cfg.TargetDimension)
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}

	return &Service{
		providers:    providers,
		targetDim:    cfg.TargetDimension,
		timeout:      timeout,
		batchTimeout: batchTimeout,
		logger:       logger,
	}, nil
}

// TargetDimension returns the width all returned vectors have.
func (s *Service) TargetDimension() int {
	return s.targetDim
}

// Embed embeds a single text. Empty or whitespace-only text fails with
// ErrEmptyInput before any provider is contacted.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	vecs, err := s.embedWithFallback(ctx, []string{text}, s.timeout)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in order, one vector per input. An empty input
// returns an empty result without error; any blank element fails with
// ErrEmptyInput before any provider is contacted.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: batch element %d", ErrEmptyInput, i)
		}
	}

	return s.embedWithFallback(ctx, texts, s.batchTimeout)
}

// embedWithFallback tries each provider in order under a hard per-call
// deadline and returns the last error once all are exhausted. Timeouts are
// distinct from provider failures but fall through the chain the same way.
func (s *Service) embedWithFallback(ctx context.Context, texts []string, timeout time.Duration) ([][]float32, error) {
	var lastErr error

	for _, p := range s.providers {
		vecs, err := s.embedOne(ctx, p, texts, timeout)
		if err == nil {
			return vecs, nil
		}

		perr := &ProviderError{
			Provider: p.Name(),
			Timeout:  errors.Is(err, context.DeadlineExceeded),
			Err:      err,
		}
		s.logger.Warn("embedding provider failed, trying next",
			"provider", p.Name(), "timeout", perr.Timeout, "error", err)
		lastErr = perr

		// Parent cancellation is not a provider fault; stop the chain.
		if ctx.Err() != nil {
			return nil, perr
		}
	}

	return nil, lastErr
}

func (s *Service) embedOne(ctx context.Context, p Provider, texts []string, timeout time.Duration) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vecs, err := p.Embed(callCtx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d inputs", len(vecs), len(texts))
	}

	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("provider returned empty vector at index %d", i)
		}
		out[i] = Reconcile(v, s.targetDim)
	}
	return out, nil
}

// Reconcile forces vec to exactly dim entries: longer vectors are truncated,
// shorter vectors are zero-padded on the right. This is deliberately lossy;
// vectors are never rescaled or re-projected. A vector already at dim is
// returned unchanged.
func Reconcile(vec []float32, dim int) []float32 {
	switch {
	case len(vec) == dim:
		return vec
	case len(vec) > dim:
		return vec[:dim]
	default:
		out := make([]float32, dim)
		copy(out, vec)
		return out
	}
}

// subBatch splits texts into consecutive slices of at most size elements.
// Used by providers whose APIs cap the number of inputs per request.
func subBatch(texts []string, size int) [][]string {
	if size <= 0 || len(texts) <= size {
		return [][]string{texts}
	}
	var batches [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[start:end])
	}
	return batches
}
