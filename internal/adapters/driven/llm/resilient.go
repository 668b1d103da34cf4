package llm

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure ResilientModel implements the interface.
var _ driven.ChatModel = (*ResilientModel)(nil)

// DefaultBaseDelay is the first retry delay before jitter.
const DefaultBaseDelay = time.Second

// ResilientConfig holds retry and pacing settings.
type ResilientConfig struct {
	// MaxRetries is the number of extra attempts after a failure (0 disables retries).
	MaxRetries int

	// BaseDelay is the backoff for the first retry; later retries double it.
	BaseDelay time.Duration

	// Limiter paces requests. Nil means unlimited.
	Limiter *RateLimiter
}

// ResilientModel retries failed requests with exponential backoff and paces
// them through a rate limiter. A reply is only retried until its first
// fragment has been delivered; partial output is never replayed.
type ResilientModel struct {
	inner driven.ChatModel
	cfg   ResilientConfig

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewResilientModel wraps inner.
func NewResilientModel(inner driven.ChatModel, cfg ResilientConfig) *ResilientModel {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	return &ResilientModel{inner: inner, cfg: cfg, sleep: sleepContext}
}

// ChatStream opens a stream, retrying transient failures.
func (m *ResilientModel) ChatStream(ctx context.Context, req driven.ChatRequest) (driven.TokenStream, error) {
	stream, attempt, err := m.open(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	return &resilientStream{ctx: ctx, model: m, req: req, cur: stream, attempt: attempt}, nil
}

// open tries to start a stream from attempt onwards.
func (m *ResilientModel) open(ctx context.Context, req driven.ChatRequest, attempt int) (driven.TokenStream, int, error) {
	for ; ; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt-1, m.cfg.BaseDelay)
			logger.Debug("retrying %s in %s (attempt %d/%d)", req.Model, delay, attempt, m.cfg.MaxRetries)
			if err := m.sleep(ctx, delay); err != nil {
				return nil, attempt, err
			}
		}
		if err := m.wait(ctx); err != nil {
			return nil, attempt, err
		}

		stream, err := m.inner.ChatStream(ctx, req)
		if err == nil {
			return stream, attempt, nil
		}
		if !m.shouldRetry(attempt, err) {
			return nil, attempt, err
		}
		logger.Warn("model request failed: %v", err)
	}
}

// shouldRetry reports whether attempt may be followed by another one.
// It also applies any rate limit pause the error asks for.
func (m *ResilientModel) shouldRetry(attempt int, err error) bool {
	var statusErr *StatusError
	if m.cfg.Limiter != nil && errors.As(err, &statusErr) && statusErr.StatusCode == 429 {
		m.cfg.Limiter.RecordRateLimitError(statusErr.RetryAfter)
	}
	return attempt < m.cfg.MaxRetries && IsRetryable(err)
}

func (m *ResilientModel) wait(ctx context.Context) error {
	if m.cfg.Limiter == nil {
		return nil
	}
	return m.cfg.Limiter.Wait(ctx)
}

// ListModels passes through with pacing. Discovery is interactive, so it is not retried.
func (m *ResilientModel) ListModels(ctx context.Context) ([]string, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.inner.ListModels(ctx)
}

// Ping checks the wrapped client.
func (m *ResilientModel) Ping(ctx context.Context) error {
	return m.inner.Ping(ctx)
}

// Close closes the wrapped client.
func (m *ResilientModel) Close() error {
	return m.inner.Close()
}

// resilientStream reopens the request if it fails before any fragment arrived.
type resilientStream struct {
	ctx     context.Context
	model   *ResilientModel
	req     driven.ChatRequest
	attempt int
	started bool

	mu  sync.Mutex
	cur driven.TokenStream
}

func (s *resilientStream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.cur == nil {
			return "", io.EOF
		}

		token, err := s.cur.Next()
		if err == nil {
			if token != "" {
				s.started = true
			}
			return token, nil
		}
		if errors.Is(err, io.EOF) || s.started || !s.model.shouldRetry(s.attempt, err) {
			return "", err
		}

		logger.Warn("model stream failed before first token: %v", err)
		_ = s.cur.Close()
		s.cur = nil

		next, attempt, err := s.model.open(s.ctx, s.req, s.attempt+1)
		s.attempt = attempt
		if err != nil {
			return "", err
		}
		s.cur = next
	}
}

func (s *resilientStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
