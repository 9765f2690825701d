// Package moderation classifies text as safe or unsafe through an external
// oracle.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"trustrag/pkg/platform/circuit"
	"trustrag/pkg/platform/sentinel"
)

// Verdict is the oracle's answer.
type Verdict string

const (
	VerdictSafe   Verdict = "SAFE"
	VerdictUnsafe Verdict = "UNSAFE"
)

// Classifier decides whether text is acceptable.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// NoopClassifier approves everything. It stands in when no oracle is
// configured.
type NoopClassifier struct{}

func (NoopClassifier) Classify(context.Context, string) (Verdict, error) { return VerdictSafe, nil }

// ErrOracleUnavailable is returned without a network call while the breaker
// is open.
var ErrOracleUnavailable = fmt.Errorf("moderation oracle: %w", sentinel.ErrUnavailable)

const maxResponseBytes = 64 * 1024

// HTTPClassifier posts {"text": ...} and reads {"verdict": "SAFE|UNSAFE"}.
type HTTPClassifier struct {
	url     string
	timeout time.Duration
	httpDo  func(*http.Request) (*http.Response, error)
	breaker *circuit.Breaker

	cooldown  time.Duration
	now       func() time.Time
	nextProbe atomic.Int64
}

type HTTPOption func(*HTTPClassifier)

func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClassifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClassifier) {
		if hc != nil {
			c.httpDo = hc.Do
		}
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(c *HTTPClassifier) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithCooldown sets how long an open breaker skips calls after a failure.
func WithCooldown(d time.Duration) HTTPOption {
	return func(c *HTTPClassifier) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

func WithClock(now func() time.Time) HTTPOption {
	return func(c *HTTPClassifier) {
		if now != nil {
			c.now = now
		}
	}
}

func NewHTTPClassifier(url string, opts ...HTTPOption) (*HTTPClassifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("moderation url is required")
	}
	c := &HTTPClassifier{
		url:      url,
		timeout:  3 * time.Second,
		httpDo:   http.DefaultClient.Do,
		breaker:  circuit.New("moderation"),
		cooldown: 30 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Verdict string `json:"verdict"`
}

// Classify calls the oracle. Only an explicit UNSAFE verdict is unsafe.
// While the breaker is open, calls within the cooldown after the last failure
// return ErrOracleUnavailable without touching the network.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Verdict, error) {
	now := c.now()
	if c.breaker.IsOpen() && now.UnixNano() < c.nextProbe.Load() {
		return "", ErrOracleUnavailable
	}

	v, err := c.call(ctx, text)
	if err != nil {
		c.breaker.RecordFailure()
		c.nextProbe.Store(now.Add(c.cooldown).UnixNano())
		return "", err
	}
	c.breaker.RecordSuccess()
	return v, nil
}

// Degraded reports whether the breaker is open.
func (c *HTTPClassifier) Degraded() bool { return c.breaker.IsOpen() }

func (c *HTTPClassifier) call(ctx context.Context, text string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("moderation oracle: %w", sentinel.ErrTimeout)
		}
		return "", fmt.Errorf("moderation oracle: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read moderation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("moderation oracle returned status %d", resp.StatusCode)
	}
	var out classifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode moderation response: %w", err)
	}
	if Verdict(strings.ToUpper(strings.TrimSpace(out.Verdict))) == VerdictUnsafe {
		return VerdictUnsafe, nil
	}
	return VerdictSafe, nil
}
