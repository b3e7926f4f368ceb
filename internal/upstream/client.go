// Package upstream is the typed client for the insurance platform REST API.
// The backend stays an opaque collaborator: this package shapes requests,
// attaches the bearer credential, and translates error payloads; it never
// implements business rules.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coverdesk/internal/token"
	dErrors "coverdesk/pkg/domain-errors"
	"coverdesk/pkg/platform/circuit"
)

// Client calls the insurance platform API. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	store   token.Store
	logger  *slog.Logger
	tracer  trace.Tracer
	breaker *circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBreaker replaces the default circuit breaker, mainly to tighten
// thresholds in tests.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// New builds a client. store supplies the bearer credential for
// authenticated calls; public calls work with a cold store.
func New(baseURL string, store token.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
		logger:  slog.Default(),
		tracer:  otel.Tracer("coverdesk/upstream"),
		breaker: circuit.New("upstream"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// errorPayload matches the backend's two error shapes: a single message or a
// field-keyed errors map.
type errorPayload struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (p errorPayload) flatten() string {
	if p.Message != "" {
		return p.Message
	}
	if len(p.Errors) > 0 {
		parts := make([]string, 0, len(p.Errors))
		for field, msg := range p.Errors {
			parts = append(parts, field+": "+msg)
		}
		return strings.Join(parts, "; ")
	}
	return "request failed"
}

func statusToCode(status int) dErrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return dErrors.CodeBadRequest
	case http.StatusUnauthorized:
		return dErrors.CodeUnauthorized
	case http.StatusForbidden:
		return dErrors.CodeForbidden
	case http.StatusNotFound:
		return dErrors.CodeNotFound
	case http.StatusConflict:
		return dErrors.CodeConflict
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return dErrors.CodeUnavailable
	default:
		return dErrors.CodeInternal
	}
}

// do performs one round-trip. out may be nil for calls with no response body
// of interest.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	return c.doRaw(ctx, method, path, "application/json", reader, out)
}

func (c *Client) doRaw(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	ctx, span := c.tracer.Start(ctx, "upstream "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	if !c.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		return dErrors.New(dErrors.CodeUnavailable, "insurance platform unreachable")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if cred, err := c.store.Get(ctx); err == nil && cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "upstream circuit opened")
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "insurance platform unreachable", err)
	}
	defer resp.Body.Close()

	// Any HTTP response means the platform is reachable; only transport
	// failures count against the circuit.
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "upstream circuit closed")
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		var payload errorPayload
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload)
		code := statusToCode(resp.StatusCode)
		span.SetStatus(codes.Error, string(code))
		c.logger.WarnContext(ctx, "upstream call failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return dErrors.New(code, payload.flatten())
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			return dErrors.Wrap(dErrors.CodeInternal, "malformed upstream response", err)
		}
	}
	return nil
}
