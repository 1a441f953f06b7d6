package upstream

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"provenance/internal/platform/metrics"
)

// DefaultTimeout bounds every upstream round trip.
const DefaultTimeout = 30 * time.Second

const maxResponseBytes = 1 << 20

// Response is a fully read upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client executes requests against one named upstream, adding tracing,
// latency metrics and error classification.
type Client struct {
	name    string
	http    *http.Client
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for the named upstream. A zero timeout uses DefaultTimeout.
func NewClient(name string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		name:   name,
		http:   &http.Client{Timeout: timeout},
		tracer: otel.Tracer("provenance/internal/upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the upstream in errors and metrics.
func (c *Client) Name() string {
	return c.name
}

// Do sends req and reads the body. Non-2xx responses are returned together
// with a classified *Error so callers can inspect the status.
func (c *Client) Do(operation string, req *http.Request) (*Response, error) {
	ctx, span := c.tracer.Start(req.Context(), c.name+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.name", c.name),
			attribute.String("http.method", req.Method),
			attribute.String("http.host", req.URL.Host),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		uerr := FromTransport(c.name, operation, err)
		c.finish(span, operation, start, uerr)
		return nil, uerr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		uerr := FromTransport(c.name, operation, err)
		c.finish(span, operation, start, uerr)
		return nil, uerr
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		uerr := FromResponse(c.name, operation, resp.StatusCode, body)
		c.finish(span, operation, start, uerr)
		return out, uerr
	}
	c.finish(span, operation, start, nil)
	return out, nil
}

// DoJSON sends req and decodes a 2xx JSON body into out.
func (c *Client) DoJSON(operation string, req *http.Request, out any) error {
	resp, err := c.Do(operation, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return NewError(CategoryBadResponse, c.name, operation, "decode response body", err)
	}
	return nil
}

func (c *Client) finish(span trace.Span, operation string, start time.Time, err *Error) {
	outcome := "success"
	if err != nil {
		outcome = string(err.Category)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(err.Category))
	}
	c.metrics.ObserveUpstream(c.name, operation, outcome, time.Since(start))
}
