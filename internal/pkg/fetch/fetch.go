// Package fetch performs traced, metered JSON GETs against upstream APIs.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/mapgood/internal/pkg/metrics"
)

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Service string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.Service, e.Status)
}

// Client issues GET requests on behalf of one upstream service.
type Client struct {
	service   string
	userAgent string
	timeout   time.Duration
	http      *fasthttp.Client
	tracer    trace.Tracer
}

// New creates a Client. service labels spans and metrics.
func New(service, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		service:   service,
		userAgent: userAgent,
		timeout:   timeout,
		http: &fasthttp.Client{
			Name:                userAgent,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		tracer: otel.Tracer("mapgood/" + service),
	}
}

// GetJSON fetches url and returns the raw body once the status is 2xx.
// The body is validated as JSON but not decoded.
func (c *Client) GetJSON(ctx context.Context, url string) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, c.service+".get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", fasthttp.MethodGet),
			attribute.String("http.url", url),
		))
	defer span.End()

	start := time.Now()
	body, err := c.get(ctx, url, span)
	metrics.ObserveLookup(c.service, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string, span trace.Span) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", c.service, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.userAgent != "" {
		req.Header.SetUserAgent(c.userAgent)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("%s: request timed out after %s", c.service, timeout)
		}
		return nil, fmt.Errorf("%s: GET %s: %w", c.service, url, err)
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status < 200 || status > 299 {
		return nil, &StatusError{Service: c.service, Status: status}
	}

	body := append(json.RawMessage(nil), resp.Body()...)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: response is not valid JSON", c.service)
	}
	return body, nil
}
