// Package httpinference talks to the external accident classification server over HTTP.
package httpinference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/user/accidentscan/pkg/ports"
)

// DefaultEndpoint is the predict URL of a locally running model server.
const DefaultEndpoint = "http://localhost:5000/predict"

const (
	contentTypeHeader = "Content-Type"
	applicationJSON   = "application/json"
	maxErrorBody      = 512
)

var (
	// ErrInvalidEndpoint is returned for an endpoint that is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("httpinference: invalid endpoint")

	// ErrStatus is returned for a non-2xx response.
	ErrStatus = errors.New("httpinference: unexpected status")
)

// Client implements ports.InferenceClient.
// It sets no timeout of its own; callers bound requests through the context.
type Client struct {
	endpoint  string
	healthURL string
	http      *http.Client
}

// New creates a client for the given predict endpoint. The health URL is the
// endpoint's origin with path /health.
func New(endpoint string) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	health := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/health"}
	return &Client{
		endpoint:  endpoint,
		healthURL: health.String(),
		http:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}, nil
}

// Endpoint returns the predict URL.
func (c *Client) Endpoint() string { return c.endpoint }

// HealthURL returns the derived health URL.
func (c *Client) HealthURL() string { return c.healthURL }

// Predict posts the request as JSON. The body is streamed, so the tensor is
// never held twice in memory.
func (c *Client) Predict(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(json.NewEncoder(pw).Encode(req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set(contentTypeHeader, applicationJSON)

	var out ports.PredictResponse
	if err := c.do(httpReq, &out); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &out, nil
}

// Health queries the model server's health endpoint.
func (c *Client) Health(ctx context.Context) (*ports.HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out ports.HealthStatus
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w %d from %s: %s", ErrStatus, resp.StatusCode, req.URL, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ ports.InferenceClient = (*Client)(nil)
