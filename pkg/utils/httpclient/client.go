// Package httpclient provides a reusable HTTP client with retry logic and
// W3C trace-context propagation for outbound collaborator calls.
package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kinko-io/faq-service/pkg/utils/json"
)

// Client wraps http.Client with bounded retries on server errors.
type Client struct {
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new HTTP client wrapper.
func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
	}
}

// DoRequest executes an HTTP request, retrying 5xx responses and transport
// errors with linear backoff. Request bodies are buffered so retries can
// replay them; collaborator payloads are small.
func (c *Client) DoRequest(req *http.Request) (*http.Response, error) {
	c.injectTraceContext(req)

	var lastErr error

	var bodyGetter func() (io.ReadCloser, error)
	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
		bodyGetter = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	for i := 0; i <= c.maxRetries; i++ {
		if bodyGetter != nil {
			var err error
			req.Body, err = bodyGetter()
			if err != nil {
				return nil, err
			}
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			if resp.StatusCode < 500 {
				return resp, nil
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error, status code %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		if i < c.maxRetries {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			}
		}
	}
	return nil, lastErr
}

// DoJSON executes a JSON request, decodes the response, and ensures the body
// is closed.
func (c *Client) DoJSON(req *http.Request, v interface{}) error {
	resp, err := c.DoRequest(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// injectTraceContext propagates the current span's W3C trace context to the
// outbound request headers. Skipped when no propagator or span is active.
func (c *Client) injectTraceContext(req *http.Request) {
	if req == nil || req.Context() == nil {
		return
	}

	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		return
	}

	propagator.Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}
