package dl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Laky-64/gologging"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultHeaderTimeout  = 30 * time.Second
	maxRetries            = 3
	initialBackoff        = 1 * time.Second
)

// HTTPBackend downloads direct audio links over plain HTTP.
type HTTPBackend struct {
	Client  *http.Client
	Backoff time.Duration
}

// NewHTTPBackend returns a backend with a shared client tuned for large bodies.
// The client has no overall timeout; the caller's context bounds the transfer.
func NewHTTPBackend() *HTTPBackend {
	return &HTTPBackend{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				TLSHandshakeTimeout:   defaultConnectTimeout,
				ResponseHeaderTimeout: defaultHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          100,
			},
		},
		Backoff: initialBackoff,
	}
}

// Fetch copies the body of url into w.
func (h *HTTPBackend) Fetch(ctx context.Context, url string, w io.Writer) error {
	resp, err := h.sendRequest(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code received: %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to copy the response body: %w", err)
	}
	return nil
}

// sendRequest performs an HTTP request, retrying with exponential backoff on temporary
// network errors and server-side failures.
func (h *HTTPBackend) sendRequest(ctx context.Context, method, fullURL string) (*http.Response, error) {
	var reqErr error
	backoff := h.Backoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
		req.Header.Set("Accept", "*/*")

		resp, err := h.Client.Do(req)
		if err == nil {
			if resp.StatusCode < 500 {
				return resp, nil
			}
			if err := resp.Body.Close(); err != nil {
				gologging.WarnF("failed to close response body: %v", err)
			}
			reqErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			continue
		}

		reqErr = err
		if !isTemporaryError(err) {
			break
		}
		gologging.InfoF("Temporary error on attempt %d/%d: %v", attempt+1, maxRetries, err)
	}

	return nil, fmt.Errorf("request failed: %w", reqErr)
}

// isTemporaryError reports whether err is a network timeout worth retrying.
func isTemporaryError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
