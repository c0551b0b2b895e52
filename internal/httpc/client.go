// Package httpc queries a running framedigest server.
package httpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/framedigest/pkg/digest"
	"github.com/teslashibe/framedigest/pkg/web"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultConnectTimeout = 2 * time.Second
)

// maxBody caps what is read from a response. Digest bodies are 128 bytes.
const maxBody = 64 << 10

// Client is a shared HTTP client with short timeouts for local probes.
var Client = NewClient(DefaultTimeout)

// NewClient creates an HTTP client with the specified timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: DefaultConnectTimeout,
			}).DialContext,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// Digest fetches baseURL and returns the hex digest, checking that it is
// 128 lowercase hex characters.
func Digest(ctx context.Context, baseURL string) (string, error) {
	body, err := get(ctx, baseURL)
	if err != nil {
		return "", err
	}
	s := string(body)
	if len(s) != 2*digest.Size || strings.ToLower(s) != s {
		return "", fmt.Errorf("digest: malformed response %q", truncate(s, 32))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return s, nil
}

// Health fetches baseURL's /health document.
func Health(ctx context.Context, baseURL string) (*web.HealthResponse, error) {
	body, err := get(ctx, strings.TrimSuffix(baseURL, "/")+"/health")
	if err != nil {
		return nil, err
	}
	var h web.HealthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("health: decode: %w", err)
	}
	return &h, nil
}

func get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
