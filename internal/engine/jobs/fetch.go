package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	stealth "github.com/anatolykoptev/go-stealth"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

const maxAPIBody = 10 << 20

// getBody performs a GET with retries on transient statuses and returns the body
// of a 200 response.
func getBody(ctx context.Context, client *http.Client, rawURL string, params url.Values, headers map[string]string) ([]byte, error) {
	if client == nil {
		client = engine.Cfg.HTTPClient
	}
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	resp, err := stealth.RetryHTTP(ctx, stealth.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return client.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAPIBody))
}
