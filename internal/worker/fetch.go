package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxTileBytes = 16 << 20 // refuse pathological tile payloads

// newHTTPClient returns the client worker sources fetch tile bytes with.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

// fetchBytes GETs url, honoring ctx cancellation mid-request.
func fetchBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	if len(data) > maxTileBytes {
		return nil, fmt.Errorf("fetch %s: payload exceeds %d bytes", url, maxTileBytes)
	}
	return data, nil
}
