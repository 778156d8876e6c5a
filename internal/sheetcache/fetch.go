// Package sheetcache gets the spreadsheet payload into the game: from a
// bundled file, from a Redis cache, or from the remote sheet backend in the
// background.
package sheetcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxPayloadBytes bounds a remote payload.
const maxPayloadBytes = 8 << 20

// Fetcher downloads the payload from the sheet backend.
type Fetcher struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewFetcher(url string, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{url: url, client: client, logger: logger}
}

// Fetch performs a blocking GET.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("Failed to close sheet response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet backend returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet response: %w", err)
	}
	if len(data) > maxPayloadBytes {
		return nil, fmt.Errorf("sheet payload exceeds %d bytes", maxPayloadBytes)
	}

	f.logger.Debug("Sheet fetched", "url", f.url, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

// FetchAsync runs Fetch on its own goroutine and delivers the result to
// done. It returns immediately; done runs on the fetch goroutine.
func (f *Fetcher) FetchAsync(ctx context.Context, done func([]byte, error)) {
	go func() {
		data, err := f.Fetch(ctx)
		done(data, err)
	}()
}
