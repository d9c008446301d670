// Package shell hosts the desktop side of the app: waiting for the local
// server and pointing a native window at it.
package shell

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const pollInterval = 50 * time.Millisecond

// WaitReady polls url until it answers 200 OK or timeout elapses.
func WaitReady(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: time.Second}
	var lastErr error
	for {
		lastErr = probe(ctx, client, url)
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("shell: %s not ready after %s: %w", url, timeout, errors.Join(ctx.Err(), lastErr))
		case <-time.After(pollInterval):
		}
	}
}

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
