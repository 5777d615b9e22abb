package kiosk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SnapshotCamera pulls single JPEG frames from an IP camera snapshot URL.
type SnapshotCamera struct {
	URL  string
	HTTP *http.Client
}

// NewSnapshotCamera creates a camera client with a short per-frame timeout.
func NewSnapshotCamera(url string) *SnapshotCamera {
	return &SnapshotCamera{
		URL:  url,
		HTTP: &http.Client{Timeout: 4 * time.Second},
	}
}

// Capture fetches one frame.
func (c *SnapshotCamera) Capture(ctx context.Context) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("camera snapshot url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("camera error %s", resp.Status)
	}
	frame, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	return frame, nil
}

// Close is a no-op; the snapshot endpoint holds no stream.
func (c *SnapshotCamera) Close() error { return nil }
