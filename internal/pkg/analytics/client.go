package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fitfox/FitFox/internal/pkg/env"
)

const defaultTrackURL = "https://api.segment.io/v1/track"

// Client sends billing events to the analytics backend. It is a plain HTTP
// client; callers treat it as fire-and-forget and only log failures.
type Client struct {
	WriteKey string
	TrackURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds an analytics client from SEGMENT_* env vars.
func NewClientFromEnv() *Client {
	return &Client{
		WriteKey: strings.TrimSpace(env.GetEnv("SEGMENT_WRITE_KEY", "")),
		TrackURL: strings.TrimSpace(env.GetEnv("SEGMENT_TRACK_URL", defaultTrackURL)),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type trackPayload struct {
	UserID     string         `json:"userId"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

// Track records one event for one user.
func (c *Client) Track(ctx context.Context, userID uint, event string, properties map[string]any) error {
	if strings.TrimSpace(c.WriteKey) == "" {
		return errors.New("SEGMENT_WRITE_KEY is not configured")
	}
	if strings.TrimSpace(event) == "" {
		return errors.New("event name is required")
	}

	body, err := json.Marshal(trackPayload{
		UserID:     fmt.Sprint(userID),
		Event:      event,
		Properties: properties,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TrackURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.WriteKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("analytics track failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return nil
}
