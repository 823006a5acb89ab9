package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack(t *testing.T) {
	var got trackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "wk_test", user)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{
		WriteKey:   "wk_test",
		TrackURL:   srv.URL,
		HTTPClient: &http.Client{Timeout: time.Second},
	}

	err := c.Track(context.Background(), 7, "Changed plan", map[string]any{"plan": "pro", "revenue": 49.0})
	require.NoError(t, err)

	assert.Equal(t, "7", got.UserID)
	assert.Equal(t, "Changed plan", got.Event)
	assert.Equal(t, "pro", got.Properties["plan"])
}

func TestTrackRequiresConfig(t *testing.T) {
	c := &Client{HTTPClient: http.DefaultClient}
	err := c.Track(context.Background(), 1, "Cancelled Subscription", nil)
	require.Error(t, err)
}

func TestTrackServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{WriteKey: "wk_test", TrackURL: srv.URL, HTTPClient: &http.Client{Timeout: time.Second}}
	err := c.Track(context.Background(), 1, "Expired Subscription", nil)
	require.Error(t, err)
}
