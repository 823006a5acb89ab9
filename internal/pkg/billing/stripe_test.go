package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &StripeGateway{
		APIKey:     "sk_test_123",
		APIBaseURL: srv.URL,
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestStripeCreateProfile(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/customers", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "sk_test_123", user)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("description"))
		assert.Equal(t, "a@example.com", r.PostForm.Get("email"))
		w.Write([]byte(`{"id":"cus_abc"}`))
	})

	id, err := gw.CreateProfile(context.Background(), "42", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_abc", id)
}

func TestStripeAttachPaymentMethod(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/cus_abc/sources", r.URL.Path)
		w.Write([]byte(`{"id":"card_1","last4":"4242"}`))
	})

	last4, err := gw.AttachPaymentMethod(context.Background(), "cus_abc", "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, "4242", last4)
}

func TestStripeCardErrorMapsToPaymentRejected(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	})

	_, err := gw.AttachPaymentMethod(context.Background(), "cus_abc", "tok_chargeDeclined")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaymentRejected)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Your card was declined.", gwErr.Message)
}

func TestStripeBadRequestMapsToGatewayRejected(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such plan: pro-yearly"}}`))
	})

	err := gw.SetPlan(context.Background(), "cus_abc", "pro-yearly")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayRejected)
	assert.NotErrorIs(t, err, ErrPaymentRejected)
}

func TestStripeServerErrorMapsToUnavailable(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := gw.CancelSubscription(context.Background(), "cus_abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestStripeTransportErrorMapsToUnavailable(t *testing.T) {
	gw := &StripeGateway{
		APIKey:     "sk_test_123",
		APIBaseURL: "http://127.0.0.1:1", // nothing listens here
		HTTPClient: &http.Client{Timeout: 200 * time.Millisecond},
	}

	_, err := gw.CreateProfile(context.Background(), "42", "a@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestStripeCardCount(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/cus_abc/sources", r.URL.Path)
		require.Equal(t, "card", r.URL.Query().Get("object"))
		w.Write([]byte(`{"data":[{"id":"card_1"},{"id":"card_2"}]}`))
	})

	n, err := gw.CardCount(context.Background(), "cus_abc")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
