package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitfox/FitFox/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// StripeGateway implements PaymentGateway against Stripe's customer-centric
// billing API: one customer per account, a default card, and a single
// per-customer subscription whose plan we set and cancel.
type StripeGateway struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

var _ PaymentGateway = (*StripeGateway)(nil)

// NewStripeGatewayFromEnv builds a gateway client from STRIPE_* env vars.
func NewStripeGatewayFromEnv() *StripeGateway {
	return &StripeGateway{
		APIKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (g *StripeGateway) CreateProfile(ctx context.Context, identity, email string) (string, error) {
	form := url.Values{}
	form.Set("description", identity)
	form.Set("email", email)

	var out struct {
		ID string `json:"id"`
	}
	if err := g.do(ctx, http.MethodPost, "/customers", form, "create_profile", &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", &GatewayError{Kind: ErrGatewayUnavailable, Op: "create_profile", Message: "provider returned no customer id"}
	}
	return out.ID, nil
}

func (g *StripeGateway) DeleteProfile(ctx context.Context, profileID string) error {
	return g.do(ctx, http.MethodDelete, "/customers/"+url.PathEscape(profileID), nil, "delete_profile", nil)
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, profileID, methodToken string) (string, error) {
	form := url.Values{}
	form.Set("source", methodToken)

	var out struct {
		Last4 string `json:"last4"`
		Card  struct {
			Last4 string `json:"last4"`
		} `json:"card"`
	}
	path := "/customers/" + url.PathEscape(profileID) + "/sources"
	if err := g.do(ctx, http.MethodPost, path, form, "attach_payment_method", &out); err != nil {
		return "", err
	}

	last4 := out.Last4
	if last4 == "" {
		last4 = out.Card.Last4
	}
	if last4 == "" {
		return "", &GatewayError{Kind: ErrGatewayUnavailable, Op: "attach_payment_method", Message: "provider returned no card digits"}
	}
	return last4, nil
}

func (g *StripeGateway) SetPlan(ctx context.Context, profileID, planSlug string) error {
	form := url.Values{}
	form.Set("plan", planSlug)

	path := "/customers/" + url.PathEscape(profileID) + "/subscription"
	return g.do(ctx, http.MethodPost, path, form, "set_plan", nil)
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, profileID string) error {
	path := "/customers/" + url.PathEscape(profileID) + "/subscription"
	return g.do(ctx, http.MethodDelete, path, nil, "cancel_subscription", nil)
}

func (g *StripeGateway) CardCount(ctx context.Context, profileID string) (int, error) {
	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	path := "/customers/" + url.PathEscape(profileID) + "/sources?object=card"
	if err := g.do(ctx, http.MethodGet, path, nil, "card_count", &out); err != nil {
		return 0, err
	}
	return len(out.Data), nil
}

// do runs one form-encoded API call and decodes the JSON response into out.
// Non-2xx responses are mapped onto the billing error taxonomy; transport
// errors and timeouts come back as ErrGatewayUnavailable.
func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values, op string, out any) error {
	if strings.TrimSpace(g.APIKey) == "" {
		return errors.New("STRIPE_SECRET_KEY is not configured")
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.APIBaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.APIKey, "")
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return &GatewayError{Kind: ErrGatewayUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return g.mapError(op, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &GatewayError{Kind: ErrGatewayUnavailable, Op: op, Err: fmt.Errorf("decoding provider response: %w", err)}
	}
	return nil
}

func (g *StripeGateway) mapError(op string, status int, body []byte) error {
	var raw struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &raw)

	msg := strings.TrimSpace(raw.Error.Message)
	if msg == "" {
		msg = fmt.Sprintf("provider returned status %d", status)
	}

	kind := ErrGatewayUnavailable
	switch {
	case status == http.StatusPaymentRequired || raw.Error.Type == "card_error":
		kind = ErrPaymentRejected
	case status >= 400 && status < 500:
		kind = ErrGatewayRejected
	}

	return &GatewayError{Kind: kind, Op: op, Message: msg}
}
