package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	IntentCapture = "CAPTURE"

	StatusCreated   = "CREATED"
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
)

type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type AmountBreakdown struct {
	ItemTotal Money  `json:"item_total"`
	Discount  *Money `json:"discount,omitempty"`
}

type Amount struct {
	CurrencyCode string           `json:"currency_code"`
	Value        string           `json:"value"`
	Breakdown    *AmountBreakdown `json:"breakdown,omitempty"`
}

type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitAmount  Money  `json:"unit_amount"`
	Quantity    string `json:"quantity"`
	Category    string `json:"category,omitempty"`
}

type PurchaseUnit struct {
	Description string `json:"description,omitempty"`
	Amount      Amount `json:"amount"`
	Items       []Item `json:"items,omitempty"`
}

type CreateOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// ApproveURL returns the payer approval link, if PayPal sent one.
func (o Order) ApproveURL() string {
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

type Payer struct {
	PayerID string `json:"payer_id"`
	Email   string `json:"email_address"`
	Name    struct {
		GivenName string `json:"given_name"`
		Surname   string `json:"surname"`
	} `json:"name"`
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Money  `json:"amount"`
}

type CaptureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Payer         Payer  `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []Capture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// FirstCapture returns the first capture record, if any.
func (r CaptureResponse) FirstCapture() (Capture, bool) {
	for _, pu := range r.PurchaseUnits {
		if len(pu.Payments.Captures) > 0 {
			return pu.Payments.Captures[0], true
		}
	}
	return Capture{}, false
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessToken obtains an OAuth2 token with the client-credentials grant.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	resp, err := c.sendWithRetry(ctx, request{
		method: http.MethodPost,
		path:   "/v1/oauth2/token",
		body:   []byte(form.Encode()),
		form:   true,
		auth: func(r *http.Request) {
			r.SetBasicAuth(c.creds.ClientID, c.creds.Secret)
		},
	})
	if err != nil {
		return "", fmt.Errorf("access token: %w", err)
	}

	var tr tokenResponse
	if err := c.decode(resp, &tr); err != nil {
		return "", fmt.Errorf("access token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("access token: empty token in response")
	}
	return tr.AccessToken, nil
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// CreateOrder opens an order. Retries reuse one PayPal-Request-Id so PayPal
// never creates the order twice.
func (c *Client) CreateOrder(ctx context.Context, order CreateOrderRequest) (Order, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return Order{}, err
	}
	body, err := json.Marshal(order)
	if err != nil {
		return Order{}, fmt.Errorf("create order: encode: %w", err)
	}

	requestID := uuid.NewString()
	resp, err := c.sendWithRetry(ctx, request{
		method:  http.MethodPost,
		path:    "/v2/checkout/orders",
		body:    body,
		auth:    bearer(token),
		headers: http.Header{"Paypal-Request-Id": {requestID}},
	})
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	var out Order
	if err := c.decode(resp, &out); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	c.logger.Info("paypal order created",
		zap.String("order_id", out.ID),
		zap.String("status", out.Status),
		zap.String("request_id", requestID),
	)
	return out, nil
}

// CaptureOrder captures an approved order. It is attempted exactly once.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (CaptureResponse, error) {
	if !ValidOrderID(orderID) {
		return CaptureResponse{}, fmt.Errorf("capture order: invalid order id %q", orderID)
	}
	token, err := c.AccessToken(ctx)
	if err != nil {
		return CaptureResponse{}, err
	}

	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/v2/checkout/orders/" + orderID + "/capture",
		body:   []byte("{}"),
		auth:   bearer(token),
	})
	if err != nil {
		return CaptureResponse{}, fmt.Errorf("capture order %s: %w", orderID, err)
	}

	var out CaptureResponse
	if err := c.decode(resp, &out); err != nil {
		return CaptureResponse{}, fmt.Errorf("capture order %s: %w", orderID, err)
	}
	c.logger.Info("paypal order captured", zap.String("order_id", out.ID), zap.String("status", out.Status))
	return out, nil
}

// ValidOrderID accepts PayPal's alphanumeric order ids.
func ValidOrderID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
