package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

// OrderAPI is the trusted server as the checkout sees it.
type OrderAPI interface {
	CreateOrder(ctx context.Context, items []cart.LineItem) (order.Quote, error)
	Capture(ctx context.Context, orderID string) (order.CaptureResult, error)
}

type PricingPolicy struct {
	DiscountThresholdQuantity int    `json:"discountThresholdQuantity"`
	DiscountRate              string `json:"discountRate"`
	CurrencyCode              string `json:"currencyCode"`
	DefaultUnitPrice          string `json:"defaultUnitPrice"`
}

// Client calls the storefront API over HTTP.
type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid storefront api url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{Name: "storefront-api", BaseURL: u, HTTP: httpClient}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}

	// JoinPath keeps any path prefix on BaseURL; path is already escaped.
	u := c.BaseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	return resp, nil
}

type wireItem struct {
	ProductName string      `json:"productName"`
	Color       string      `json:"color"`
	TopLine     string      `json:"topLine"`
	BottomLine  string      `json:"bottomLine"`
	Dedication  string      `json:"dedication"`
	Price       json.Number `json:"price"`
	Quantity    int         `json:"quantity"`
}

func (c *Client) CreateOrder(ctx context.Context, items []cart.LineItem) (order.Quote, error) {
	const op = "create order"
	body := struct {
		Cart []wireItem `json:"cart"`
	}{Cart: make([]wireItem, 0, len(items))}
	for _, it := range items {
		body.Cart = append(body.Cart, wireItem{
			ProductName: it.ProductName,
			Color:       it.Color,
			TopLine:     it.TopLine,
			BottomLine:  it.BottomLine,
			Dedication:  it.Dedication,
			Price:       json.Number(it.UnitPrice.String()),
			Quantity:    it.Quantity,
		})
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/create-order", body)
	if err != nil {
		return order.Quote{}, err
	}
	defer resp.Body.Close()

	var out struct {
		OrderID string      `json:"orderID"`
		Quote   order.Quote `json:"quote"`
	}
	if err := readResponse(op, resp, &out); err != nil {
		return order.Quote{}, err
	}
	if out.OrderID == "" {
		return order.Quote{}, &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: "response has no order id"}
	}
	out.Quote.OrderID = out.OrderID
	return out.Quote, nil
}

func (c *Client) Capture(ctx context.Context, orderID string) (order.CaptureResult, error) {
	const op = "capture order"
	resp, err := c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(orderID)+"/capture", nil)
	if err != nil {
		return order.CaptureResult{}, err
	}
	defer resp.Body.Close()

	var out order.CaptureResult
	if err := readResponse(op, resp, &out); err != nil {
		return order.CaptureResult{}, err
	}
	return out, nil
}

func (c *Client) PricingPolicy(ctx context.Context) (PricingPolicy, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/pricing-policy", nil)
	if err != nil {
		return PricingPolicy{}, err
	}
	defer resp.Body.Close()

	var out PricingPolicy
	if err := readResponse("pricing policy", resp, &out); err != nil {
		return PricingPolicy{}, err
	}
	return out, nil
}

func readResponse(op string, resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			return &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response"}
		}
		return nil
	}

	var e struct {
		Error   string        `json:"error"`
		Details []ItemProblem `json:"details"`
	}
	_ = json.Unmarshal(body, &e)
	if e.Error == "" {
		e.Error = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return &RejectedError{Message: e.Error, Details: e.Details}
	case resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusGatewayTimeout ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: e.Error}
	case resp.StatusCode >= 500:
		return &TransportError{Op: op, Err: errors.New(strconv.Itoa(resp.StatusCode) + " " + e.Error)}
	default:
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: e.Error}
	}
}
