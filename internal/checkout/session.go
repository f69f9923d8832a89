// Package checkout runs the client side of an order: quote the cart on the
// trusted server, hand the order to the payer for approval, capture, and
// clear the cart only once capture is confirmed.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

// CartStore is what a checkout needs from the cart.
type CartStore interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context) (cart.Snapshot, error)
}

// Approval is the payer's consent for one order.
type Approval struct {
	OrderID string
	PayerID string
}

// Approver drives the provider's approval flow. It returns ErrCanceled when
// the payer closes the flow.
type Approver interface {
	Approve(ctx context.Context, quote order.Quote) (Approval, error)
}

type ApproverFunc func(ctx context.Context, quote order.Quote) (Approval, error)

func (f ApproverFunc) Approve(ctx context.Context, q order.Quote) (Approval, error) { return f(ctx, q) }

// Receipt is the outcome of a captured order.
type Receipt struct {
	Quote   order.Quote
	Capture order.CaptureResult
}

func (r Receipt) Message() string { return r.Capture.Message() }

type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

type Options struct {
	Retry  RetryPolicy
	Logger *zap.Logger
	// OnTransition runs under the checkout lock; it must not call back
	// into the Checkout.
	OnTransition func(from, to State)
}

// Checkout is one client's order submission state machine.
type Checkout struct {
	store CartStore
	api   OrderAPI
	retry RetryPolicy
	log   *zap.Logger
	hook  func(from, to State)

	mu      sync.Mutex
	state   State
	quote   order.Quote
	attempt uint64
}

func New(store CartStore, api OrderAPI, opts Options) *Checkout {
	if opts.Retry.Attempts < 1 {
		opts.Retry.Attempts = 3
	}
	if opts.Retry.Backoff <= 0 {
		opts.Retry.Backoff = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Checkout{
		store: store,
		api:   api,
		retry: opts.Retry,
		log:   opts.Logger,
		hook:  opts.OnTransition,
		state: StateIdle,
	}
}

func (c *Checkout) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setLocked moves to next. c.mu must be held.
func (c *Checkout) setLocked(next State) {
	from := c.state
	if !CanTransition(from, next) {
		c.log.Error("illegal checkout transition", zap.Stringer("from", from), zap.Stringer("to", next))
		return
	}
	c.state = next
	c.log.Debug("checkout transition", zap.Stringer("from", from), zap.Stringer("to", next))
	if c.hook != nil {
		c.hook(from, next)
	}
}

// CreateOrder quotes the current cart and returns the provider order id.
// Each call starts a new attempt; an order awaiting capture is abandoned.
func (c *Checkout) CreateOrder(ctx context.Context) (string, error) {
	q, err := c.createOrder(ctx)
	return q.OrderID, err
}

func (c *Checkout) createOrder(ctx context.Context) (order.Quote, error) {
	snap := c.store.Snapshot()
	if snap.Len() == 0 {
		return order.Quote{}, cart.ErrEmptyCart
	}

	c.mu.Lock()
	switch c.state {
	case StateQuoting, StateCapturing:
		c.mu.Unlock()
		return order.Quote{}, ErrBusy
	case StateCaptured:
		c.setLocked(StateIdle)
	}
	c.quote = order.Quote{}
	c.attempt++
	attempt := c.attempt
	c.setLocked(StateQuoting)
	c.mu.Unlock()

	q, err := c.quoteWithRetry(ctx, snap.Items)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateQuoting || c.attempt != attempt {
		// OnCancel ran while the request was in flight.
		return order.Quote{}, ErrCanceled
	}
	if err != nil {
		c.failLocked("create order", err)
		return order.Quote{}, err
	}
	c.quote = q
	c.setLocked(StateAwaitingCapture)
	c.log.Info("order created", zap.String("order_id", q.OrderID), zap.String("total", q.Total))
	return q, nil
}

func (c *Checkout) quoteWithRetry(ctx context.Context, items []cart.LineItem) (order.Quote, error) {
	delay := c.retry.Backoff
	var lastErr error
	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		q, err := c.api.CreateOrder(ctx, items)
		if err == nil {
			return q, nil
		}
		lastErr = err

		var te *TransportError
		if !errors.As(err, &te) || attempt == c.retry.Attempts {
			break
		}
		c.log.Warn("create order failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return order.Quote{}, &TransportError{Op: "create order", Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}
	return order.Quote{}, lastErr
}

// OnApprove captures the approved order and, only on confirmed capture,
// clears the cart. Capture is attempted once; while it is in flight the
// attempt cannot be canceled or replaced, and other approvals get ErrBusy.
func (c *Checkout) OnApprove(ctx context.Context, a Approval) (Receipt, error) {
	c.mu.Lock()
	switch c.state {
	case StateAwaitingCapture:
	case StateCapturing:
		c.mu.Unlock()
		return Receipt{}, ErrBusy
	default:
		c.mu.Unlock()
		return Receipt{}, ErrNoOrder
	}
	q := c.quote
	if a.OrderID != "" && a.OrderID != q.OrderID {
		c.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: approval is for %s, awaiting %s", ErrNoOrder, a.OrderID, q.OrderID)
	}
	c.setLocked(StateCapturing)
	c.mu.Unlock()

	res, err := c.api.Capture(ctx, q.OrderID)

	c.mu.Lock()
	if err != nil {
		c.failLocked("capture", err)
		c.mu.Unlock()
		return Receipt{}, err
	}
	c.setLocked(StateCaptured)
	c.mu.Unlock()

	// Only the call that moved the attempt to Capturing gets here, so the
	// cart is cleared once per captured order.
	receipt := Receipt{Quote: q, Capture: res}
	if _, cerr := c.store.Clear(ctx); cerr != nil {
		c.log.Error("payment captured but cart not cleared", zap.String("order_id", q.OrderID), zap.Error(cerr))
		return receipt, fmt.Errorf("clear cart after capture: %w", cerr)
	}
	c.log.Info("order captured", zap.String("order_id", q.OrderID), zap.String("capture_id", res.CaptureID))
	return receipt, nil
}

// OnError records a provider-side failure reported outside the request
// flow, such as an error from the approval widget.
func (c *Checkout) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateQuoting || c.state == StateAwaitingCapture {
		c.failLocked("provider", err)
	}
}

// OnCancel abandons the current attempt. The cart is untouched. A capture
// already in flight is not affected.
func (c *Checkout) OnCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateQuoting || c.state == StateAwaitingCapture {
		c.log.Info("checkout canceled", zap.String("order_id", c.quote.OrderID))
		c.quote = order.Quote{}
		c.setLocked(StateIdle)
	}
}

func (c *Checkout) failLocked(op string, err error) {
	c.log.Warn("checkout failed", zap.String("op", op), zap.Error(err))
	c.quote = order.Quote{}
	c.setLocked(StateFailed)
	c.setLocked(StateIdle)
}

// Run performs one full attempt: quote, approval, capture.
func (c *Checkout) Run(ctx context.Context, approver Approver) (Receipt, error) {
	q, err := c.createOrder(ctx)
	if err != nil {
		return Receipt{}, err
	}

	approval, err := approver.Approve(ctx, q)
	if err != nil {
		if errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) {
			c.OnCancel()
			return Receipt{}, ErrCanceled
		}
		c.OnError(err)
		return Receipt{}, err
	}
	if approval.OrderID == "" {
		approval.OrderID = q.OrderID
	}
	return c.OnApprove(ctx, approval)
}
