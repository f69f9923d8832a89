package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/commands"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/projection"
)

type app struct {
	store    *cart.Store
	handlers *commands.Handlers
	proj     *projection.Projector
	api      *checkout.Client
	cfg      config.Client
	logger   *zap.Logger
	in       *bufio.Reader
	out      io.Writer
}

func newApp(store *cart.Store, api *checkout.Client, cfg config.Client, logger *zap.Logger, in io.Reader, out io.Writer) *app {
	proj := projection.NewProjector(cfg.Policy, logger.Named("projection"))
	store.Subscribe(proj)
	return &app{
		store:    store,
		handlers: commands.New(store, cfg.UnitPrice, logger.Named("commands")),
		proj:     proj,
		api:      api,
		cfg:      cfg,
		logger:   logger,
		in:       bufio.NewReader(in),
		out:      out,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func (a *app) dispatch(ctx context.Context, view string, args []string) error {
	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "show":
	case "add":
		err = a.add(ctx, rest)
	case "inc", "dec":
		delta := 1
		if cmd == "dec" {
			delta = -1
		}
		err = a.withLine(rest, 1, func(key cart.IdentityKey) error {
			_, err := a.handlers.OnAdjust(ctx, key, delta)
			return err
		})
	case "set":
		err = a.withLine(rest, 2, func(key cart.IdentityKey) error {
			_, err := a.handlers.OnSetQuantity(ctx, key, rest[1])
			return err
		})
	case "remove":
		err = a.withLine(rest, 1, func(key cart.IdentityKey) error {
			_, err := a.handlers.OnRemove(ctx, key)
			return err
		})
	case "clear":
		_, err = a.handlers.OnClear(ctx)
	case "policy":
		return a.policy(ctx)
	case "checkout":
		return a.checkout(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintln(a.out, commands.UserMessage(err))
	}
	if rerr := a.render(view); rerr != nil {
		return rerr
	}
	return err
}

func (a *app) render(view string) error {
	var r projection.Renderer
	switch view {
	case "badge":
		r = projection.BadgeRenderer(a.out)
	case "dropdown":
		r = projection.DropdownRenderer(a.out)
	case "table", "":
		r = projection.TableRenderer(a.out)
	default:
		return fmt.Errorf("unknown view %q", view)
	}
	return r.Render(a.proj.Current())
}

func (a *app) add(ctx context.Context, args []string) error {
	var form commands.AddForm
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVarP(&form.ProductName, "product", "p", "", "product name")
	fs.StringVarP(&form.Color, "color", "c", "", "ink colour (default Black)")
	fs.StringVar(&form.TopLine, "top", "", "top line text")
	fs.StringVar(&form.BottomLine, "bottom", "", "bottom line text")
	fs.StringVar(&form.Dedication, "dedication", "", "dedication text")
	fs.StringVarP(&form.Quantity, "qty", "q", "", "quantity (default 1)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := a.handlers.OnAdd(ctx, form)
	return err
}

// withLine resolves the 1-based line number in args[0] to its key.
func (a *app) withLine(args []string, want int, fn func(cart.IdentityKey) error) error {
	if len(args) != want {
		return fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	n, err := strconv.Atoi(args[0])
	snap := a.store.Snapshot()
	if err != nil || n < 1 || n > snap.Len() {
		return fmt.Errorf("%w: no line %q", cart.ErrItemNotFound, args[0])
	}
	return fn(snap.Items[n-1].Key())
}

func (a *app) policy(ctx context.Context) error {
	p, err := a.api.PricingPolicy(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Buy %d or more items for a %s discount (rate %s, %s). Unit price %s.\n",
		p.DiscountThresholdQuantity, percent(p.DiscountRate), p.DiscountRate, p.CurrencyCode, p.DefaultUnitPrice)
	return nil
}

func percent(rate string) string {
	f, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return rate
	}
	return strconv.FormatFloat(f*100, 'f', -1, 64) + "%"
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("checkout", pflag.ContinueOnError)
	fs.SetOutput(a.out)
	yes := fs.BoolP("yes", "y", false, "approve without prompting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx = middleware.WithCorrelationID(ctx, uuid.NewString())
	co := checkout.New(a.store, a.api, checkout.Options{
		Logger: a.logger.Named("checkout"),
		OnTransition: func(from, to checkout.State) {
			a.logger.Debug("checkout state", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	receipt, err := co.Run(ctx, a.approver(*yes))
	switch {
	case err == nil:
		fmt.Fprintln(a.out, receipt.Message())
		return a.render("table")
	case errors.Is(err, checkout.ErrCanceled):
		fmt.Fprintln(a.out, "Checkout canceled. Your cart has been kept.")
		return nil
	case errors.Is(err, cart.ErrEmptyCart):
		fmt.Fprintln(a.out, projection.EmptyCartMessage)
		return nil
	case receipt.Capture.OrderID != "":
		// Paid, but the cart could not be cleared.
		fmt.Fprintln(a.out, receipt.Message())
		return err
	default:
		return checkoutError(err)
	}
}

// approver shows the quote and asks the payer to approve it in the
// provider's page.
func (a *app) approver(autoApprove bool) checkout.Approver {
	return checkout.ApproverFunc(func(ctx context.Context, q order.Quote) (checkout.Approval, error) {
		fmt.Fprintf(a.out, "Order %s: subtotal %s, discount %s, total %s %s\n", q.OrderID, q.Subtotal, q.Discount, q.Total, q.Currency)
		if q.ApproveURL != "" {
			fmt.Fprintf(a.out, "Approve the payment at %s\n", q.ApproveURL)
		}
		if autoApprove {
			return checkout.Approval{OrderID: q.OrderID}, nil
		}

		fmt.Fprint(a.out, "Capture payment once approved? [y/N] ")
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return checkout.Approval{}, err
		}
		if ctx.Err() != nil {
			return checkout.Approval{}, ctx.Err()
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return checkout.Approval{OrderID: q.OrderID}, nil
		default:
			return checkout.Approval{}, checkout.ErrCanceled
		}
	})
}

func checkoutError(err error) error {
	var rej *checkout.RejectedError
	var pe *checkout.ProviderError
	var te *checkout.TransportError
	switch {
	case errors.As(err, &rej):
		return fmt.Errorf("the order was rejected: %w", err)
	case errors.As(err, &pe):
		return fmt.Errorf("payment failed, your cart has been kept: %w", err)
	case errors.As(err, &te):
		return fmt.Errorf("could not reach the storefront, your cart has been kept: %w", err)
	default:
		return err
	}
}
