// Command cartctl is a terminal storefront: it keeps the cart on this
// device and checks out through the storefront API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

const usage = `usage: cartctl [flags] <command> [args]

commands:
  show                      print the cart
  add [add flags]           add a configured stamp
  inc <line> | dec <line>   change a line's quantity by one
  set <line> <quantity>     set a line's quantity
  remove <line>             remove a line
  clear                     empty the cart
  policy                    print the server's pricing policy
  checkout [--yes]          create, approve and capture an order

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "cartctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	fs := pflag.NewFlagSet("cartctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVar(&cfg.Storage.Driver, "storage", cfg.Storage.Driver, "cart storage driver: file, sqlite, postgres or memory")
	fs.StringVar(&cfg.Storage.Path, "storage-path", cfg.Storage.Path, "directory (file) or database file (sqlite)")
	fs.StringVar(&cfg.Storage.DSN, "dsn", cfg.Storage.DSN, "postgres connection string")
	fs.StringVar(&cfg.RecordName, "record", cfg.RecordName, "name of the stored cart record")
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "storefront API base URL")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	view := fs.StringP("view", "v", "table", "cart view to print: badge, dropdown or table")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	logger, err := logging.New("cartctl", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	records, closeRecords, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open cart storage: %w", err)
	}
	defer func() {
		if err := closeRecords(); err != nil {
			logger.Warn("close cart storage", zap.Error(err))
		}
	}()

	store, err := cart.Open(ctx, records,
		cart.WithRecordName(cfg.RecordName),
		cart.WithLogger(logger.Named("cart")),
	)
	if err != nil {
		return err
	}

	api, err := checkout.NewClient(cfg.APIURL, newHTTPClient(cfg.Timeout))
	if err != nil {
		return err
	}

	a := newApp(store, api, cfg, logger, in, out)
	return a.dispatch(ctx, *view, fs.Args())
}
