package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/paypal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger, err := logging.New("storefront-api", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	provider, err := paypal.NewClient(cfg.PayPal, logger.Named("paypal"))
	if err != nil {
		return fmt.Errorf("paypal client: %w", err)
	}

	var publisher events.Publisher = events.NoopPublisher{Logger: logger}
	if cfg.RabbitMQURL != "" {
		rp, conn, err := events.Dial(cfg.RabbitMQURL, events.PublisherOptions{Producer: "storefront-api"})
		if err != nil {
			return err
		}
		defer func() {
			if err := rp.Close(); err != nil {
				logger.Warn("publisher close error", zap.Error(err))
			}
			_ = conn.Close()
		}()
		publisher = rp
	} else {
		logger.Info("RABBITMQ_URL not set, order events are not published")
	}

	orders := order.NewService(order.Deps{
		Provider:  provider,
		Publisher: publisher,
		Catalog:   cfg.Catalog,
		Policy:    cfg.Policy,
		Logger:    logger.Named("order"),
	})

	handler := httpapi.NewHandler(orders, logger, cfg.RequestTimeout)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "storefront-api"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("paypal_env", string(cfg.PayPal.Environment)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	})

	return g.Wait()
}
