// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/paypal"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

type Server struct {
	Port            string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	PayPal paypal.Config

	Policy  pricing.Policy
	Catalog order.Catalog

	// RabbitMQURL is optional; without it events are only logged.
	RabbitMQURL string

	CORSAllowOrigins []string
}

type Client struct {
	APIURL     string
	LogLevel   string
	Storage    storage.Config
	RecordName string
	Policy     pricing.Policy
	UnitPrice  decimal.Decimal
	Timeout    time.Duration
}

func LoadServer() (Server, error) {
	policy, err := loadPolicy()
	if err != nil {
		return Server{}, err
	}
	catalog, err := order.ParseCatalog(getenv("CATALOG_DEFAULT_PRICE", order.DefaultUnitPrice.StringFixed(2)), os.Getenv("CATALOG_PRICES"))
	if err != nil {
		return Server{}, fmt.Errorf("catalog: %w", err)
	}

	env := paypal.ParseEnvironment(getenv("PAYPAL_ENV", "sandbox"))
	creds := credentialsFor(env)
	if creds.ClientID == "" || creds.Secret == "" {
		return Server{}, fmt.Errorf("paypal %s credentials are not set", env)
	}

	cfg := Server{
		Port:            getenv("PORT", "8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		RequestTimeout:  parseDuration(getenv("REQUEST_TIMEOUT", "30s"), 30*time.Second),
		ShutdownTimeout: parseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),

		PayPal: paypal.Config{
			Environment:  env,
			BaseURL:      os.Getenv("PAYPAL_BASE_URL"),
			Credentials:  creds,
			Timeout:      parseDuration(getenv("PROVIDER_TIMEOUT", "10s"), 10*time.Second),
			MaxRetries:   parseInt(getenv("PROVIDER_MAX_RETRIES", "2"), 2),
			RetryBackoff: parseDuration(getenv("PROVIDER_RETRY_BACKOFF", "200ms"), 200*time.Millisecond),
		},

		Policy:  policy,
		Catalog: catalog,

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
	return cfg, nil
}

// credentialsFor picks the credential pair that belongs to env. Sandbox
// and live secrets are kept apart so switching PAYPAL_ENV changes nothing
// else.
func credentialsFor(env paypal.Environment) paypal.Credentials {
	prefix := "PAYPAL_SANDBOX_"
	if env == paypal.Live {
		prefix = "PAYPAL_LIVE_"
	}
	return paypal.Credentials{
		ClientID: os.Getenv(prefix + "CLIENT_ID"),
		// PAYPAL_<ENV>_SECRET is the older name for the secret.
		Secret: getenv(prefix+"CLIENT_SECRET", os.Getenv(prefix+"SECRET")),
	}
}

func LoadClient() (Client, error) {
	policy, err := loadPolicy()
	if err != nil {
		return Client{}, err
	}
	catalog, err := order.ParseCatalog(os.Getenv("CATALOG_DEFAULT_PRICE"), "")
	if err != nil {
		return Client{}, fmt.Errorf("invalid CATALOG_DEFAULT_PRICE: %w", err)
	}

	cfg := Client{
		APIURL:   getenv("STOREFRONT_API_URL", "http://localhost:8080"),
		LogLevel: getenv("LOG_LEVEL", "warn"),
		Storage: storage.Config{
			Driver:        getenv("STORAGE_DRIVER", storage.DriverFile),
			Path:          getenv("STORAGE_PATH", defaultStoragePath()),
			DSN:           os.Getenv("STORAGE_DSN"),
			RunMigrations: parseBool(getenv("STORAGE_MIGRATE", "true"), true),
		},
		RecordName: os.Getenv("CART_RECORD_NAME"),
		Policy:     policy,
		UnitPrice:  catalog.Default,
		Timeout:    parseDuration(getenv("API_TIMEOUT", "30s"), 30*time.Second),
	}
	return cfg, nil
}

func loadPolicy() (pricing.Policy, error) {
	p := pricing.DefaultPolicy()
	if v := os.Getenv("DISCOUNT_THRESHOLD"); strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return pricing.Policy{}, fmt.Errorf("invalid DISCOUNT_THRESHOLD %q: %w", v, err)
		}
		p.DiscountThreshold = n
	}
	if v := os.Getenv("DISCOUNT_RATE"); strings.TrimSpace(v) != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return pricing.Policy{}, fmt.Errorf("invalid DISCOUNT_RATE %q: %w", v, err)
		}
		p.DiscountRate = rate
	}
	p.Currency = strings.ToUpper(getenv("CURRENCY", p.Currency))
	if err := p.Validate(); err != nil {
		return pricing.Policy{}, fmt.Errorf("pricing policy: %w", err)
	}
	return p, nil
}

func defaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "storefront"
	}
	return ".storefront"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}
