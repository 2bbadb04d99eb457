package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SNAPP_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (SNAPP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Gateway     GatewayConfig
	Frontend    FrontendConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// GatewayConfig configures the Zarinpal payment gateway client.
type GatewayConfig struct {
	MerchantID  string        `usage:"Zarinpal merchant ID" flag:"merchant-id"`
	RequestURL  string        `default:"https://api.zarinpal.com/pg/v4/payment/request.json" usage:"Payment request endpoint" flag:"gateway-request-url"`
	VerifyURL   string        `default:"https://api.zarinpal.com/pg/v4/payment/verify.json" usage:"Payment verify endpoint" flag:"gateway-verify-url"`
	PayURL      string        `default:"https://www.zarinpal.com/pg/StartPay" usage:"Gateway redirect base URL" flag:"gateway-pay-url"`
	CallbackURL string        `usage:"Public URL of the payment callback endpoint" flag:"callback-url"`
	Timeout     time.Duration `default:"10s" usage:"Gateway HTTP timeout" flag:"gateway-timeout"`
}

// FrontendConfig holds the URLs the callback handler redirects users to.
type FrontendConfig struct {
	SuccessURL string `default:"http://localhost:3000/payment/success" usage:"Redirect target after a verified payment" flag:"success-url"`
	FailureURL string `default:"http://localhost:3000/payment/failure" usage:"Redirect target after a failed payment" flag:"failure-url"`
}

// KafkaConfig controls order event publishing. Disabled by default so the
// API runs without a broker.
type KafkaConfig struct {
	Enabled bool     `default:"false" usage:"Publish order events to Kafka"`
	Brokers []string `default:"localhost:9092" usage:"Kafka broker addresses"`
	Topic   string   `default:"orders.paid" usage:"Topic for order paid events"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Requests int           `default:"100" usage:"Max requests per window"`
	Window   time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SNAPP",
		Files:     []string{"config.yaml", "/etc/snappfood/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SNAPP_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the application's
// SNAPP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
