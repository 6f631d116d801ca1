package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PAYBRIDGE_STRIPE_APP_SECRET
const EnvPrefix = "PAYBRIDGE"

// Config is the complete application configuration
type Config struct {
	App     AppConfig     `yaml:"app"`
	Stripe  StripeConfig  `yaml:"stripe"`
	PayPal  PayPalConfig  `yaml:"paypal"`
	Retry   RetryConfig   `yaml:"retry"`
	Audit   AuditConfig   `yaml:"audit"`
	Intents IntentsConfig `yaml:"intents"`
	Lock    LockConfig    `yaml:"lock"`
	Events  EventsConfig  `yaml:"events"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Name        string `yaml:"name" split_words:"true" validate:"required"`
	Environment string `yaml:"environment" split_words:"true" validate:"oneof=development staging production test"`
	LogLevel    string `yaml:"log_level" split_words:"true" validate:"oneof=debug info warn error"`
}

// StripeConfig holds the card provider credentials
type StripeConfig struct {
	AppID     string        `yaml:"app_id" split_words:"true"`
	AppSecret string        `yaml:"app_secret" split_words:"true"`
	PublicKey string        `yaml:"public_key" split_words:"true"`
	BaseURL   string        `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout" split_words:"true" validate:"gte=0"`
}

// PayPalConfig holds the wallet provider credentials
type PayPalConfig struct {
	ClientID string        `yaml:"client_id" split_words:"true"`
	Secret   string        `yaml:"secret" split_words:"true"`
	Mode     string        `yaml:"mode" split_words:"true" validate:"oneof=sandbox live"`
	BaseURL  string        `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" split_words:"true" validate:"gte=0"`
}

// RetryConfig bounds retries of transient provider failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" split_words:"true" validate:"gte=1,lte=10"`
	BaseDelay   time.Duration `yaml:"base_delay" split_words:"true" validate:"gt=0"`
	MaxDelay    time.Duration `yaml:"max_delay" split_words:"true" validate:"gtefield=BaseDelay"`
}

// AuditConfig selects where provider calls are audited
type AuditConfig struct {
	Driver             string `yaml:"driver" split_words:"true" validate:"oneof=none sqlite opensearch"`
	SQLitePath         string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	OpensearchURL      string `yaml:"opensearch_url" split_words:"true" validate:"omitempty,url"`
	OpensearchUser     string `yaml:"opensearch_user" split_words:"true"`
	OpensearchPassword string `yaml:"opensearch_password" split_words:"true"`
	// SystemLogs also ships application logs to OpenSearch
	SystemLogs bool `yaml:"system_logs" split_words:"true"`
}

// IntentsConfig selects the pending payment store; an empty path keeps
// intents in memory
type IntentsConfig struct {
	BoltPath string `yaml:"bolt_path" split_words:"true"`
}

// LockConfig selects the customer creation lock; an empty address uses an
// in-process mutex
type LockConfig struct {
	RedisAddr     string        `yaml:"redis_addr" split_words:"true"`
	RedisPassword string        `yaml:"redis_password" split_words:"true"`
	TTL           time.Duration `yaml:"ttl" split_words:"true" validate:"gte=0"`
}

// EventsConfig selects the event bus; an empty URL disables publishing
type EventsConfig struct {
	NatsURL       string `yaml:"nats_url" split_words:"true"`
	SubjectPrefix string `yaml:"subject_prefix" split_words:"true" validate:"required"`
}

// HTTPConfig configures the serve command
type HTTPConfig struct {
	Port           int      `yaml:"port" split_words:"true" validate:"gte=1,lte=65535"`
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "paybridge",
			Environment: "development",
			LogLevel:    "info",
		},
		Stripe: StripeConfig{Timeout: 30 * time.Second},
		PayPal: PayPalConfig{Mode: "sandbox", Timeout: 30 * time.Second},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
		},
		Audit: AuditConfig{Driver: "none"},
		Lock:  LockConfig{TTL: 30 * time.Second},
		Events: EventsConfig{
			SubjectPrefix: "paybridge",
		},
		HTTP: HTTPConfig{
			Port:           9999,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $PAYBRIDGE_CONFIG), the dotenv files (".env" when none are given; missing
// files are skipped) and PAYBRIDGE_* environment variables, in that order,
// then validates it.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the settings that depend on the
// selected drivers
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed '%s' validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	switch c.Audit.Driver {
	case "sqlite":
		if c.Audit.SQLitePath == "" {
			return errors.New("config: audit.sqlite_path is required for the sqlite driver")
		}
	case "opensearch":
		if c.Audit.OpensearchURL == "" {
			return errors.New("config: audit.opensearch_url is required for the opensearch driver")
		}
	}

	if c.Stripe.AppSecret != "" && (c.Stripe.AppID == "" || c.Stripe.PublicKey == "") {
		return errors.New("config: stripe requires app_id, app_secret and public_key together")
	}
	if c.PayPal.ClientID != "" && c.PayPal.Secret == "" {
		return errors.New("config: paypal requires client_id and secret together")
	}

	return nil
}

// StripeEnabled reports whether card credentials are configured
func (c *Config) StripeEnabled() bool {
	return c.Stripe.AppSecret != ""
}

// PayPalEnabled reports whether wallet credentials are configured
func (c *Config) PayPalEnabled() bool {
	return c.PayPal.ClientID != ""
}

// StripeCredentials returns the credential map the Stripe adapter expects
func (c *Config) StripeCredentials() map[string]string {
	return compact(map[string]string{
		"appId":     c.Stripe.AppID,
		"appSecret": c.Stripe.AppSecret,
		"publicKey": c.Stripe.PublicKey,
		"baseURL":   c.Stripe.BaseURL,
		"timeout":   durationString(c.Stripe.Timeout),
	})
}

// PayPalCredentials returns the credential map the PayPal adapter expects
func (c *Config) PayPalCredentials() map[string]string {
	return compact(map[string]string{
		"clientId": c.PayPal.ClientID,
		"secret":   c.PayPal.Secret,
		"mode":     c.PayPal.Mode,
		"baseURL":  c.PayPal.BaseURL,
		"timeout":  durationString(c.PayPal.Timeout),
	})
}

// Addr is the listen address of the serve command
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}

func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}

func durationString(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.String()
}
