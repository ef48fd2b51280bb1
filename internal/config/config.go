package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AdminConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ZarinpalSettings configures the Zarinpal adapter. Empty endpoint fields
// fall back to the production URLs.
type ZarinpalSettings struct {
	MerchantCode      string `yaml:"merchant_code"`
	Currency          string `yaml:"currency"` // IRR | IRT, defaults to IRT
	PaymentRequestURL string `yaml:"payment_request_url"`
	StartPaymentURL   string `yaml:"start_payment_url"`
	VerifyURL         string `yaml:"verify_url"`
	ReverseURL        string `yaml:"reverse_url"`
	InquiryURL        string `yaml:"inquiry_url"`
}

type ZibalSettings struct {
	MerchantCode string `yaml:"merchant_code"`
}

type IDPaySettings struct {
	APIKey  string `yaml:"api_key"`
	Sandbox bool   `yaml:"sandbox"`
}

type PaymentConfig struct {
	// DefaultBank picks which configured adapter serves payments when the
	// caller does not name one.
	DefaultBank string `yaml:"default_bank"`
	// CallbackBaseURL is the public base the banks redirect the payer back
	// to; the per-bank callback path is appended at startup.
	CallbackBaseURL string        `yaml:"callback_base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	Zarinpal *ZarinpalSettings `yaml:"zarinpal"`
	Zibal    *ZibalSettings    `yaml:"zibal"`
	IDPay    *IDPaySettings    `yaml:"idpay"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
	BatchSize  int           `yaml:"batch_size"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Admin      AdminConfig      `yaml:"admin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payment    PaymentConfig    `yaml:"payment"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Runtime.Dev = dev

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Payment.RequestTimeout <= 0 {
		cfg.Payment.RequestTimeout = 5 * time.Second
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
	if cfg.Reconciler.BatchSize <= 0 {
		cfg.Reconciler.BatchSize = 200
	}
}

func validate(cfg *Config) error {
	if cfg.Payment.CallbackBaseURL == "" {
		return errors.New("config: payment.callback_base_url is required")
	}
	if cfg.Payment.DefaultBank == "" {
		return errors.New("config: payment.default_bank is required")
	}
	if cfg.Payment.Zarinpal == nil && cfg.Payment.Zibal == nil && cfg.Payment.IDPay == nil {
		return errors.New("config: at least one bank must be configured under payment")
	}
	return nil
}
