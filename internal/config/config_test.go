package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
payment:
  default_bank: zibal
  callback_base_url: https://shop.example
  zibal:
    merchant_code: m1
`)
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not carried")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q", cfg.Log.Level)
	}
	if cfg.Payment.RequestTimeout != 5*time.Second {
		t.Errorf("default request timeout = %s", cfg.Payment.RequestTimeout)
	}
	if cfg.Reconciler.BatchSize != 200 {
		t.Errorf("default batch size = %d", cfg.Reconciler.BatchSize)
	}
	if cfg.Payment.Zibal == nil || cfg.Payment.Zibal.MerchantCode != "m1" {
		t.Errorf("zibal settings = %+v", cfg.Payment.Zibal)
	}
}

func TestLoadConfigRejectsMissingEssentials(t *testing.T) {
	cases := map[string]string{
		"no callback base": `
payment:
  default_bank: zibal
  zibal:
    merchant_code: m1
`,
		"no default bank": `
payment:
  callback_base_url: https://shop.example
  zibal:
    merchant_code: m1
`,
		"no banks": `
payment:
  default_bank: zibal
  callback_base_url: https://shop.example
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body), false); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false); err == nil {
		t.Error("expected error for a missing file")
	}
}
