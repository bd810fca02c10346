package respkit

import (
	"errors"
	"testing"

	"github.com/danmuck/respkit/internal/testutil/testlog"
)

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{Addr: "127.0.0.1:6380"}.WithDefaults()

	if cfg.DialTimeoutMS != 5_000 || cfg.ReadTimeoutMS != 15_000 || cfg.WriteTimeoutMS != 15_000 {
		t.Fatalf("timeout defaults not applied: %+v", cfg)
	}
	if cfg.MaxConnectAttempts != 5 {
		t.Fatalf("attempt default not applied: %d", cfg.MaxConnectAttempts)
	}
	if cfg.Backoff.InitialDelayMS != 250 || cfg.Backoff.Multiplier != 2.0 {
		t.Fatalf("backoff defaults not applied: %+v", cfg.Backoff)
	}
}

func TestConfigWithDefaultsKeepsExplicitValues(t *testing.T) {
	testlog.Start(t)
	cfg := Config{
		Addr:               "127.0.0.1:6380",
		DialTimeoutMS:      1_000,
		MaxConnectAttempts: -1,
	}.WithDefaults()

	if cfg.DialTimeoutMS != 1_000 {
		t.Fatalf("explicit timeout overwritten: %d", cfg.DialTimeoutMS)
	}
	if cfg.MaxConnectAttempts != -1 {
		t.Fatalf("unbounded retries overwritten: %d", cfg.MaxConnectAttempts)
	}
}

func TestConfigValidate(t *testing.T) {
	testlog.Start(t)
	if err := (Config{}).Validate(); !errors.Is(err, ErrAddrRequired) {
		t.Fatalf("expected ErrAddrRequired, got %v", err)
	}

	cfg := Config{Addr: "127.0.0.1:6380", TLS: TLSConfig{Enabled: true}}
	if err := cfg.Validate(); !errors.Is(err, ErrTLSCAFileRequired) {
		t.Fatalf("expected ErrTLSCAFileRequired, got %v", err)
	}

	cfg.TLS.InsecureSkipVerify = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("insecure skip should satisfy trust requirement: %v", err)
	}

	cfg.TLS.CertFile = "client.crt"
	if err := cfg.Validate(); !errors.Is(err, ErrTLSKeyFileRequired) {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}

	cfg.TLS.CertFile = ""
	cfg.TLS.KeyFile = "client.key"
	if err := cfg.Validate(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
}

func TestConfigValidateIgnoresTLSFieldsWhenDisabled(t *testing.T) {
	testlog.Start(t)
	cfg := Config{Addr: "127.0.0.1:6380", TLS: TLSConfig{CertFile: "x"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled tls should not be validated: %v", err)
	}
}
