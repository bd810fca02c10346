package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/respkit/resp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:6380" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.ReadTimeoutMS != 30_000 {
		t.Fatalf("unexpected read timeout: %d", cfg.ReadTimeoutMS)
	}
	if cfg.Password != "" {
		t.Fatalf("unexpected password: %q", cfg.Password)
	}
	if cfg.Limits != (LimitsConfig{}) {
		t.Fatalf("unexpected limits: %+v", cfg.Limits)
	}
}

func TestLoadServerConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
addr = "0.0.0.0:7000"
password = "sesame"
read_timeout_ms = 1200

[limits]
max_line_bytes = 1024
max_bulk_bytes = 4096
max_array_elements = 16
max_depth = 4

[tls]
cert_file = "server.crt"
key_file = "server.key"
`)

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != "0.0.0.0:7000" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.Password != "sesame" {
		t.Fatalf("unexpected password: %q", cfg.Password)
	}
	if cfg.ReadTimeoutMS != 1200 {
		t.Fatalf("unexpected read timeout: %d", cfg.ReadTimeoutMS)
	}
	if cfg.Limits.MaxLineBytes != 1024 || cfg.Limits.MaxDepth != 4 {
		t.Fatalf("unexpected limits: %+v", cfg.Limits)
	}
	if cfg.TLS.CertFile != "server.crt" || cfg.TLS.KeyFile != "server.key" {
		t.Fatalf("unexpected tls: %+v", cfg.TLS)
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatalf("expected load error")
	}
}

func TestLoadServerConfigParseError(t *testing.T) {
	path := writeConfig(t, `addr = [broken`)
	if _, err := LoadServerConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateServerConfigRejectsHalfTLS(t *testing.T) {
	path := writeConfig(t, `
[tls]
cert_file = "server.crt"
`)
	if _, err := LoadServerConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateServerConfigRejectsNegativeLimits(t *testing.T) {
	path := writeConfig(t, `
[limits]
max_bulk_bytes = -1
`)
	if _, err := LoadServerConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestServerRuntimeCarriesFields(t *testing.T) {
	cfg := ServerConfig{
		Addr:          "127.0.0.1:6390",
		Password:      "sesame",
		ReadTimeoutMS: 500,
		Limits:        LimitsConfig{MaxBulkBytes: 2048},
		TLS:           TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"},
	}

	runtime := ServerRuntime(cfg)
	if runtime.Addr != cfg.Addr || runtime.Password != cfg.Password {
		t.Fatalf("unexpected runtime config: %+v", runtime)
	}
	if runtime.ReadTimeoutMS != 500 {
		t.Fatalf("unexpected read timeout: %d", runtime.ReadTimeoutMS)
	}
	if runtime.Limits != (resp.Limits{MaxBulkBytes: 2048}) {
		t.Fatalf("unexpected limits: %+v", runtime.Limits)
	}
	if runtime.TLSCertFile != "c.pem" || runtime.TLSKeyFile != "k.pem" {
		t.Fatalf("unexpected tls files: %q %q", runtime.TLSCertFile, runtime.TLSKeyFile)
	}
}

func TestTemplateRoundTripsThroughLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "respd.toml")
	if err := WriteTemplate(path, "server", false); err != nil {
		t.Fatalf("write template: %v", err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Addr != "127.0.0.1:6380" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.Limits.MaxDepth != 32 {
		t.Fatalf("unexpected depth: %d", cfg.Limits.MaxDepth)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "respd.toml")
	if err := WriteTemplate(path, "server", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "server", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "server", true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	if _, err := Template("mesh"); err == nil || !strings.Contains(err.Error(), "unknown config kind") {
		t.Fatalf("unexpected error: %v", err)
	}
}
