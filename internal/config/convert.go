package config

import (
	"github.com/danmuck/respkit/internal/respd"
	"github.com/danmuck/respkit/resp"
)

// ServerRuntime converts the file form into the server's runtime config.
func ServerRuntime(cfg ServerConfig) respd.Config {
	return respd.Config{
		Addr:          cfg.Addr,
		Password:      cfg.Password,
		Limits:        WireLimits(cfg.Limits),
		ReadTimeoutMS: cfg.ReadTimeoutMS,
		TLSCertFile:   cfg.TLS.CertFile,
		TLSKeyFile:    cfg.TLS.KeyFile,
	}
}

// WireLimits maps configured bounds onto decoder limits. Zero fields stay
// zero so the decoder defaults apply.
func WireLimits(cfg LimitsConfig) resp.Limits {
	return resp.Limits{
		MaxLineBytes:     cfg.MaxLineBytes,
		MaxBulkBytes:     cfg.MaxBulkBytes,
		MaxArrayElements: cfg.MaxArrayElements,
		MaxDepth:         cfg.MaxDepth,
	}
}
