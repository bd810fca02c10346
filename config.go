package respkit

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/respkit/resp"
)

// TLSConfig controls transport security for a client connection. Setting
// both CertFile and KeyFile presents a client certificate.
type TLSConfig struct {
	Enabled            bool
	CertFile           string
	KeyFile            string
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

// Backoff shapes the delay between connect attempts.
type Backoff struct {
	InitialDelayMS int64
	Multiplier     float64
	MaxDelayMS     int64
	Jitter         bool
}

// Config holds client settings. Durations are carried as integer
// milliseconds.
type Config struct {
	Addr     string
	Password string

	DialTimeoutMS      int64
	HandshakeTimeoutMS int64
	ReadTimeoutMS      int64
	WriteTimeoutMS     int64

	// MaxConnectAttempts bounds one connect cycle. Zero takes the default;
	// negative retries without bound.
	MaxConnectAttempts int
	Backoff            Backoff

	TLS    TLSConfig
	Limits resp.Limits

	// Logger, when set, receives connection lifecycle events.
	Logger *zerolog.Logger
}

// DefaultConfig returns the settings used when fields are left zero. Addr
// has no default; it must be set by the caller.
func DefaultConfig() Config {
	return Config{
		DialTimeoutMS:      5_000,
		HandshakeTimeoutMS: 5_000,
		ReadTimeoutMS:      15_000,
		WriteTimeoutMS:     15_000,
		MaxConnectAttempts: 5,
		Backoff: Backoff{
			InitialDelayMS: 250,
			Multiplier:     2.0,
			MaxDelayMS:     5_000,
			Jitter:         true,
		},
	}
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.DialTimeoutMS <= 0 {
		c.DialTimeoutMS = def.DialTimeoutMS
	}
	if c.HandshakeTimeoutMS <= 0 {
		c.HandshakeTimeoutMS = def.HandshakeTimeoutMS
	}
	if c.ReadTimeoutMS <= 0 {
		c.ReadTimeoutMS = def.ReadTimeoutMS
	}
	if c.WriteTimeoutMS <= 0 {
		c.WriteTimeoutMS = def.WriteTimeoutMS
	}
	if c.MaxConnectAttempts == 0 {
		c.MaxConnectAttempts = def.MaxConnectAttempts
	}
	if c.Backoff.InitialDelayMS <= 0 {
		c.Backoff.InitialDelayMS = def.Backoff.InitialDelayMS
	}
	if c.Backoff.Multiplier <= 0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	if c.Backoff.MaxDelayMS <= 0 {
		c.Backoff.MaxDelayMS = def.Backoff.MaxDelayMS
	}
	return c
}

// Validate checks that c can produce a usable connection.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return ErrAddrRequired
	}
	if c.TLS.Enabled {
		if strings.TrimSpace(c.TLS.CAFile) == "" && !c.TLS.InsecureSkipVerify {
			return ErrTLSCAFileRequired
		}
		cert := strings.TrimSpace(c.TLS.CertFile)
		key := strings.TrimSpace(c.TLS.KeyFile)
		if cert != "" && key == "" {
			return ErrTLSKeyFileRequired
		}
		if key != "" && cert == "" {
			return ErrTLSCertFileRequired
		}
	}
	return nil
}

// clientTLSConfig builds the tls.Config for dialing.
func (c Config) clientTLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.TLS.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(c.TLS.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(c.TLS.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("respkit: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if strings.TrimSpace(c.TLS.CertFile) != "" {
		cert, err := tls.LoadX509KeyPair(c.TLS.CertFile, c.TLS.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
