package respkit

import "errors"

var (
	ErrAddrRequired        = errors.New("respkit: addr required")
	ErrClientClosed        = errors.New("respkit: client closed")
	ErrCommandNameRequired = errors.New("respkit: command name required")
	ErrAuthRejected        = errors.New("respkit: auth rejected")
	ErrDigestMismatch      = errors.New("respkit: script digest mismatch")
	ErrTLSCertFileRequired = errors.New("respkit: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("respkit: tls key file required")
	ErrTLSCAFileRequired   = errors.New("respkit: tls ca file required")
)
