package respkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/respkit/digest"
	"github.com/danmuck/respkit/resp"
)

// Script pairs a script body with its content digest. The digest is
// derived once up front, so invocation by digest needs no prior round
// trip.
type Script struct {
	body string
	sum  string
}

// NewScript derives the digest for body.
func NewScript(body string) *Script {
	return &Script{body: body, sum: digest.SHA1Hex(body)}
}

// Body returns the script source.
func (s *Script) Body() string {
	return s.body
}

// Digest returns the 40-character lowercase identifier of the body.
func (s *Script) Digest() string {
	return s.sum
}

// Load caches the body on the server and verifies the server derived the
// same digest.
func (s *Script) Load(ctx context.Context, c *Client) error {
	v, err := c.Do(ctx, ScriptLoad(s.body))
	if err != nil {
		return err
	}
	remote, err := v.Text()
	if err != nil {
		return err
	}
	if remote != s.sum {
		return fmt.Errorf("%w: local=%s remote=%s", ErrDigestMismatch, s.sum, remote)
	}
	return nil
}

// Run invokes the script by digest, falling back to sending the body when
// the server has nothing cached under it.
func (s *Script) Run(ctx context.Context, c *Client, keys []Key, args ...string) (resp.Value, error) {
	v, err := c.Do(ctx, EvalSha(s.sum, keys, args...))
	if err == nil {
		return v, nil
	}
	var srvErr *resp.ServerError
	if !errors.As(err, &srvErr) || srvErr.Code() != "NOSCRIPT" {
		return resp.Value{}, err
	}
	return c.Do(ctx, Eval(s.body, keys, args...))
}
