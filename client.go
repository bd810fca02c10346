package respkit

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/respkit/internal/observability"
	"github.com/danmuck/respkit/resp"
)

// Client is a single-connection client. Calls are serialized; a transport
// fault drops the connection and the next call redials.
type Client struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Dial connects, secures, and authenticates per cfg.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	c := &Client{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	observability.RegisterMetrics()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Do sends one command and returns its reply. An error reply from the
// server is returned as a *resp.ServerError.
func (c *Client) Do(ctx context.Context, cmd Command) (resp.Value, error) {
	if err := cmd.Validate(); err != nil {
		return resp.Value{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	v, err := c.roundTripLocked(ctx, cmd)
	observability.RecordCommand(cmd.Name, statusLabel(v, err), time.Since(start))
	if err != nil {
		return resp.Value{}, err
	}
	if replyErr := v.Err(); replyErr != nil {
		return resp.Value{}, replyErr
	}
	return v, nil
}

// Pipeline writes every command, flushes once, then reads one reply per
// command in order. Error replies stay in their slots; only transport
// faults abort the batch.
func (c *Client) Pipeline(ctx context.Context, cmds []Command) ([]resp.Value, error) {
	if len(cmds) == 0 {
		return nil, nil
	}
	for _, cmd := range cmds {
		if err := cmd.Validate(); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(ctx); err != nil {
		observability.RecordPipeline(observability.StatusTransportError, len(cmds))
		return nil, err
	}

	var buf bytes.Buffer
	for _, cmd := range cmds {
		if err := resp.Encode(&buf, cmd.ToValue()); err != nil {
			observability.RecordPipeline(observability.StatusTransportError, len(cmds))
			return nil, err
		}
	}
	if err := c.writeLocked(ctx, buf.Bytes()); err != nil {
		observability.RecordPipeline(observability.StatusTransportError, len(cmds))
		return nil, err
	}

	replies := make([]resp.Value, 0, len(cmds))
	for range cmds {
		v, err := c.readLocked(ctx)
		if err != nil {
			observability.RecordPipeline(observability.StatusTransportError, len(cmds))
			return nil, err
		}
		replies = append(replies, v)
	}
	observability.RecordPipeline(observability.StatusOK, len(cmds))
	return replies, nil
}

// Close shuts the connection down. Further calls return ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
	return err
}

func (c *Client) roundTripLocked(ctx context.Context, cmd Command) (resp.Value, error) {
	if err := c.ensureConnLocked(ctx); err != nil {
		return resp.Value{}, err
	}

	var buf bytes.Buffer
	if err := resp.Encode(&buf, cmd.ToValue()); err != nil {
		return resp.Value{}, err
	}
	if err := c.writeLocked(ctx, buf.Bytes()); err != nil {
		return resp.Value{}, err
	}
	return c.readLocked(ctx)
}

func (c *Client) ensureConnLocked(ctx context.Context) error {
	if c.closed {
		return ErrClientClosed
	}
	if c.conn != nil {
		return nil
	}
	return c.connectLocked(ctx)
}

// connectLocked runs one connect cycle: dial, TLS, auth, with backoff
// between attempts. Auth rejection aborts the cycle immediately.
func (c *Client) connectLocked(ctx context.Context) error {
	var attempt int
	for {
		attempt++
		conn, err := c.dialOnce(ctx)
		if err != nil {
			c.logger.Warn().Int("attempt", attempt).Str("addr", c.cfg.Addr).Err(err).Msg("dial failed")
			if !c.shouldRetry(attempt) {
				return err
			}
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		reader := bufio.NewReader(conn)
		if err := c.authenticate(ctx, conn, reader); err != nil {
			_ = conn.Close()
			if errors.Is(err, ErrAuthRejected) || !c.shouldRetry(attempt) {
				return err
			}
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		c.conn = conn
		c.reader = reader
		c.logger.Info().Str("addr", c.cfg.Addr).Msg("connected")
		return nil
	}
}

func (c *Client) dialOnce(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: ms(c.cfg.DialTimeoutMS)}
	rawConn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return nil, err
	}
	if !c.cfg.TLS.Enabled {
		return rawConn, nil
	}

	tlsCfg, err := c.cfg.clientTLSConfig()
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, ms(c.cfg.HandshakeTimeoutMS))
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) authenticate(ctx context.Context, conn net.Conn, reader *bufio.Reader) error {
	if c.cfg.Password == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := resp.Encode(&buf, Auth(c.cfg.Password).ToValue()); err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(c.deadline(ctx, c.cfg.WriteTimeoutMS)); err != nil {
		return err
	}
	if _, err := conn.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := conn.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeoutMS)); err != nil {
		return err
	}
	v, err := resp.Decode(reader, c.cfg.Limits)
	if err != nil {
		return err
	}
	if replyErr := v.Err(); replyErr != nil {
		return fmt.Errorf("%w: %v", ErrAuthRejected, replyErr)
	}
	return nil
}

func (c *Client) writeLocked(ctx context.Context, payload []byte) error {
	if err := c.conn.SetWriteDeadline(c.deadline(ctx, c.cfg.WriteTimeoutMS)); err != nil {
		c.dropConnLocked()
		return err
	}
	if _, err := c.conn.Write(payload); err != nil {
		c.dropConnLocked()
		return err
	}
	return nil
}

func (c *Client) readLocked(ctx context.Context) (resp.Value, error) {
	if err := c.conn.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeoutMS)); err != nil {
		c.dropConnLocked()
		return resp.Value{}, err
	}
	v, err := resp.Decode(c.reader, c.cfg.Limits)
	if err != nil {
		c.dropConnLocked()
		return resp.Value{}, err
	}
	return v, nil
}

// dropConnLocked discards a faulted connection so the next call redials.
func (c *Client) dropConnLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

func (c *Client) shouldRetry(attempt int) bool {
	if c.cfg.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < c.cfg.MaxConnectAttempts
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := nextBackoffDelay(c.cfg.Backoff, attempt, c.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) deadline(ctx context.Context, timeoutMS int64) time.Time {
	deadline := time.Now().Add(ms(timeoutMS))
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return deadline
}

func statusLabel(v resp.Value, err error) string {
	switch {
	case err != nil:
		return observability.StatusTransportError
	case v.IsError():
		return observability.StatusServerError
	default:
		return observability.StatusOK
	}
}
