package respd

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/respkit/internal/auth"
	"github.com/danmuck/respkit/internal/logging"
	"github.com/danmuck/respkit/internal/observability"
	"github.com/danmuck/respkit/resp"
)

var ErrNotListening = errors.New("respd: server is not listening")

// Config holds server settings.
type Config struct {
	Addr     string
	Password string
	Limits   resp.Limits
	// ReadTimeoutMS bounds how long a connection may sit idle between
	// commands.
	ReadTimeoutMS int64
	TLSCertFile   string
	TLSKeyFile    string
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = "127.0.0.1:6380"
	}
	if c.ReadTimeoutMS <= 0 {
		c.ReadTimeoutMS = 30_000
	}
	return c
}

// connState is per-connection dispatch state.
type connState struct {
	authed bool
	quit   bool
}

// Server accepts connections and dispatches commands against one shared
// store.
type Server struct {
	cfg       Config
	store     *Store
	validator auth.Validator
	reg       *registry
	logger    zerolog.Logger

	ln net.Listener
}

// NewServer constructs a server from cfg. A non-empty password arms the
// AUTH gate.
func NewServer(cfg Config) *Server {
	cfg = cfg.WithDefaults()
	s := &Server{
		cfg:    cfg,
		store:  NewStore(),
		reg:    newHandlerRegistry(),
		logger: logging.Component("respd"),
	}
	if cfg.Password != "" {
		s.validator = auth.StaticPassword{Password: cfg.Password}
	}
	return s
}

// Store exposes the backing store for white-box assertions.
func (s *Server) Store() *Store {
	return s.store
}

// Listen binds the configured address. With a cert and key configured the
// listener speaks TLS.
func (s *Server) Listen() error {
	addr := strings.TrimSpace(s.cfg.Addr)
	if s.cfg.TLSCertFile != "" || s.cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("respd: load keypair: %w", err)
		}
		ln, err := tls.Listen("tcp", addr, &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		})
		if err != nil {
			return err
		}
		s.ln = ln
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts connections until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return ErrNotListening
	}
	defer s.ln.Close()
	s.logger.Info().Str("addr", s.Addr()).Msg("listening")

	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// ListenAndServe binds the configured address and serves until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// handleConn runs the per-connection command loop: one decoded request,
// one encoded reply.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	observability.RecordConnection()
	remote := conn.RemoteAddr().String()
	s.logger.Info().Str("remote", remote).Msg("client connected")
	defer s.logger.Info().Str("remote", remote).Msg("client disconnected")

	st := &connState{}
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)
	timeout := time.Duration(s.cfg.ReadTimeoutMS) * time.Millisecond

	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		req, err := resp.Decode(reader, s.cfg.Limits)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			s.logger.Warn().Str("remote", remote).Err(err).Msg("read failed")
			writeReply(writer, resp.ErrorValue("ERR Protocol error: "+err.Error()))
			return
		}

		name, args, err := commandFromValue(req)
		if err != nil {
			if !writeReply(writer, resp.ErrorValue("ERR Protocol error: "+err.Error())) {
				return
			}
			continue
		}

		reply := s.dispatch(st, name, args)
		if !writeReply(writer, reply) {
			s.logger.Warn().Str("remote", remote).Msg("write failed")
			return
		}
		if st.quit {
			return
		}
	}
}

func (s *Server) dispatch(st *connState, name string, args []string) resp.Value {
	upper := strings.ToUpper(name)
	h, ok := s.reg.resolve(upper)
	if !ok {
		observability.RecordServerCommand(upper, observability.StatusServerError)
		return resp.ErrorValue(fmt.Sprintf("ERR unknown command '%s'", name))
	}
	if s.validator != nil && !st.authed && requiresAuth(upper) {
		observability.RecordServerCommand(upper, observability.StatusServerError)
		return resp.ErrorValue("NOAUTH Authentication required.")
	}

	reply := h(s, st, args)
	status := observability.StatusOK
	if reply.IsError() {
		status = observability.StatusServerError
	}
	observability.RecordServerCommand(upper, status)
	return reply
}

// commandFromValue flattens a request array into a command name and string
// arguments.
func commandFromValue(v resp.Value) (string, []string, error) {
	elems, err := v.Elements()
	if err != nil {
		return "", nil, errors.New("request must be an array of strings")
	}
	if len(elems) == 0 {
		return "", nil, errors.New("empty request array")
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		text, err := e.Text()
		if err != nil {
			return "", nil, fmt.Errorf("request element %d must be a string", i)
		}
		parts[i] = text
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return "", nil, errors.New("empty command name")
	}
	return name, parts[1:], nil
}

// writeReply encodes and flushes one reply. It reports false when the
// connection is no longer usable.
func writeReply(w *bufio.Writer, v resp.Value) bool {
	if err := resp.Encode(w, v); err != nil {
		return false
	}
	return w.Flush() == nil
}
