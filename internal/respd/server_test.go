package respd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/respkit/digest"
	"github.com/danmuck/respkit/internal/testutil/testlog"
	"github.com/danmuck/respkit/resp"
)

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	srv := NewServer(cfg)
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = srv.Serve(ctx)
	}()
	return srv
}

func dialServer(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, bufio.NewReader(conn)
}

func send(t *testing.T, conn net.Conn, parts ...string) {
	t.Helper()
	elems := make([]resp.Value, 0, len(parts))
	resp.AppendWith(&elems, parts, 0, func(dst *[]resp.Value, s string) {
		*dst = append(*dst, resp.BulkStringValue(s))
	})
	if err := resp.Encode(conn, resp.ArrayValue(elems...)); err != nil {
		t.Fatalf("send %v: %v", parts, err)
	}
}

func reply(t *testing.T, r *bufio.Reader) resp.Value {
	t.Helper()
	v, err := resp.Decode(r, resp.Limits{})
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	return v
}

func TestServerPingEcho(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{})
	conn, r := dialServer(t, srv.Addr())

	send(t, conn, "PING")
	if v := reply(t, r); v.Str != "PONG" {
		t.Fatalf("ping reply: %+v", v)
	}

	send(t, conn, "ping", "hello")
	if v := reply(t, r); string(v.Bulk) != "hello" {
		t.Fatalf("ping message reply: %+v", v)
	}

	send(t, conn, "ECHO", "payload")
	if v := reply(t, r); string(v.Bulk) != "payload" {
		t.Fatalf("echo reply: %+v", v)
	}
}

func TestServerKeyCommands(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{})
	conn, r := dialServer(t, srv.Addr())

	send(t, conn, "SET", "user:1", "dan")
	if v := reply(t, r); v.Str != "OK" {
		t.Fatalf("set reply: %+v", v)
	}

	send(t, conn, "GET", "user:1")
	if v := reply(t, r); string(v.Bulk) != "dan" {
		t.Fatalf("get reply: %+v", v)
	}

	send(t, conn, "GET", "user:404")
	if v := reply(t, r); !v.IsNull() {
		t.Fatalf("expected null for missing key, got %+v", v)
	}

	send(t, conn, "MSET", "a", "1", "b", "2")
	if v := reply(t, r); v.Str != "OK" {
		t.Fatalf("mset reply: %+v", v)
	}

	send(t, conn, "MGET", "a", "missing", "b")
	v := reply(t, r)
	elems, err := v.Elements()
	if err != nil || len(elems) != 3 {
		t.Fatalf("mget reply: %+v, %v", v, err)
	}
	if string(elems[0].Bulk) != "1" || !elems[1].IsNull() || string(elems[2].Bulk) != "2" {
		t.Fatalf("mget values: %+v", elems)
	}

	send(t, conn, "EXISTS", "a", "b", "missing")
	if v := reply(t, r); v.Num != 2 {
		t.Fatalf("exists reply: %+v", v)
	}

	send(t, conn, "KEYS", "user:*")
	v = reply(t, r)
	elems, err = v.Elements()
	if err != nil || len(elems) != 1 || string(elems[0].Bulk) != "user:1" {
		t.Fatalf("keys reply: %+v, %v", v, err)
	}

	send(t, conn, "DEL", "a", "b")
	if v := reply(t, r); v.Num != 2 {
		t.Fatalf("del reply: %+v", v)
	}

	send(t, conn, "FLUSHALL")
	if v := reply(t, r); v.Str != "OK" {
		t.Fatalf("flushall reply: %+v", v)
	}
	send(t, conn, "EXISTS", "user:1")
	if v := reply(t, r); v.Num != 0 {
		t.Fatalf("keyspace survived flushall: %+v", v)
	}
}

func TestServerUnknownCommandAndArity(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{})
	conn, r := dialServer(t, srv.Addr())

	send(t, conn, "NOSUCH")
	v := reply(t, r)
	if !v.IsError() || !strings.Contains(v.Str, "unknown command") {
		t.Fatalf("unknown command reply: %+v", v)
	}

	send(t, conn, "GET")
	v = reply(t, r)
	if !v.IsError() || !strings.Contains(v.Str, "wrong number of arguments") {
		t.Fatalf("arity reply: %+v", v)
	}
}

func TestServerAuthGate(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{Password: "sesame"})
	conn, r := dialServer(t, srv.Addr())

	send(t, conn, "PING")
	if v := reply(t, r); v.Str != "PONG" {
		t.Fatalf("ping should bypass auth: %+v", v)
	}

	send(t, conn, "GET", "k")
	v := reply(t, r)
	if !v.IsError() || !strings.HasPrefix(v.Str, "NOAUTH") {
		t.Fatalf("expected NOAUTH, got %+v", v)
	}

	send(t, conn, "AUTH", "wrong")
	v = reply(t, r)
	if !v.IsError() || !strings.HasPrefix(v.Str, "WRONGPASS") {
		t.Fatalf("expected WRONGPASS, got %+v", v)
	}

	send(t, conn, "AUTH", "sesame")
	if v := reply(t, r); v.Str != "OK" {
		t.Fatalf("auth reply: %+v", v)
	}

	send(t, conn, "SET", "k", "v")
	if v := reply(t, r); v.Str != "OK" {
		t.Fatalf("post-auth set reply: %+v", v)
	}
}

func TestServerAuthWithoutPassword(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{})
	conn, r := dialServer(t, srv.Addr())

	send(t, conn, "AUTH", "anything")
	v := reply(t, r)
	if !v.IsError() || !strings.Contains(v.Str, "no password is set") {
		t.Fatalf("expected auth rejection, got %+v", v)
	}
}

func TestServerScriptCaching(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{})
	conn, r := dialServer(t, srv.Addr())

	const body = "return 1"
	sum := digest.SHA1Hex(body)

	send(t, conn, "EVALSHA", sum, "0")
	v := reply(t, r)
	if !v.IsError() || !strings.HasPrefix(v.Str, "NOSCRIPT") {
		t.Fatalf("expected NOSCRIPT before load, got %+v", v)
	}

	send(t, conn, "SCRIPT", "LOAD", body)
	if v := reply(t, r); string(v.Bulk) != sum {
		t.Fatalf("script load reply: %+v, want %s", v, sum)
	}

	send(t, conn, "SCRIPT", "EXISTS", sum, strings.Repeat("0", digest.HexLen))
	v = reply(t, r)
	elems, err := v.Elements()
	if err != nil || len(elems) != 2 || elems[0].Num != 1 || elems[1].Num != 0 {
		t.Fatalf("script exists reply: %+v, %v", v, err)
	}

	send(t, conn, "EVALSHA", strings.ToUpper(sum), "0")
	if v := reply(t, r); string(v.Bulk) != sum {
		t.Fatalf("evalsha reply: %+v", v)
	}

	send(t, conn, "EVAL", "return 2", "1", "k", "arg")
	v = reply(t, r)
	if v.Kind != resp.KindBulkString || string(v.Bulk) != digest.SHA1Hex("return 2") {
		t.Fatalf("eval reply: %+v", v)
	}
	if _, ok := srv.Store().ScriptBody(digest.SHA1Hex("return 2")); !ok {
		t.Fatalf("eval did not cache script")
	}

	send(t, conn, "EVAL", "return 3", "9")
	v = reply(t, r)
	if !v.IsError() || !strings.Contains(v.Str, "Number of keys") {
		t.Fatalf("expected key count error, got %+v", v)
	}

	send(t, conn, "SCRIPT", "FLUSH")
	if v := reply(t, r); v.Str != "OK" {
		t.Fatalf("script flush reply: %+v", v)
	}
	send(t, conn, "SCRIPT", "EXISTS", sum)
	v = reply(t, r)
	elems, err = v.Elements()
	if err != nil || len(elems) != 1 || elems[0].Num != 0 {
		t.Fatalf("script survived flush: %+v, %v", v, err)
	}
}

func TestServerQuitClosesConnection(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{})
	conn, r := dialServer(t, srv.Addr())

	send(t, conn, "QUIT")
	if v := reply(t, r); v.Str != "OK" {
		t.Fatalf("quit reply: %+v", v)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected closed connection, got %v", err)
	}
}

func TestServerRejectsMalformedInput(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{Limits: resp.Limits{MaxArrayElements: 4}})
	conn, r := dialServer(t, srv.Addr())

	if _, err := io.WriteString(conn, "*9\r\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	v := reply(t, r)
	if !v.IsError() || !strings.Contains(v.Str, "Protocol error") {
		t.Fatalf("expected protocol error, got %+v", v)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		t.Fatalf("connection should close after protocol error, got %v", err)
	}
}

func TestServerCommandsListing(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, Config{})
	conn, r := dialServer(t, srv.Addr())

	send(t, conn, "COMMANDS")
	v := reply(t, r)
	elems, err := v.Elements()
	if err != nil || len(elems) == 0 {
		t.Fatalf("commands reply: %+v, %v", v, err)
	}
	names := make([]string, len(elems))
	for i, e := range elems {
		names[i] = string(e.Bulk)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("listing not sorted: %v", names)
		}
	}
	found := false
	for _, n := range names {
		if n == "EVALSHA" {
			found = true
		}
	}
	if !found {
		t.Fatalf("EVALSHA missing from listing: %v", names)
	}
}
