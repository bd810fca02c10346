package respd

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/danmuck/respkit/digest"
	"github.com/danmuck/respkit/internal/auth"
	"github.com/danmuck/respkit/resp"
)

var (
	ErrHandlerExists = errors.New("respd: handler already registered")
	ErrHandlerNil    = errors.New("respd: handler is nil")
)

// handlerFunc serves one command for one connection. Handlers never write
// to the connection themselves; they return the reply value.
type handlerFunc func(srv *Server, st *connState, args []string) resp.Value

// registry stores command handlers by upper-case name.
type registry struct {
	items map[string]handlerFunc
}

func newRegistry() *registry {
	return &registry{items: make(map[string]handlerFunc)}
}

// register adds a handler. Names are normalized to upper case.
func (r *registry) register(name string, h handlerFunc) error {
	if h == nil {
		return ErrHandlerNil
	}
	key := strings.ToUpper(strings.TrimSpace(name))
	if _, ok := r.items[key]; ok {
		return ErrHandlerExists
	}
	r.items[key] = h
	return nil
}

func (r *registry) resolve(name string) (handlerFunc, bool) {
	h, ok := r.items[name]
	return h, ok
}

// names returns deterministic command ordering.
func (r *registry) names() []string {
	list := make([]string, 0, len(r.items))
	for name := range r.items {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

func newHandlerRegistry() *registry {
	r := newRegistry()
	table := map[string]handlerFunc{
		"PING":     handlePing,
		"ECHO":     handleEcho,
		"AUTH":     handleAuth,
		"QUIT":     handleQuit,
		"COMMANDS": handleCommands,
		"GET":      handleGet,
		"SET":      handleSet,
		"DEL":      handleDel,
		"EXISTS":   handleExists,
		"MSET":     handleMSet,
		"MGET":     handleMGet,
		"KEYS":     handleKeys,
		"FLUSHALL": handleFlushAll,
		"SCRIPT":   handleScript,
		"EVAL":     handleEval,
		"EVALSHA":  handleEvalSha,
	}
	for name, h := range table {
		if err := r.register(name, h); err != nil {
			panic(err)
		}
	}
	return r
}

// requiresAuth reports whether a command is gated behind AUTH when the
// server has a password configured. PING stays open as a liveness probe.
func requiresAuth(name string) bool {
	switch name {
	case "AUTH", "PING", "QUIT":
		return false
	default:
		return true
	}
}

func okReply() resp.Value {
	return resp.SimpleStringValue("OK")
}

func wrongArity(name string) resp.Value {
	return resp.ErrorValue(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

func handlePing(srv *Server, st *connState, args []string) resp.Value {
	switch len(args) {
	case 0:
		return resp.SimpleStringValue("PONG")
	case 1:
		return resp.BulkStringValue(args[0])
	default:
		return wrongArity("PING")
	}
}

func handleEcho(srv *Server, st *connState, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArity("ECHO")
	}
	return resp.BulkStringValue(args[0])
}

func handleAuth(srv *Server, st *connState, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArity("AUTH")
	}
	if srv.validator == nil {
		return resp.ErrorValue("ERR Client sent AUTH, but no password is set.")
	}
	if err := srv.validator.Validate(args[0]); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return resp.ErrorValue("WRONGPASS invalid password.")
		}
		return resp.ErrorValue("ERR " + err.Error())
	}
	st.authed = true
	return okReply()
}

func handleQuit(srv *Server, st *connState, args []string) resp.Value {
	st.quit = true
	return okReply()
}

func handleCommands(srv *Server, st *connState, args []string) resp.Value {
	names := srv.reg.names()
	elems := make([]resp.Value, 0, len(names))
	resp.AppendWith(&elems, names, 0, func(dst *[]resp.Value, name string) {
		*dst = append(*dst, resp.BulkStringValue(name))
	})
	return resp.ArrayValue(elems...)
}

func handleGet(srv *Server, st *connState, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArity("GET")
	}
	val, ok := srv.store.Get(args[0])
	if !ok {
		return resp.NullValue()
	}
	return resp.BulkStringValue(val)
}

func handleSet(srv *Server, st *connState, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArity("SET")
	}
	srv.store.Set(args[0], args[1])
	return okReply()
}

func handleDel(srv *Server, st *connState, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArity("DEL")
	}
	return resp.IntegerValue(int64(srv.store.Delete(args...)))
}

func handleExists(srv *Server, st *connState, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArity("EXISTS")
	}
	return resp.IntegerValue(int64(srv.store.Exists(args...)))
}

func handleMSet(srv *Server, st *connState, args []string) resp.Value {
	if len(args) == 0 || len(args)%2 != 0 {
		return wrongArity("MSET")
	}
	pairs := make(map[string]string, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs[args[i]] = args[i+1]
	}
	srv.store.SetMany(pairs)
	return okReply()
}

func handleMGet(srv *Server, st *connState, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArity("MGET")
	}
	elems := make([]resp.Value, 0, len(args))
	resp.AppendWith(&elems, args, 0, func(dst *[]resp.Value, key string) {
		if val, ok := srv.store.Get(key); ok {
			*dst = append(*dst, resp.BulkStringValue(val))
			return
		}
		*dst = append(*dst, resp.NullValue())
	})
	return resp.ArrayValue(elems...)
}

func handleKeys(srv *Server, st *connState, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArity("KEYS")
	}
	keys, err := srv.store.Keys(args[0])
	if err != nil {
		return resp.ErrorValue("ERR invalid pattern")
	}
	elems := make([]resp.Value, 0, len(keys))
	resp.AppendWith(&elems, keys, 0, func(dst *[]resp.Value, key string) {
		*dst = append(*dst, resp.BulkStringValue(key))
	})
	return resp.ArrayValue(elems...)
}

func handleFlushAll(srv *Server, st *connState, args []string) resp.Value {
	if len(args) != 0 {
		return wrongArity("FLUSHALL")
	}
	srv.store.FlushAll()
	return okReply()
}

func handleScript(srv *Server, st *connState, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArity("SCRIPT")
	}
	sub := strings.ToUpper(args[0])
	rest := args[1:]
	switch sub {
	case "LOAD":
		if len(rest) != 1 {
			return wrongArity("SCRIPT")
		}
		return resp.BulkStringValue(srv.store.PutScript(rest[0]))
	case "EXISTS":
		if len(rest) == 0 {
			return wrongArity("SCRIPT")
		}
		present := srv.store.ScriptExists(rest)
		elems := make([]resp.Value, 0, len(present))
		resp.AppendWith(&elems, present, 0, func(dst *[]resp.Value, ok bool) {
			n := int64(0)
			if ok {
				n = 1
			}
			*dst = append(*dst, resp.IntegerValue(n))
		})
		return resp.ArrayValue(elems...)
	case "FLUSH":
		if len(rest) != 0 {
			return wrongArity("SCRIPT")
		}
		srv.store.FlushScripts()
		return okReply()
	default:
		return resp.ErrorValue(fmt.Sprintf("ERR Unknown SCRIPT subcommand or wrong number of arguments for '%s'", args[0]))
	}
}

// handleEval caches the script and replies with its digest. Bodies are
// never executed.
func handleEval(srv *Server, st *connState, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArity("EVAL")
	}
	if reply, ok := checkEvalKeys(args[1], len(args)-2); !ok {
		return reply
	}
	return resp.BulkStringValue(srv.store.PutScript(args[0]))
}

func handleEvalSha(srv *Server, st *connState, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArity("EVALSHA")
	}
	if reply, ok := checkEvalKeys(args[1], len(args)-2); !ok {
		return reply
	}
	sum := strings.ToLower(args[0])
	if len(sum) != digest.HexLen {
		return resp.ErrorValue("NOSCRIPT No matching script. Please use EVAL.")
	}
	if _, ok := srv.store.ScriptBody(sum); !ok {
		return resp.ErrorValue("NOSCRIPT No matching script. Please use EVAL.")
	}
	return resp.BulkStringValue(sum)
}

// checkEvalKeys validates the declared key count against the trailing
// argument count shared by EVAL and EVALSHA.
func checkEvalKeys(raw string, trailing int) (resp.Value, bool) {
	numKeys, err := strconv.Atoi(raw)
	if err != nil || numKeys < 0 {
		return resp.ErrorValue("ERR value is not an integer or out of range"), false
	}
	if numKeys > trailing {
		return resp.ErrorValue("ERR Number of keys can't be greater than number of args"), false
	}
	return resp.Value{}, true
}
