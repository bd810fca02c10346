package respkit

import (
	"strconv"
	"strings"

	"github.com/danmuck/respkit/resp"
)

// Command is one request: a name plus its already-rendered argument
// values.
type Command struct {
	Name string
	Args []resp.Value
}

// NewCommand builds a command with any leading rendered arguments.
func NewCommand(name string, args ...resp.Value) Command {
	return Command{Name: strings.TrimSpace(name), Args: args}
}

// Validate checks the command is sendable.
func (c Command) Validate() error {
	if c.Name == "" {
		return ErrCommandNameRequired
	}
	return nil
}

// ToValue renders the command as the wire-level request array. Command is
// itself Convertible, so commands can be batch-appended like any other
// value source.
func (c Command) ToValue() resp.Value {
	elems := make([]resp.Value, 0, 1+len(c.Args))
	elems = append(elems, resp.BulkStringValue(c.Name))
	resp.AppendConverted(&elems, c.Args)
	return resp.ArrayValue(elems...)
}

// AddKeys appends keys as arguments in order.
func (c *Command) AddKeys(keys ...Key) {
	resp.AppendConverted(&c.Args, keys)
}

// AddStrings appends each string as one bulk argument.
func (c *Command) AddStrings(args ...string) {
	resp.AppendWith(&c.Args, args, 0, func(dst *[]resp.Value, s string) {
		*dst = append(*dst, resp.BulkStringValue(s))
	})
}

// AddPairs flattens key/value pairs into consecutive arguments, two per
// pair.
func (c *Command) AddPairs(pairs ...Pair) {
	resp.AppendWith(&c.Args, pairs, 2*len(pairs), func(dst *[]resp.Value, p Pair) {
		*dst = append(*dst, p.Key.ToValue(), resp.BulkStringValue(p.Value))
	})
}

// Key is a keyspace name. It renders as a bulk string argument.
type Key string

func (k Key) ToValue() resp.Value {
	return resp.BulkStringValue(string(k))
}

// Pair is one key/value assignment for MSET-style commands.
type Pair struct {
	Key   Key
	Value string
}

func Ping() Command {
	return NewCommand("PING")
}

func Echo(message string) Command {
	return NewCommand("ECHO", resp.BulkStringValue(message))
}

func Auth(password string) Command {
	return NewCommand("AUTH", resp.BulkStringValue(password))
}

func Get(key Key) Command {
	return NewCommand("GET", key.ToValue())
}

func Set(key Key, value string) Command {
	return NewCommand("SET", key.ToValue(), resp.BulkStringValue(value))
}

func Del(keys ...Key) Command {
	cmd := NewCommand("DEL")
	cmd.AddKeys(keys...)
	return cmd
}

func Exists(keys ...Key) Command {
	cmd := NewCommand("EXISTS")
	cmd.AddKeys(keys...)
	return cmd
}

func MSet(pairs ...Pair) Command {
	cmd := NewCommand("MSET")
	cmd.AddPairs(pairs...)
	return cmd
}

func MGet(keys ...Key) Command {
	cmd := NewCommand("MGET")
	cmd.AddKeys(keys...)
	return cmd
}

// KeysMatching lists keys by glob pattern.
func KeysMatching(pattern string) Command {
	return NewCommand("KEYS", resp.BulkStringValue(pattern))
}

func FlushAll() Command {
	return NewCommand("FLUSHALL")
}

// ListCommands asks the server for its sorted command surface.
func ListCommands() Command {
	return NewCommand("COMMANDS")
}

func ScriptLoad(body string) Command {
	return NewCommand("SCRIPT", resp.BulkStringValue("LOAD"), resp.BulkStringValue(body))
}

func ScriptExists(sums ...string) Command {
	cmd := NewCommand("SCRIPT", resp.BulkStringValue("EXISTS"))
	cmd.AddStrings(sums...)
	return cmd
}

func ScriptFlush() Command {
	return NewCommand("SCRIPT", resp.BulkStringValue("FLUSH"))
}

// Eval sends a script body for execution against keys and args.
func Eval(body string, keys []Key, args ...string) Command {
	cmd := NewCommand("EVAL",
		resp.BulkStringValue(body),
		resp.BulkStringValue(strconv.Itoa(len(keys))),
	)
	cmd.AddKeys(keys...)
	cmd.AddStrings(args...)
	return cmd
}

// EvalSha invokes a cached script by digest against keys and args.
func EvalSha(sum string, keys []Key, args ...string) Command {
	cmd := NewCommand("EVALSHA",
		resp.BulkStringValue(sum),
		resp.BulkStringValue(strconv.Itoa(len(keys))),
	)
	cmd.AddKeys(keys...)
	cmd.AddStrings(args...)
	return cmd
}
