package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/respkit"
	"github.com/danmuck/respkit/internal/config"
	"github.com/danmuck/respkit/internal/logging"
	"github.com/danmuck/respkit/resp"
)

func main() {
	var opts cliOptions
	var exec string
	var initTargets bool
	flag.StringVar(&opts.Addr, "addr", "", "server address, overrides -targets")
	flag.StringVar(&opts.Auth, "auth", "", "server password")
	flag.StringVar(&opts.TargetsPath, "targets", "", "path to a TOML targets file")
	flag.StringVar(&opts.Target, "target", "", "named entry in the targets file")
	flag.Int64Var(&opts.TimeoutMS, "timeout-ms", defaultTimeoutMS, "per-command timeout")
	flag.StringVar(&opts.CAFile, "tls-ca", "", "CA bundle path, enables TLS")
	flag.StringVar(&exec, "exec", "", "run one command and exit")
	flag.BoolVar(&initTargets, "init", false, "write a targets template to -targets and exit")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "timeout-ms" {
			opts.TimeoutExplicit = true
		}
	})

	logging.ConfigureRuntime()

	if initTargets {
		if strings.TrimSpace(opts.TargetsPath) == "" {
			fmt.Fprintln(os.Stderr, "respctl: -init requires -targets")
			os.Exit(1)
		}
		if err := config.WriteTemplate(opts.TargetsPath, "targets", false); err != nil {
			fmt.Fprintf(os.Stderr, "respctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote targets template to %s\n", opts.TargetsPath)
		return
	}

	sess, err := resolveSession(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "respctl: %v\n", err)
		os.Exit(1)
	}

	app := NewApp(sess)
	if err := app.Run(exec); err != nil {
		fmt.Fprintf(os.Stderr, "respctl: %v\n", err)
		os.Exit(1)
	}
}

// App hosts one interactive or one-shot client session.
type App struct {
	in     *bufio.Reader
	sess   session
	client *respkit.Client
}

func NewApp(sess session) *App {
	return &App{
		in:   bufio.NewReader(os.Stdin),
		sess: sess,
	}
}

// Run dials the resolved endpoint and either executes one command or
// enters the interactive loop.
func (a *App) Run(exec string) error {
	logger := logging.Component("respctl")
	cfg := respkit.Config{
		Addr:     a.sess.Endpoint.Addr,
		Password: a.sess.Endpoint.Auth,
		Logger:   &logger,
	}
	if a.sess.CAFile != "" {
		cfg.TLS = respkit.TLSConfig{Enabled: true, CAFile: a.sess.CAFile}
	}

	ctx, cancel := a.commandContext()
	client, err := respkit.Dial(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	a.client = client
	defer a.client.Close()

	if strings.TrimSpace(exec) != "" {
		return a.runOnce(exec)
	}
	return a.runLoop()
}

func (a *App) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(a.sess.TimeoutMS)*time.Millisecond)
}

// runOnce sends a single command line and renders the reply. An error
// reply fails the invocation.
func (a *App) runOnce(line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	v, err := a.do(args)
	if err != nil {
		return err
	}
	fmt.Println(renderValue(v))
	return nil
}

// runLoop reads command lines until exit or stdin EOF.
func (a *App) runLoop() error {
	fmt.Printf("Connected to %s (%s)\n", a.sess.Endpoint.Name, a.sess.Endpoint.Addr)
	fmt.Println("Quote values containing spaces. Type exit to leave.")
	for {
		fmt.Printf("%s> ", a.sess.Endpoint.Name)
		line, err := a.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return err
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch strings.ToLower(trimmed) {
		case "exit", "quit":
			return nil
		}

		args, err := splitArgs(trimmed)
		if err != nil {
			fmt.Println("(parse) " + err.Error())
			continue
		}
		v, err := a.do(args)
		if err != nil {
			var srvErr *resp.ServerError
			if errors.As(err, &srvErr) {
				fmt.Println("(error) " + srvErr.Message)
				continue
			}
			fmt.Printf("(transport) %v\n", err)
			continue
		}
		fmt.Println(renderValue(v))
	}
}

func (a *App) do(args []string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, fmt.Errorf("empty command")
	}
	cmd := respkit.NewCommand(args[0])
	cmd.AddStrings(args[1:]...)

	ctx, cancel := a.commandContext()
	defer cancel()
	return a.client.Do(ctx, cmd)
}

// splitArgs splits one input line into arguments, honoring single and
// double quotes so values may contain spaces.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// renderValue formats one reply for interactive output: simple strings
// bare, bulk strings quoted, arrays numbered with nested elements
// indented.
func renderValue(v resp.Value) string {
	switch v.Kind {
	case resp.KindNull:
		return "(nil)"
	case resp.KindSimpleString:
		return v.Str
	case resp.KindError:
		return "(error) " + v.Str
	case resp.KindInteger:
		return "(integer) " + strconv.FormatInt(v.Num, 10)
	case resp.KindBulkString:
		return strconv.Quote(string(v.Bulk))
	case resp.KindArray:
		if len(v.Elems) == 0 {
			return "(empty array)"
		}
		lines := make([]string, 0, len(v.Elems))
		for i, e := range v.Elems {
			sub := strings.Split(renderValue(e), "\n")
			lines = append(lines, fmt.Sprintf("%d) %s", i+1, sub[0]))
			for _, rest := range sub[1:] {
				lines = append(lines, "   "+rest)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("(unknown kind %d)", v.Kind)
	}
}
