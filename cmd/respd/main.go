package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/respkit/internal/config"
	"github.com/danmuck/respkit/internal/logging"
	"github.com/danmuck/respkit/internal/respd"
)

func main() {
	configPath := flag.String("config", "cmd/respd/config.toml", "path to the server config file")
	initConfig := flag.Bool("init", false, "write a config template to -config and exit")
	check := flag.Bool("check", false, "validate the config file and exit")
	force := flag.Bool("force", false, "overwrite an existing config file with -init")
	flag.Parse()

	if *initConfig {
		if err := config.WriteTemplate(*configPath, "server", *force); err != nil {
			fmt.Fprintf(os.Stderr, "respd: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote server config template to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "respd: %v\n", err)
		os.Exit(1)
	}
	if *check {
		fmt.Printf("Validated server config at %s\n", *configPath)
		return
	}

	logging.ConfigureRuntime()
	logger := logging.Component("respd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := respd.NewServer(config.ServerRuntime(cfg))
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
