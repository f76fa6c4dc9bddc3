// Command packlist serves the pack composition engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
)

// Set with -ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("packlist %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Info("starting packlist",
		"version", Version,
		"config", *configPath,
		"database", cfg.Database.DSN,
	)

	server, err := NewServer(cfg, logger)
	if err != nil {
		return exitCode(logger, "failed to create server", err)
	}

	if err := server.Start(context.Background()); err != nil {
		return exitCode(logger, "server error", err)
	}

	return ExitSuccess
}

// exitCode logs err and maps it to the process exit status. Errors that
// carry no ServerError are treated as configuration errors.
func exitCode(logger *slog.Logger, msg string, err error) int {
	var sErr *ServerError
	if !errors.As(err, &sErr) {
		logger.Error(msg, "error", err)
		return ExitConfigError
	}

	logger.Error(msg, "error", sErr.Err, "operation", sErr.Op)
	return sErr.ExitCode
}
