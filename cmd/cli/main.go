package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"
	"github.com/vk/splatbench/internal/app"
	"github.com/vk/splatbench/internal/cli"
)

// main is the entrypoint for the splatbench application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		exitErr := cli.NewExitError(err)
		fmt.Fprintln(os.Stderr, exitErr.Message)
		atexit.Exit(exitErr.Code)
	}
	atexit.Exit(cli.ExitOK)
}

// run encapsulates the main application logic for easier testing and error
// handling. The report is written to outW, logs to errW.
func run(outW, errW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	benchApp, err := app.NewApp(outW, errW, appConfig)
	if err != nil {
		return fmt.Errorf("application startup failed: %w", err)
	}
	atexit.Register(func() {
		if err := benchApp.FlushMetrics(); err != nil {
			fmt.Fprintln(errW, err)
		}
	})

	return benchApp.Run(context.Background())
}
