package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/wayfind-dev/wayfind/internal/config"
	"github.com/wayfind-dev/wayfind/internal/dev"
	"github.com/wayfind-dev/wayfind/internal/errors"
)

func watchCmd() *cobra.Command {
	var (
		addr    string
		dir     string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch route files and regenerate on change",
		Long: `Watch the routes directory and regenerate the route table on
every change. Connected browsers reload over the WebSocket endpoint
at /__wayfind/reload.

Examples:
  wayfind watch
  wayfind watch --addr localhost:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(dir, addr, verbose)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from wayfind.json)")
	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "Project directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every file change")

	return cmd
}

func runWatch(dir, addr string, verbose bool) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Watch.Addr = addr
	}

	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	logger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	}))

	printBanner()
	fmt.Println("  watch")
	fmt.Println()

	server := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		Dir:    dir,
		Logger: logger,
		OnGenerate: func(wrote bool, err error) {
			if err == nil && wrote {
				success("Regenerated %s", cfg.Output)
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		return errors.New("W200").
			WithDetail("listening on %s", cfg.Watch.Addr).
			WithSuggestion("pick a free port with --addr").
			Wrap(err)
	}
	return nil
}
