package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avandyck/rostrum/internal/api"
	"github.com/avandyck/rostrum/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the debate HTTP API",
	Long: `Serve starts the HTTP API and the websocket live feed. Debates created
through the API run inside this process; interrupted sessions restore and
resume automatically when they are next requested.

The server shuts down gracefully on SIGINT or SIGTERM, draining snapshot
writes before exiting.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	rt, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "rostrum api listening on %s\n", addr)
	server := api.NewServer(rt.store, rt.bus, rt.logger)
	if err := server.ListenAndServe(ctx, addr, cfg.Server.ShutdownTimeout()); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}
