package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/warnscan/internal/api"
	"github.com/ludo-technologies/warnscan/internal/config"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve executions over HTTP",
		Long: `Start an HTTP server that records executions on request.

Endpoints:
  POST /executions                      record an execution
  GET  /executions                      list recent executions
  GET  /executions/{id}                 report of an execution
  GET  /executions/{id}/results/{rid}   one result of an execution
  GET  /tools                           supported tools
  GET  /healthz, /version

Workspaces, console logs and references of a request must lie below --root.

Examples:
  warnscan serve --addr :8080 --root /var/lib/builds`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringP("config", "c", "", "Path to config file")
	cmd.Flags().String("addr", "", "Listen address (default from server.address)")
	cmd.Flags().String("root", ".", "Directory that request paths are confined to")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	addr, _ := cmd.Flags().GetString("addr")
	root, _ := cmd.Flags().GetString("root")

	cfg, err := config.LoadConfigWithTarget(configPath, root)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Address
	}

	server, err := api.NewServer(api.Options{
		Root:   root,
		Base:   cfg,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(ctx, addr)
}
