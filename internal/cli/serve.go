package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inclusify/internal/logging"
	"github.com/ppiankov/inclusify/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve starts the HTTP API:
  POST /v1/analyze   analyze {"text": "...", "segments": true}
  GET  /v1/rules     the rule table
  GET  /v1/stats     history KPIs (404 when history is private)
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics

Example:
  inclusify serve --addr :8080
  INCLUSIFY_HISTORY_PRIVATE=false inclusify serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	p, store, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.Default()
	logger.Info("starting inclusify server",
		logging.String("addr", cfg.Server.Addr),
		logging.Int("rules", p.Engine().Table().Len()),
		logging.Bool("history", store != nil))

	if err := server.New(p, store, cfg.Server, logger).Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
