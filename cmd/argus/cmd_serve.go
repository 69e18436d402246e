package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"argus/internal/halluc"
	"argus/internal/ingest"
	"argus/internal/logging"
	"argus/internal/serve"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP API",
	Long: `Starts the admin API: trigger ingestion and brief cycles, fetch stored
bundles and slice reports, and run evaluations. Prometheus metrics are
exported on /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, err := buildOrchestrator(cfg, st)
	if err != nil {
		return err
	}
	gw, err := cfg.Gateway()
	if err != nil {
		return err
	}

	opts := []serve.ServerOption{
		serve.WithServerLogger(logging.New("serve")),
		serve.WithEvaluator(halluc.NewEvaluator(gw, halluc.WithLogger(logging.New("halluc")))),
	}
	if cfg.ACLED.Key != "" && cfg.ACLED.Email != "" {
		client, err := ingest.NewClient(cfg.ACLED.Key, cfg.ACLED.Email,
			ingest.WithLogger(logging.New("acled")))
		if err != nil {
			return err
		}
		opts = append(opts, serve.WithIngestor(
			ingest.NewIngestor(client, st, ingest.WithIngestLogger(logging.New("ingest")))))
	}
	srv := serve.NewServer(st, orch, opts...)

	addr := serveFlags.addr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New("serve")
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	logger.Info("admin API listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
