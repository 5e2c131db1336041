package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	sipdb "github.com/sipcass/sipcass/pkg/db"
	"github.com/sipcass/sipcass/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (default :8000)")
	serveCmd.Flags().String("storage-root", "", "Directory for uploaded spreadsheets")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger.Info("starting sip server",
		"listen", cfg.Server.Listen,
		"database", cfg.Database.Type,
		"storage", cfg.Storage.Root,
		"revocation", cfg.Auth.Revocation,
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := openDatabase(cmd, cfg, logger)
	if err != nil {
		glog.Fatalf("Failed to set up database: %v", err)
	}
	defer func() { _ = sipdb.Close(gormDB) }()

	srv, err := server.New(cfg, gormDB, logger)
	if err != nil {
		glog.Fatalf("Failed to initialize server: %v", err)
	}
	router := srv.MountRoutes()

	if err := srv.Start(ctx); err != nil {
		glog.Fatalf("Failed to start background workers: %v", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()
	logger.Info("sip server ready", "listen", cfg.Server.Listen)

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("background worker shutdown error", "error", err)
	}

	logger.Info("sip server stopped")
	return nil
}
