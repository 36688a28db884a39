package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-cmicot/api"
	"github.com/gcbaptista/go-cmicot/config"
	"github.com/gcbaptista/go-cmicot/internal/engine"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP selection service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.server.Port, "port", config.DefaultPort, "Port to run the server on")
	f.StringVar(&opts.server.DataDir, "data-dir", config.DefaultDataDir, "Directory to store datasets and selection results")
	f.IntVar(&opts.server.MaxConcurrentJobs, "max-concurrent-jobs", config.DefaultMaxConcurrentJob, "Selection jobs allowed to run at once")
	f.Int64Var(&opts.server.MaxBodyBytes, "max-body-bytes", config.DefaultMaxBodyBytes, "Largest accepted request body")
	f.IntVar(&opts.settings.ThreadCount, "thread-count", config.DefaultThreadCount, "Threads used by every selection job")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options) error {
	settings, err := opts.resolveSettings(cmd)
	if err != nil {
		return err
	}

	log.Printf("Using data directory: %s", settings.Server.DataDir)
	selectionEngine := engine.NewEngine(settings.Server.DataDir, settings.Selection, settings.Server.MaxConcurrentJobs)
	defer selectionEngine.Close()

	router := gin.Default()
	router.Use(
		api.RequestIDMiddleware(),
		api.CORSMiddleware(),
		api.RequestSizeLimitMiddleware(settings.Server.MaxBodyBytes),
	)
	api.SetupRoutes(router, selectionEngine)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", settings.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %d...", settings.Server.Port)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
