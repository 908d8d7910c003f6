package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			slog.Info("configuration loaded successfully")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	drafts, err := service.NewDraftStore(ctx, &cfg.Drafts)
	if err != nil {
		return fmt.Errorf("failed to initialize draft store: %w", err)
	}
	defer closeStore(drafts)

	deps := Deps{
		Config:  cfg,
		Backend: service.NewBackendClient(&cfg.Backend),
		Cache:   service.NewEntityCache(&cfg.Cache),
		Drafts:  drafts,
	}

	if cfg.Minio.Endpoint != "" {
		storage, err := service.NewAttachmentStorage(&cfg.Minio)
		if err != nil {
			return fmt.Errorf("failed to initialize attachment storage: %w", err)
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure attachment bucket: %w", err)
		}
		deps.Attachments = storage
	} else {
		slog.Warn("minio endpoint not configured, attachment uploads disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      NewRouter(deps),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}
