package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/teknatem/mpbackoffice/internal/application/services"
	"github.com/teknatem/mpbackoffice/internal/bootstrap"
	"github.com/teknatem/mpbackoffice/internal/infrastructure/database"
	"github.com/teknatem/mpbackoffice/internal/infrastructure/persistence"
	"github.com/teknatem/mpbackoffice/internal/interfaces/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.WithField("driver", conn.Driver()).Info("database connection established")

	repo := persistence.NewDashboardRepository(conn.DB())
	if cfg.Database.AutoMigrate {
		if err := repo.EnsureDashboardTable(ctx); err != nil {
			return err
		}
	}

	registry, err := bootstrap.NewRegistry()
	if err != nil {
		return err
	}

	svc := services.NewDashboardService(registry, conn, repo,
		services.WithLogger(log),
		services.WithQueryTimeout(cfg.Query.Timeout),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      rest.NewRouter(svc, conn, log, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
