package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkovacev/gridplan/internal/metrics"
	"github.com/mkovacev/gridplan/internal/planner/api/rest"
	"github.com/mkovacev/gridplan/internal/planner/service"
	"github.com/mkovacev/gridplan/internal/planner/storage"
)

func buildServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning REST API",
		Long:  "Expose plan building and inspection over HTTP, with Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}

			var m *metrics.PlannerMetrics
			if cfg.Metrics.Enabled {
				m = metrics.New()
			}

			store := storage.NewInMemoryPlanStore()
			svc := service.NewPlanService(store, m, logger)

			listenAddr := addr
			if listenAddr == "" {
				listenAddr = cfg.REST.Addr
			}
			server := rest.NewServer(listenAddr, svc, m, logger)
			server.ReadTimeout = cfg.REST.ReadTimeout
			server.WriteTimeout = cfg.REST.WriteTimeout
			server.IdleTimeout = cfg.REST.IdleTimeout

			go func() {
				logger.Info("Starting planner API server", "addr", listenAddr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("Server error", "error", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logger.Info("Shutting down server")

			// Give the server 30 seconds to finish serving ongoing requests
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return err
			}

			logger.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}
