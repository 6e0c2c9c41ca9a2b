package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"widget-dashboard/api"
	"widget-dashboard/auth"
	"widget-dashboard/config"
	"widget-dashboard/live"
	"widget-dashboard/logging"
	"widget-dashboard/userstore"
	"widget-dashboard/widget"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the preferences service",
		Long: `Serve the preferences API, the live arrangement feed and Prometheus metrics.

Settings come from dashboard.yaml (or --config) and DASHBOARD_* environment
variables. DASHBOARD_JWT_SECRET is required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "path to a config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := userstore.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	if err != nil {
		return err
	}

	router := api.RegisterRoutes(store, tokens, live.NewHub(), widget.Default(),
		api.WithLogger(logger),
		api.WithLoginRate(cfg.Login.Rate, cfg.Login.Burst),
	)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("widget-dashboard listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
