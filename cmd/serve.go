package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/nutsfind/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve NUTS lookups over HTTP",
	Long: `Loads the configured dataset once and serves read-only point and bbox
lookups as GeoJSON. Endpoints: /healthz, /v1/find, /v1/bbox.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		finder, err := loadFinder(ctx, cfg)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           server.New(finder, cfg.Server.CORSOrigins).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serving lookups",
				zap.Int("port", cfg.Server.Port),
				zap.Int("regions", finder.Len()),
			)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			zap.L().Info("server stopped")
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(serveCmd) }
