package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Port
			}
			ctx, cancel := GracefulShutdown(cmd.Context(), a.logger)
			defer cancel()

			return a.withLedger(ctx, func(svc *services.LedgerService) error {
				srv := apphttp.NewServer(":"+port, svc, apphttp.Options{
					DashboardCacheTTL: a.cfg.DashboardCacheTTL,
					CSVDelimiter:      a.cfg.Delimiter(),
					Logger:            a.logger,
				})
				return runServer(ctx, srv, a.logger)
			})
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down within
// shutdownTimeout.
func runServer(ctx context.Context, srv *apphttp.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err.Error(), "addr", srv.Addr)
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error())
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
