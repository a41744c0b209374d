package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vouchsec/vouch/internal/api"
)

func newServeCmd(app *app) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the verification interview HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler := &api.Handler{
				Engine: app.engine,
				Vision: app.vision,
				Logger: app.logger,
			}

			server := &http.Server{
				Addr:              listenAddr,
				Handler:           api.NewRouter(handler),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       2 * time.Minute,
				WriteTimeout:      2 * time.Minute,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- server.ListenAndServe()
			}()

			app.logger.Info().Str("addr", listenAddr).Msg("interview API listening")

			select {
			case err := <-serveErr:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve interview api: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown interview api: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", app.listenAddr, "Listen address")

	return cmd
}
