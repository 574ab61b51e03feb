package commands

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/hserve-org/hserve"
	"github.com/hserve-org/hserve/hservehttp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the demo HTTP/1.0 server",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper()
			if err != nil {
				return err
			}

			app := fx.New(
				hserve.LoggerWriter(os.Stdout),
				hserve.ForViper(v),
				fx.Provide(
					newLogger,
					prometheus.NewRegistry,
					func(r *prometheus.Registry) *hservehttp.Metrics {
						return hservehttp.NewMetrics(r)
					},
					newHandler,
					hservehttp.NewServerBuilder().UnmarshalKey("server"),
				),
				fx.Invoke(
					func(s *hservehttp.Server, logger *slog.Logger) {
						logger.Info("serving", "address", s.Addr)
					},
				),
			)

			if err := app.Err(); err != nil {
				return err
			}

			// blocks until SIGINT/SIGTERM, then runs the fx stop hooks
			app.Run()
			return nil
		},
	}
}

func newLogger() *slog.Logger {
	return slog.New(
		slog.NewTextHandler(os.Stdout, nil),
	)
}
