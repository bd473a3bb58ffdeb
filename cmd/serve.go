// =============================================================================
// CSV Reconciler - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the HTTP upload service
// until the process is interrupted, then shuts it down gracefully.
//
// COMMAND USAGE:
//   reconciler serve [--addr :5000]
//
// =============================================================================

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/pipeline"
	"github.com/ginjaninja78/csv-reconciler/internal/server"
)

// shutdownTimeout bounds how long running requests may finish after a signal.
const shutdownTimeout = 15 * time.Second

var serveAddr string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP reconciliation service",
	Long: `Run the HTTP service. POST a multipart form with the fields "spo_file" and
"fin_file" to /upload to receive the discrepancy report as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			mainConfig.Server.Addr = serveAddr
		}

		logger := logging.Default()

		p, err := pipeline.New(mainConfig, logger)
		if err != nil {
			return err
		}

		srv, err := server.New(mainConfig, p, logger)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
