package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/reportloom/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
	serveOutDir   string
	servePublish  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		p := newPipeline(c, pipelineOptions{
			Provider: serveProvider,
			Model:    serveModel,
			OutDir:   serveOutDir,
			Publish:  servePublish,
		})
		s := &server.Server{Runner: p, OutDir: p.OutDir, Logger: logger}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s (outputs in %s)\n", serveAddr, p.OutDir)
		return s.ListenAndServe(ctx, serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "text-generation provider (overrides config)")
	serveCmd.Flags().StringVarP(&serveModel, "model", "m", "", "model identifier (overrides config)")
	serveCmd.Flags().StringVarP(&serveOutDir, "out", "o", "", "output directory (overrides config)")
	serveCmd.Flags().BoolVar(&servePublish, "publish", false, "upload reports to the configured object storage")
}
