package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/reportloom/internal/config"
	"github.com/KaramelBytes/reportloom/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
	// Structured logger built from config; status lines still go to stdout/stderr
	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "reportloom",
	Short: "reportloom: turn a dataset into charts, an AI summary, and PDF/DOCX reports",
	Long: `reportloom loads a CSV, TSV or XLSX dataset (file, pasted text, or URL), asks a
text-generation model for a short plain-language summary, picks charts from the
column shapes, and exports the result as PDF and DOCX reports.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.reportloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	if _, err := ensureConfig(); err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	}
}

// ensureConfig loads config once, applies flag overrides and builds the
// logger. Commands call it directly because tests bypass OnInitialize.
func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(c, rootCmd.PersistentFlags())
	cfg = c
	logger = logging.New(logging.Options{Level: c.LogLevel, Format: c.LogFormat, Debug: debug})
	logger.WithFields(logrus.Fields{"provider": c.Provider, "output_dir": c.OutputDir}).Debug("config loaded")
	return cfg, nil
}

func applyFlagOverrides(c *cfgpkg.Global, f *pflag.FlagSet) {
	override := func(name string, flag int, dst *int) {
		if f.Changed(name) && flag > 0 {
			*dst = flag
		}
	}
	override("http-timeout", flagHTTPTimeoutSec, &c.HTTPTimeoutSec)
	override("retry-max", flagRetryMaxAttempts, &c.RetryMaxAttempts)
	override("retry-base-ms", flagRetryBaseDelayMs, &c.RetryBaseDelayMs)
	override("retry-max-ms", flagRetryMaxDelayMs, &c.RetryMaxDelayMs)
}
