package commands

import (
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "btcnav",
	Short: "Bitcoin treasury aggregation server",
	Long: `btcnav aggregates public bitcoin financial data: the spot price,
public-company treasury holdings and spot ETF holdings. Upstream APIs are
tried in priority order with file-cache fallback, and the combined data is
served as JSON endpoints with derived NAV and premium/discount metrics.`,
	Version: "1.0.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
}
