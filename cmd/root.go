package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "tradedash",
	Short: "A terminal dashboard and swap client for the trading platform API",
	Long: `tradedash is a command-line client for the trading platform backend.
It polls market data, wallet balances and bot activity, renders a live
terminal dashboard, and lets you price and execute token swaps.

Examples:
  tradedash dashboard
  tradedash quote 0.5 ETH to USDC
  tradedash swap 0.5 ETH to USDC
  tradedash balance
  tradedash pairs --tickers AAPL,TSLA`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// newLogger builds the logger handed to the library packages. Quiet by
// default so library logs never interleave with command output.
func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
