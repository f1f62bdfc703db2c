package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tradedash/config"
	"tradedash/pkg/api"
	"tradedash/pkg/parser"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <from-token> to <to-token>",
	Short: "Price a swap without executing it",
	Long: `Fetch a swap quote for the given amount and token pair.

Examples:
  tradedash quote 0.5 ETH to USDC
  tradedash quote 100 USDC to ETH --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	amount, err := parseAmount(swapReq.Amount)
	if err != nil || !amount.IsPositive() {
		printError(fmt.Errorf("amount must be a positive number"))
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	log := newLogger(verbose)
	defer log.Sync()

	client := api.New(cfg.BaseURL, cfg.HTTPTimeout, config.Token, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+5*time.Second)
	defer cancel()

	q, err := client.GetSwapQuote(ctx, swapReq.FromToken, swapReq.ToToken, amount)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(q, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayQuote(q)
	fmt.Println()
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
