package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tradedash/config"
	"tradedash/pkg/api"
)

var pairsTickers string

var pairsCmd = &cobra.Command{
	Use:     "pairs",
	Aliases: []string{"markets"},
	Short:   "List crypto pairs and stock prices",
	Long: `Fetch the top crypto trading pairs and a set of stock quotes. The two
feeds are independent; if one fails the other still prints.

Examples:
  tradedash pairs
  tradedash pairs --tickers AAPL,NVDA`,
	Run: runPairs,
}

func init() {
	rootCmd.AddCommand(pairsCmd)

	pairsCmd.Flags().StringVar(&pairsTickers, "tickers", "", "Comma-separated stock tickers (default from config)")
}

func runPairs(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	tickers := cfg.StockTickers
	if pairsTickers != "" {
		tickers = strings.Split(pairsTickers, ",")
	}

	log := newLogger(verbose)
	defer log.Sync()

	client := api.New(cfg.BaseURL, cfg.HTTPTimeout, config.Token, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching markets..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+5*time.Second)
	defer cancel()

	pairs, pairsErr := client.GetCryptoPairs(ctx)
	stocks, stocksErr := client.GetStockPrices(ctx, tickers)

	if !jsonOutput {
		s.Stop()
	}

	if pairsErr != nil && stocksErr != nil {
		printError(fmt.Errorf("pairs: %v; stocks: %v", pairsErr, stocksErr))
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]any{}
		if pairsErr == nil {
			out["pairs"] = pairs
		}
		if stocksErr == nil {
			out["stocks"] = stocks
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println()
	if pairsErr != nil {
		color.Yellow("  Crypto pairs unavailable: %v\n", pairsErr)
	} else {
		color.Green("  TOP PAIRS")
		for _, pair := range pairs {
			change := color.GreenString("%+.1f%%", pair.Change)
			if pair.Change < 0 {
				change = color.RedString("%+.1f%%", pair.Change)
			}
			fmt.Printf("    %-12s %14s  %s  vol %s\n",
				pair.Symbol, pair.Price.StringFixed(6), change, formatVolume(pair.Volume))
		}
	}

	fmt.Println()
	if stocksErr != nil {
		color.Yellow("  Stock prices unavailable: %v\n", stocksErr)
	} else {
		color.Green("  STOCKS")
		for _, stock := range stocks {
			change := color.GreenString("%+.2f%%", stock.ChangePercent)
			if stock.ChangePercent < 0 {
				change = color.RedString("%+.2f%%", stock.ChangePercent)
			}
			fmt.Printf("    %-6s %12s  %s\n", stock.Symbol, formatUSD(stock.Price), change)
		}
	}
	fmt.Println()
}
