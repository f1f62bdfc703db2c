package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tradedash/config"
	"tradedash/pkg/api"
)

var showWallets bool

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet balance",
	Long: `Fetch the user's wallet balance, optionally with the per-wallet breakdown.

Examples:
  tradedash balance
  tradedash balance --wallets`,
	Run: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVar(&showWallets, "wallets", false, "Also list individual wallets")
}

func runBalance(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := cfg.RequireToken(); err != nil {
		printError(err)
		os.Exit(1)
	}

	log := newLogger(verbose)
	defer log.Sync()

	client := api.New(cfg.BaseURL, cfg.HTTPTimeout, config.Token, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching balance..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+5*time.Second)
	defer cancel()

	balance, err := client.GetBalance(ctx, cfg.UserID)

	var wallets []api.Wallet
	var walletsErr error
	if err == nil && showWallets {
		wallets, walletsErr = client.GetWallets(ctx, cfg.UserID)
	}

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]any{"balance": balance}
		if showWallets && walletsErr == nil {
			out["wallets"] = wallets
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println()
	color.Green("  WALLET BALANCE")
	fmt.Printf("\n  BTC:        %s\n", balance.BalanceBTC.StringFixed(6))
	fmt.Printf("  USD:        %s\n", formatUSD(balance.BalanceUSD))
	fmt.Printf("  BTC price:  %s\n\n", formatUSD(balance.BTCPriceUSD))

	if showWallets {
		if walletsErr != nil {
			color.Yellow("  Could not list wallets: %v\n", walletsErr)
			return
		}
		for _, w := range wallets {
			fmt.Printf("  %-16s %s BTC  (%s)  %s\n",
				w.WalletName, w.BalanceBTC.StringFixed(6), formatUSD(w.BalanceUSD), w.WalletAddress)
		}
		fmt.Println()
	}
}
