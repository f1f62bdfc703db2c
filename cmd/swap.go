package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tradedash/config"
	"tradedash/pkg/api"
	"tradedash/pkg/parser"
	"tradedash/pkg/quote"
	"tradedash/pkg/source"
	"tradedash/pkg/swap"
)

var (
	noConfirm bool
	quoteWait time.Duration
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <from-token> to <to-token>",
	Short: "Price and execute a token swap",
	Long: `Derive a quote for a token swap, confirm it, and execute it.

On success the wallet balance and recent trades are refreshed immediately so
the printed balance reflects the swap. On failure nothing is cleared and the
same command can simply be retried.

Examples:
  tradedash swap 0.5 ETH to USDC
  tradedash swap 100 USDC to ETH --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().DurationVar(&quoteWait, "quote-timeout", 15*time.Second, "How long to wait for a quote")
}

func runSwap(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := api.New(cfg.BaseURL, cfg.HTTPTimeout, config.Token, log)
	deriver := quote.NewDeriver(client, cfg.QuoteSettleDelay, log)

	// Get quote with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	q, err := deriveQuote(ctx, client, deriver, swapReq)
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
	} else {
		displayQuote(q)
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Balance and trades refresh right after the swap instead of waiting
	// for their next poll tick.
	balance := source.New("balance", cfg.Poll.Balance, func(ctx context.Context) (api.Balance, error) {
		return client.GetBalance(ctx, cfg.UserID)
	}, log)
	trades := source.New("trades", cfg.Poll.Trades, func(ctx context.Context) ([]api.Trade, error) {
		return client.GetRecentTrades(ctx, cfg.UserID)
	}, log)
	balance.Start(ctx)
	trades.Start(ctx)
	defer balance.Stop()
	defer trades.Stop()

	executor := swap.NewExecutor(client, deriver, log)
	executor.RefreshAfterSwap(balance, trades)

	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}
	execErr := executor.Execute(ctx)
	if !jsonOutput {
		s.Stop()
	}
	if execErr != nil {
		printError(execErr)
		if !jsonOutput {
			fmt.Println("The quote is unchanged; run the same command to retry.")
		}
		os.Exit(1)
	}

	balance.RefreshWait(ctx)
	trades.RefreshWait(ctx)

	if jsonOutput {
		out := map[string]any{"status": "executed"}
		if snap := balance.Snapshot(); snap.HasValue {
			out["balance_btc"] = snap.Value.BalanceBTC
			out["balance_usd"] = snap.Value.BalanceUSD
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(color.GreenString("Swap executed successfully!"))
	if snap := balance.Snapshot(); snap.HasValue {
		fmt.Printf("  New balance: %s BTC  (%s)\n\n",
			snap.Value.BalanceBTC.StringFixed(6), formatUSD(snap.Value.BalanceUSD))
	}
}

// deriveQuote runs the draft through the deriver and waits for it to settle.
// When the deriver ends up with no quote, one direct call recovers the
// server's error message for display.
func deriveQuote(ctx context.Context, client *api.Client, deriver *quote.Deriver, req *parser.SwapCommand) (api.SwapQuote, error) {
	settled := make(chan struct{}, 1)
	deriver.OnUpdate(func() {
		select {
		case settled <- struct{}{}:
		default:
		}
	})

	deriver.SetDraft(ctx, req.FromToken, req.ToToken, req.Amount)

	deadline := time.After(quoteWait)
	for {
		if q, ok := deriver.Quote(); ok {
			return q, nil
		}
		select {
		case <-ctx.Done():
			return api.SwapQuote{}, ctx.Err()
		case <-deadline:
			return api.SwapQuote{}, fmt.Errorf("timed out waiting for a quote")
		case <-settled:
			if q, ok := deriver.Quote(); ok {
				return q, nil
			}
			if deriver.Draft().ToAmount == "" && deriver.Draft().FromAmount != "" {
				// Derivation settled without a quote; fetch the reason.
				amount, _ := parseAmount(req.Amount)
				if _, err := client.GetSwapQuote(ctx, req.FromToken, req.ToToken, amount); err != nil {
					return api.SwapQuote{}, err
				}
			}
		}
	}
}

func displayQuote(q api.SwapQuote) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:      %s %s\n", q.FromAmount.String(), color.YellowString(q.FromToken))
	fmt.Printf("  To:        ~%s %s\n", q.ToAmount.StringFixed(6), color.YellowString(q.ToToken))
	fmt.Printf("  Rate:      1 %s = %s %s\n", q.FromToken, q.Rate.StringFixed(6), q.ToToken)
	fmt.Printf("  Slippage:  %.2f%%\n", q.Slippage)
	fmt.Printf("  Gas:       ~%.0f units @ %.1f Gwei\n", q.GasEstimate, q.GasPrice)

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
