package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tradedash/config"
	"tradedash/pkg/api"
	"tradedash/pkg/dashboard"
	"tradedash/pkg/source"
)

var (
	dashboardOnce   bool
	renderIntervalS int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the live trading dashboard",
	Long: `Render a live terminal dashboard: wallet balance, BTC price, top crypto
pairs, stock prices, recent bot trades and aggregate stats. Every data source
polls on its own cadence and fails independently; a broken feed shows its own
error line while the rest keep updating.

Examples:
  tradedash dashboard
  tradedash dashboard --once
  tradedash dashboard --refresh 5`,
	Run: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().BoolVar(&dashboardOnce, "once", false, "Render one snapshot and exit")
	dashboardCmd.Flags().IntVar(&renderIntervalS, "refresh", 2, "Screen redraw interval in seconds")
}

func runDashboard(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	log := newLogger(verbose)
	defer log.Sync()

	client := api.New(cfg.BaseURL, cfg.HTTPTimeout, config.Token, log)
	feeds := dashboard.NewFeeds(client, cfg.UserID, cfg.StockTickers, dashboard.Intervals{
		Balance:    cfg.Poll.Balance,
		BTCPrice:   cfg.Poll.BTCPrice,
		Pairs:      cfg.Poll.Pairs,
		Stocks:     cfg.Poll.Stocks,
		Trades:     cfg.Poll.Trades,
		Stats:      cfg.Poll.Stats,
		LastUpdate: cfg.Poll.LastUpdate,
	}, log)
	agg := feeds.Aggregator(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agg.Start(ctx)
	defer agg.Stop()

	if dashboardOnce {
		waitFirstLoad(ctx, agg, 15*time.Second)
		renderDashboard(feeds, agg)
		return
	}

	redraw := time.NewTicker(time.Duration(renderIntervalS) * time.Second)
	defer redraw.Stop()

	renderDashboard(feeds, agg)
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return
		case <-redraw.C:
			renderDashboard(feeds, agg)
		}
	}
}

// waitFirstLoad blocks until every source has settled once or the deadline
// passes.
func waitFirstLoad(ctx context.Context, agg *dashboard.Aggregator, limit time.Duration) {
	deadline := time.Now().Add(limit)
	for agg.Loading() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func renderDashboard(feeds *dashboard.Feeds, agg *dashboard.Aggregator) {
	// Home the cursor and clear; keeps the redraw flicker-free enough for a
	// 2s cadence.
	fmt.Print("\033[2J\033[H")

	color.Cyan("TRADEDASH")
	fmt.Printf("  %s", time.Now().Format("15:04:05"))
	if lu := feeds.LastUpdate.Snapshot(); lu.HasValue {
		fmt.Printf("   backend data: %s", relativeTime(lu.Value.LastUpdate))
	}
	if agg.Loading() {
		fmt.Print("   loading...")
	}
	fmt.Println()
	fmt.Println(strings.Repeat("=", 64))

	renderStats(feeds)
	renderBalance(feeds)
	renderBTC(feeds)
	renderPairs(feeds)
	renderStocks(feeds)
	renderTrades(feeds)

	// Per-source errors, one line each; healthy sources above keep showing
	// their (possibly stale) data.
	if errs := agg.Errors(); len(errs) > 0 {
		fmt.Println(strings.Repeat("-", 64))
		for name, msg := range errs {
			color.Yellow("  ! %s: %s", name, msg)
		}
	}
}

func renderStats(feeds *dashboard.Feeds) {
	snap := feeds.Stats.Snapshot()
	if !snap.HasValue {
		return
	}
	s := snap.Value
	fmt.Printf("\n  Total Balance: %s    Daily P&L: %s    Active Trades: %d    Success: %.1f%%%s\n",
		formatUSD(s.TotalBalance), signedUSD(s.DailyPnL), s.ActiveTrades, s.SuccessRate,
		staleMarker(snap.State))
}

func renderBalance(feeds *dashboard.Feeds) {
	snap := feeds.Balance.Snapshot()
	if !snap.HasValue {
		return
	}
	b := snap.Value
	fmt.Printf("\n  Wallet: %s BTC  (%s)  @ %s/BTC%s\n",
		b.BalanceBTC.StringFixed(6), formatUSD(b.BalanceUSD), formatUSD(b.BTCPriceUSD),
		staleMarker(snap.State))
}

func renderBTC(feeds *dashboard.Feeds) {
	snap := feeds.BTCPrice.Snapshot()
	if !snap.HasValue {
		return
	}
	p := snap.Value
	change := color.GreenString("%+.2f%%", p.Change24h)
	if p.Change24h < 0 {
		change = color.RedString("%+.2f%%", p.Change24h)
	}
	fmt.Printf("\n  BTC %s  24h %s  vol %s%s\n",
		formatUSD(p.PriceUSD), change, formatVolume(p.Volume24h), staleMarker(snap.State))
}

func renderPairs(feeds *dashboard.Feeds) {
	snap := feeds.Pairs.Snapshot()
	if !snap.HasValue || len(snap.Value) == 0 {
		return
	}
	fmt.Printf("\n  Top Pairs%s\n", staleMarker(snap.State))
	for _, pair := range snap.Value {
		change := color.GreenString("%+.1f%%", pair.Change)
		if pair.Change < 0 {
			change = color.RedString("%+.1f%%", pair.Change)
		}
		fmt.Printf("    %-12s %14s  %s  vol %s\n",
			pair.Symbol, pair.Price.StringFixed(6), change, formatVolume(pair.Volume))
	}
}

func renderStocks(feeds *dashboard.Feeds) {
	snap := feeds.Stocks.Snapshot()
	if !snap.HasValue || len(snap.Value) == 0 {
		return
	}
	fmt.Printf("\n  Stocks%s\n", staleMarker(snap.State))
	for _, stock := range snap.Value {
		change := color.GreenString("%+.2f%%", stock.ChangePercent)
		if stock.ChangePercent < 0 {
			change = color.RedString("%+.2f%%", stock.ChangePercent)
		}
		fmt.Printf("    %-6s %12s  %s\n", stock.Symbol, formatUSD(stock.Price), change)
	}
}

func renderTrades(feeds *dashboard.Feeds) {
	snap := feeds.Trades.Snapshot()
	if !snap.HasValue || len(snap.Value) == 0 {
		return
	}
	fmt.Printf("\n  Recent Bot Trades%s\n", staleMarker(snap.State))
	for _, trade := range snap.Value {
		side := color.GreenString("%-4s", trade.Type)
		if trade.Type == "SELL" {
			side = color.RedString("%-4s", trade.Type)
		}
		fmt.Printf("    %s %-10s %10s @ %-12s %8s  %s\n",
			side, trade.Pair, trade.Amount, trade.Price, trade.Profit, trade.Time)
	}
}

// staleMarker flags a section whose source is currently failing but still
// shows its last good value.
func staleMarker(st source.State) string {
	if st.Status == source.Error && st.HasValue {
		return color.YellowString("  (stale)")
	}
	return ""
}

func formatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

func signedUSD(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return color.RedString("-$%s", amount.Abs().StringFixed(2))
	}
	return color.GreenString("+$%s", amount.StringFixed(2))
}

func formatVolume(volume float64) string {
	switch {
	case volume >= 1e9:
		return fmt.Sprintf("$%.1fB", volume/1e9)
	case volume >= 1e6:
		return fmt.Sprintf("$%.1fM", volume/1e6)
	case volume >= 1e3:
		return fmt.Sprintf("$%.1fK", volume/1e3)
	default:
		return fmt.Sprintf("$%.0f", volume)
	}
}

// relativeTime renders an ISO timestamp as "just now" / "N min ago" style
// text, falling back to the raw string when it does not parse.
func relativeTime(timestamp string) string {
	if timestamp == "" {
		return "never"
	}
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04:05.999999", timestamp); err != nil {
			return timestamp
		}
	}
	mins := int(time.Since(t).Minutes())
	switch {
	case mins < 1:
		return "just now"
	case mins < 60:
		return fmt.Sprintf("%d min ago", mins)
	case mins < 24*60:
		hours := mins / 60
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
