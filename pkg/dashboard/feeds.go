package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tradedash/pkg/api"
	"tradedash/pkg/source"
)

// Intervals carries the refresh cadence of each feed.
type Intervals struct {
	Balance    time.Duration
	BTCPrice   time.Duration
	Pairs      time.Duration
	Stocks     time.Duration
	Trades     time.Duration
	Stats      time.Duration
	LastUpdate time.Duration
}

// Feeds bundles the typed pollers behind the dashboard screen.
type Feeds struct {
	Balance    *source.Poller[api.Balance]
	BTCPrice   *source.Poller[api.BTCPrice]
	Pairs      *source.Poller[[]api.CryptoPair]
	Stocks     *source.Poller[[]api.StockQuote]
	Trades     *source.Poller[[]api.Trade]
	Stats      *source.Poller[api.DashboardStats]
	LastUpdate *source.Poller[api.LastUpdate]
}

// NewFeeds builds one poller per dashboard source, all backed by client.
func NewFeeds(client *api.Client, userID int, tickers []string, iv Intervals, log *zap.Logger) *Feeds {
	return &Feeds{
		Balance: source.New("balance", iv.Balance, func(ctx context.Context) (api.Balance, error) {
			return client.GetBalance(ctx, userID)
		}, log),
		BTCPrice: source.New("btc_price", iv.BTCPrice, func(ctx context.Context) (api.BTCPrice, error) {
			return client.GetBTCPrice(ctx)
		}, log),
		Pairs: source.New("pairs", iv.Pairs, func(ctx context.Context) ([]api.CryptoPair, error) {
			return client.GetCryptoPairs(ctx)
		}, log),
		Stocks: source.New("stocks", iv.Stocks, func(ctx context.Context) ([]api.StockQuote, error) {
			return client.GetStockPrices(ctx, tickers)
		}, log),
		Trades: source.New("trades", iv.Trades, func(ctx context.Context) ([]api.Trade, error) {
			return client.GetRecentTrades(ctx, userID)
		}, log),
		Stats: source.New("stats", iv.Stats, func(ctx context.Context) (api.DashboardStats, error) {
			return client.GetDashboardStats(ctx)
		}, log),
		LastUpdate: source.New("last_update", iv.LastUpdate, func(ctx context.Context) (api.LastUpdate, error) {
			return client.GetLastUpdate(ctx)
		}, log),
	}
}

// Aggregator returns an aggregator over every feed.
func (f *Feeds) Aggregator(log *zap.Logger) *Aggregator {
	return NewAggregator(log,
		f.Balance, f.BTCPrice, f.Pairs, f.Stocks, f.Trades, f.Stats, f.LastUpdate)
}
