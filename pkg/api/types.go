package api

import "github.com/shopspring/decimal"

// Balance is the user's wallet balance with the BTC reference price.
type Balance struct {
	UserID      int             `json:"user_id"`
	BalanceBTC  decimal.Decimal `json:"balance_btc"`
	BalanceUSD  decimal.Decimal `json:"balance_usd"`
	BTCPriceUSD decimal.Decimal `json:"btc_price_usd"`
}

// Wallet is one named wallet belonging to a user.
type Wallet struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	WalletName    string          `json:"wallet_name"`
	WalletAddress string          `json:"wallet_address"`
	BalanceBTC    decimal.Decimal `json:"balance_btc"`
	BalanceUSD    decimal.Decimal `json:"balance_usd"`
}

// BTCPrice is the live Bitcoin market snapshot.
type BTCPrice struct {
	PriceUSD    decimal.Decimal `json:"price_usd"`
	PriceBTC    decimal.Decimal `json:"price_btc"`
	Change24h   float64         `json:"change_24h"`
	Volume24h   float64         `json:"volume_24h"`
	MarketCap   float64         `json:"market_cap"`
	LastUpdated string          `json:"last_updated"`
}

// CryptoPrice is the market snapshot for a single symbol.
type CryptoPrice struct {
	Symbol      string          `json:"symbol"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	PriceBTC    decimal.Decimal `json:"price_btc"`
	Change24h   float64         `json:"change_24h"`
	Volume24h   float64         `json:"volume_24h"`
	MarketCap   float64         `json:"market_cap"`
	LastUpdated string          `json:"last_updated"`
}

// CryptoPair is one tradable pair in the top-pairs list.
type CryptoPair struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Change float64         `json:"change"`
	Volume float64         `json:"volume"`
}

// StockQuote is one ticker's price in the stocks feed.
type StockQuote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        float64         `json:"change"`
	ChangePercent float64         `json:"change_percent"`
	Volume        int64           `json:"volume"`
	MarketCap     float64         `json:"market_cap"`
	LastUpdated   string          `json:"last_updated"`
}

// Trade is one entry in the user's recent bot trades.
type Trade struct {
	ID     int    `json:"id"`
	Type   string `json:"type"`
	Pair   string `json:"pair"`
	Amount string `json:"amount"`
	Price  string `json:"price"`
	Time   string `json:"time"`
	Profit string `json:"profit"`
	Status string `json:"status"`
}

// SwapQuote is the authoritative pricing snapshot for one set of swap
// inputs. It is replaced wholesale on every successful derivation.
type SwapQuote struct {
	FromToken   string          `json:"fromToken"`
	ToToken     string          `json:"toToken"`
	FromAmount  decimal.Decimal `json:"fromAmount"`
	ToAmount    decimal.Decimal `json:"toAmount"`
	Rate        decimal.Decimal `json:"rate"`
	Slippage    float64         `json:"slippage"`
	GasEstimate float64         `json:"gasEstimate"`
	GasPrice    float64         `json:"gasPrice"`
}

// SwapOrder is the body posted to execute a swap.
type SwapOrder struct {
	FromToken string          `json:"fromToken"`
	ToToken   string          `json:"toToken"`
	Amount    decimal.Decimal `json:"amount"`
	Slippage  float64         `json:"slippage"`
}

// DashboardStats is the aggregate header of the dashboard screen.
type DashboardStats struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
	DailyPnL     decimal.Decimal `json:"daily_pnl"`
	ActiveTrades int             `json:"active_trades"`
	SuccessRate  float64         `json:"success_rate"`
}

// LastUpdate reports when the backend last refreshed its market data.
type LastUpdate struct {
	LastUpdate string `json:"last_update"`
}

// Credentials is the login/register request body.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// AuthSession is the successful login response.
type AuthSession struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
