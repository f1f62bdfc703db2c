package api

import "net/http"

// Endpoint describes one remote operation: where it lives relative to the
// base path and whether the request must carry a bearer token. Descriptors
// are defined once and never mutated.
type Endpoint struct {
	Name         string
	Method       string
	Path         string // fmt template, joined to the client's base URL
	Auth         bool
	DefaultError string // used when a rejection body has no error field
}

var (
	epLogin = Endpoint{
		Name: "login", Method: http.MethodPost, Path: "/auth/login",
		DefaultError: "login failed",
	}
	epRegister = Endpoint{
		Name: "register", Method: http.MethodPost, Path: "/auth/register",
		DefaultError: "registration failed",
	}
	epBalance = Endpoint{
		Name: "balance", Method: http.MethodGet, Path: "/user/%d/balance", Auth: true,
		DefaultError: "failed to fetch balance",
	}
	epWallets = Endpoint{
		Name: "wallets", Method: http.MethodGet, Path: "/user/%d/wallets", Auth: true,
		DefaultError: "failed to fetch wallets",
	}
	epBTCPrice = Endpoint{
		Name: "btc_price", Method: http.MethodGet, Path: "/crypto/btc-price",
		DefaultError: "failed to fetch BTC price",
	}
	epCryptoPrice = Endpoint{
		Name: "crypto_price", Method: http.MethodGet, Path: "/crypto/price/%s",
		DefaultError: "failed to fetch crypto price",
	}
	epCryptoPairs = Endpoint{
		Name: "crypto_pairs", Method: http.MethodGet, Path: "/crypto/pairs",
		DefaultError: "failed to fetch crypto pairs",
	}
	epStockPrices = Endpoint{
		Name: "stock_prices", Method: http.MethodGet, Path: "/stocks/prices",
		DefaultError: "failed to fetch stock prices",
	}
	epRecentTrades = Endpoint{
		Name: "recent_trades", Method: http.MethodGet, Path: "/trading/recent-trades/%d", Auth: true,
		DefaultError: "failed to fetch recent trades",
	}
	epSwapQuote = Endpoint{
		Name: "swap_quote", Method: http.MethodGet, Path: "/trading/quote",
		DefaultError: "failed to get swap quote",
	}
	epSwap = Endpoint{
		Name: "swap", Method: http.MethodPost, Path: "/trading/swap", Auth: true,
		DefaultError: "failed to execute swap",
	}
	epDashboardStats = Endpoint{
		Name: "dashboard_stats", Method: http.MethodGet, Path: "/dashboard/stats", Auth: true,
		DefaultError: "failed to fetch dashboard stats",
	}
	epLastUpdate = Endpoint{
		Name: "last_update", Method: http.MethodGet, Path: "/dashboard/last-update",
		DefaultError: "failed to fetch last update time",
	}
)
