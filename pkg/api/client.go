package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TokenProvider supplies the bearer credential for authenticated endpoints.
// It is consulted on every call, so a token refreshed by an external process
// is picked up without restarting anything.
type TokenProvider func() string

// Client is a typed wrapper over the trading platform's REST API. It issues
// one HTTP request per call and normalizes every failure into *Error; retry
// policy belongs to the caller.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenProvider
	log     *zap.Logger
}

// New creates an API client rooted at baseURL (e.g. "http://localhost:8000/api").
func New(baseURL string, timeout time.Duration, token TokenProvider, log *zap.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
		log:     log,
	}
}

// call performs a single request against ep and returns the raw success body.
func (c *Client) call(ctx context.Context, ep Endpoint, query url.Values, body any, pathArgs ...any) (json.RawMessage, error) {
	path := ep.Path
	if len(pathArgs) > 0 {
		path = fmt.Sprintf(ep.Path, pathArgs...)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, invalidShape(ep.Name, "encode request: "+err.Error())
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, u, reader)
	if err != nil {
		return nil, unreachable(ep.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.Auth {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	reqID := uuid.NewString()
	c.log.Debug("api request",
		zap.String("id", reqID),
		zap.String("endpoint", ep.Name),
		zap.String("method", ep.Method),
		zap.String("url", u))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api transport failure", zap.String("id", reqID), zap.Error(err))
		return nil, unreachable(ep.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unreachable(ep.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := serverMessage(raw)
		if msg == "" {
			msg = ep.DefaultError
		}
		c.log.Debug("api rejected",
			zap.String("id", reqID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, remoteRejected(ep.Name, resp.StatusCode, msg)
	}

	c.log.Debug("api response",
		zap.String("id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)))
	return raw, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthSession, error) {
	raw, err := c.call(ctx, epLogin, nil, creds)
	if err != nil {
		return AuthSession{}, err
	}
	session, err := decode[AuthSession](epLogin, raw)
	if err != nil {
		return AuthSession{}, err
	}
	if session.AccessToken == "" {
		return AuthSession{}, invalidShape(epLogin.Name, "missing access_token")
	}
	return session, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, creds Credentials) error {
	_, err := c.call(ctx, epRegister, nil, creds)
	return err
}

// GetBalance fetches the user's wallet balance.
func (c *Client) GetBalance(ctx context.Context, userID int) (Balance, error) {
	raw, err := c.call(ctx, epBalance, nil, nil, userID)
	if err != nil {
		return Balance{}, err
	}
	out, err := decode[Balance](epBalance, raw)
	if err != nil {
		return Balance{}, err
	}
	if out.UserID == 0 {
		return Balance{}, invalidShape(epBalance.Name, "missing user_id")
	}
	return out, nil
}

// GetWallets lists the user's wallets. Accepts a bare array, {"wallets": [...]}
// or {"data": [...]}.
func (c *Client) GetWallets(ctx context.Context, userID int) ([]Wallet, error) {
	raw, err := c.call(ctx, epWallets, nil, nil, userID)
	if err != nil {
		return nil, err
	}
	return decode[[]Wallet](epWallets, raw, "wallets")
}

// GetBTCPrice fetches the live Bitcoin snapshot.
func (c *Client) GetBTCPrice(ctx context.Context) (BTCPrice, error) {
	raw, err := c.call(ctx, epBTCPrice, nil, nil)
	if err != nil {
		return BTCPrice{}, err
	}
	out, err := decode[BTCPrice](epBTCPrice, raw)
	if err != nil {
		return BTCPrice{}, err
	}
	if out.PriceUSD.IsZero() {
		return BTCPrice{}, invalidShape(epBTCPrice.Name, "missing price_usd")
	}
	return out, nil
}

// GetCryptoPrice fetches the market snapshot for one symbol.
func (c *Client) GetCryptoPrice(ctx context.Context, symbol string) (CryptoPrice, error) {
	raw, err := c.call(ctx, epCryptoPrice, nil, nil, url.PathEscape(symbol))
	if err != nil {
		return CryptoPrice{}, err
	}
	return decode[CryptoPrice](epCryptoPrice, raw)
}

// GetCryptoPairs fetches the top trading pairs.
func (c *Client) GetCryptoPairs(ctx context.Context) ([]CryptoPair, error) {
	raw, err := c.call(ctx, epCryptoPairs, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]CryptoPair](epCryptoPairs, raw, "pairs")
}

// GetStockPrices fetches quotes for the given tickers. Accepts a bare array
// or {"stocks": [...]}.
func (c *Client) GetStockPrices(ctx context.Context, tickers []string) ([]StockQuote, error) {
	query := url.Values{"tickers": {strings.Join(tickers, ",")}}
	raw, err := c.call(ctx, epStockPrices, query, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]StockQuote](epStockPrices, raw, "stocks")
}

// GetRecentTrades fetches the user's recent bot trades.
func (c *Client) GetRecentTrades(ctx context.Context, userID int) ([]Trade, error) {
	raw, err := c.call(ctx, epRecentTrades, nil, nil, userID)
	if err != nil {
		return nil, err
	}
	return decode[[]Trade](epRecentTrades, raw, "trades")
}

// GetSwapQuote asks the backend to price a swap of amount fromToken into
// toToken.
func (c *Client) GetSwapQuote(ctx context.Context, fromToken, toToken string, amount decimal.Decimal) (SwapQuote, error) {
	query := url.Values{
		"from":   {fromToken},
		"to":     {toToken},
		"amount": {amount.String()},
	}
	raw, err := c.call(ctx, epSwapQuote, query, nil)
	if err != nil {
		return SwapQuote{}, err
	}
	out, err := decode[SwapQuote](epSwapQuote, raw)
	if err != nil {
		return SwapQuote{}, err
	}
	if out.FromToken == "" || out.ToToken == "" {
		return SwapQuote{}, invalidShape(epSwapQuote.Name, "missing token symbols")
	}
	return out, nil
}

// ExecuteSwap submits a swap order. The success body is opaque and discarded.
func (c *Client) ExecuteSwap(ctx context.Context, order SwapOrder) error {
	_, err := c.call(ctx, epSwap, nil, order)
	return err
}

// GetDashboardStats fetches the aggregate dashboard header.
func (c *Client) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	raw, err := c.call(ctx, epDashboardStats, nil, nil)
	if err != nil {
		return DashboardStats{}, err
	}
	return decode[DashboardStats](epDashboardStats, raw)
}

// GetLastUpdate fetches the backend's last data refresh timestamp.
func (c *Client) GetLastUpdate(ctx context.Context) (LastUpdate, error) {
	raw, err := c.call(ctx, epLastUpdate, nil, nil)
	if err != nil {
		return LastUpdate{}, err
	}
	return decode[LastUpdate](epLastUpdate, raw)
}
