package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	provider := func() string { return token }
	return New(srv.URL, 5*time.Second, provider, nil), srv
}

func TestBearerHeaderOnlyOnAuthenticatedEndpoints(t *testing.T) {
	var gotAuth []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user/7/balance":
			w.Write([]byte(`{"user_id":7,"balance_btc":"0.5","balance_usd":"30000","btc_price_usd":"60000"}`))
		case "/crypto/btc-price":
			w.Write([]byte(`{"price_usd":"60000","price_btc":"1"}`))
		default:
			http.NotFound(w, r)
		}
	}, "tok123")

	_, err := client.GetBalance(context.Background(), 7)
	require.NoError(t, err)
	_, err = client.GetBTCPrice(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"Bearer tok123", ""}, gotAuth)
}

func TestTokenProviderConsultedPerCall(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.Write([]byte(`{"user_id":1,"balance_btc":"0","balance_usd":"0","btc_price_usd":"0"}`))
	}))
	defer srv.Close()

	token := "first"
	client := New(srv.URL, 5*time.Second, func() string { return token }, nil)

	_, err := client.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	token = "second"
	_, err = client.GetBalance(context.Background(), 1)
	require.NoError(t, err)

	require.Equal(t, []string{"Bearer first", "Bearer second"}, gotAuth)
}

func TestRemoteRejectionCarriesServerDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}, "expired")

	_, err := client.GetBalance(context.Background(), 1)
	require.Error(t, err)
	require.True(t, IsKind(err, KindRemoteRejected))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Could not validate credentials", apiErr.Message)
}

func TestRemoteRejectionFallsBackToEndpointMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream exploded`))
	}, "")

	_, err := client.GetBTCPrice(context.Background())
	require.True(t, IsKind(err, KindRemoteRejected))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.NotEmpty(t, apiErr.Message)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL, time.Second, nil, nil)
	_, err := client.GetBTCPrice(context.Background())
	require.True(t, IsKind(err, KindUnreachable))
}

func TestGarbageBodyIsInvalidShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}, "")

	_, err := client.GetBTCPrice(context.Background())
	require.True(t, IsKind(err, KindInvalidShape))
}

func TestBalanceWithoutUserIDIsInvalidShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance_btc":"0.5"}`))
	}, "tok")

	_, err := client.GetBalance(context.Background(), 1)
	require.True(t, IsKind(err, KindInvalidShape))
}

func TestBTCPriceWithoutPriceIsInvalidShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"change_24h":1.5}`))
	}, "")

	_, err := client.GetBTCPrice(context.Background())
	require.True(t, IsKind(err, KindInvalidShape))
}

func TestGetWalletsToleratesEnvelopeVariants(t *testing.T) {
	bodies := []string{
		`[{"id":1,"user_id":2,"wallet_name":"main"}]`,
		`{"wallets":[{"id":1,"user_id":2,"wallet_name":"main"}]}`,
		`{"data":[{"id":1,"user_id":2,"wallet_name":"main"}]}`,
	}
	for _, body := range bodies {
		body := body
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}, "tok")

		wallets, err := client.GetWallets(context.Background(), 2)
		require.NoError(t, err, body)
		require.Len(t, wallets, 1, body)
		require.Equal(t, "main", wallets[0].WalletName, body)
	}
}

func TestGetStockPricesSendsTickersAndUnwraps(t *testing.T) {
	var gotTickers string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTickers = r.URL.Query().Get("tickers")
		w.Write([]byte(`{"stocks":[{"symbol":"AAPL","price":"230.11"},{"symbol":"TSLA","price":"250.40"}]}`))
	}, "")

	stocks, err := client.GetStockPrices(context.Background(), []string{"AAPL", "TSLA"})
	require.NoError(t, err)
	require.Equal(t, "AAPL,TSLA", gotTickers)
	require.Len(t, stocks, 2)
	require.Equal(t, "AAPL", stocks[0].Symbol)
}

func TestGetSwapQuoteQueryAndValidation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "ETH", q.Get("from"))
		require.Equal(t, "USDC", q.Get("to"))
		require.Equal(t, "0.5", q.Get("amount"))
		w.Write([]byte(`{"fromToken":"ETH","toToken":"USDC","fromAmount":"0.5","toAmount":"1250.5","rate":"2501","slippage":0.5}`))
	}, "")

	q, err := client.GetSwapQuote(context.Background(), "ETH", "USDC", decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	require.Equal(t, "ETH", q.FromToken)
	require.True(t, q.ToAmount.Equal(decimal.RequireFromString("1250.5")))
}

func TestGetSwapQuoteMissingTokensIsInvalidShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rate":"2501"}`))
	}, "")

	_, err := client.GetSwapQuote(context.Background(), "ETH", "USDC", decimal.NewFromInt(1))
	require.True(t, IsKind(err, KindInvalidShape))
}

func TestLoginReturnsSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"access_token":"jwt-abc","token_type":"bearer"}`))
	}, "")

	session, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "jwt-abc", session.AccessToken)
}

func TestRegisterSurfacesRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Email already registered"}`))
	}, "")

	err := client.Register(context.Background(), Credentials{Username: "u", Email: "a@b.c", Password: "pw"})
	require.True(t, IsKind(err, KindRemoteRejected))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Email already registered", apiErr.Message)
}

func TestGetCryptoPriceEscapesSymbol(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"symbol":"ETH","price_usd":"2500"}`))
	}, "")

	price, err := client.GetCryptoPrice(context.Background(), "ETH")
	require.NoError(t, err)
	require.Equal(t, "/crypto/price/ETH", gotPath)
	require.Equal(t, "ETH", price.Symbol)
}

func TestLoginWithoutTokenIsInvalidShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, "")

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	require.True(t, IsKind(err, KindInvalidShape))
}
