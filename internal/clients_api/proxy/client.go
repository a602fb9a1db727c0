package proxy

// Client for the tracker's proxy backends. Two deployments are used:
// the dexscreener proxy (top projects, top traders) and the gmgn proxy
// (wallet statistics). Both answer {"message": [...]} on success.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

// Value is a scalar the proxies send either as a JSON string or a JSON number.
// It keeps the literal text so tables show exactly what the backend returned.
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*v = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
	default:
		*v = Value(raw)
	}
	return nil
}

func (v Value) String() string { return string(v) }

// Project is one row of the top projects list.
type Project struct {
	TokenName       string `json:"token_name"`
	TokenSymbol     string `json:"token_symbol"`
	ContractAddress string `json:"contract_address"`
	Volume          Value  `json:"volume"`
}

// WalletInfo is the gmgn summary for one wallet.
type WalletInfo struct {
	WalletAddress   string  `json:"wallet_address"`
	WinRate         Value   `json:"win_rate"`
	Transactions    Value   `json:"transactions"`
	PnL             Value   `json:"pnl"`
	DistributionNum Value   `json:"distribution_num"`
	Distribution    []Value `json:"distribution"`
	Dumps           Value   `json:"dumps"`
}

type envelope[T any] struct {
	Message []T `json:"message"`
}

var ErrNotConfigured = errors.New("proxy URL is not configured")

type Client struct {
	dex  *transport.Client
	gmgn *transport.Client
}

// New builds a client. Either URL may be empty; calls to that backend then fail
// with ErrNotConfigured.
func New(dexURL, gmgnURL string, opts transport.Options) *Client {
	c := &Client{}
	if dexURL != "" {
		o := opts
		o.Name = "dexscreener-proxy"
		o.BaseURL = strings.TrimRight(dexURL, "/")
		c.dex = transport.New(o)
	}
	if gmgnURL != "" {
		o := opts
		o.Name = "gmgn-proxy"
		o.BaseURL = strings.TrimRight(gmgnURL, "/")
		c.gmgn = transport.New(o)
	}
	return c
}

// GetTopProjects returns the current top projects. On failure the list is empty
// and the error matches transport.ErrRemoteUnavailable.
func (c *Client) GetTopProjects(ctx context.Context) ([]Project, error) {
	if c.dex == nil {
		return []Project{}, fmt.Errorf("dexscreener: %w", ErrNotConfigured)
	}
	return fetchMessage[Project](ctx, c.dex, "/get-top-project", nil)
}

// GetTopTraders returns trader wallet addresses for the given pairs, top 100 per pair,
// concatenated in request order.
func (c *Client) GetTopTraders(ctx context.Context, pairAddresses []string) ([]string, error) {
	if c.dex == nil {
		return []string{}, fmt.Errorf("dexscreener: %w", ErrNotConfigured)
	}
	body := map[string][]string{"pair_address_list": pairAddresses}
	return fetchMessage[string](ctx, c.dex, "/get-top-trader", body)
}

func (c *Client) GetWalletInfo(ctx context.Context, wallets []string) ([]WalletInfo, error) {
	if c.gmgn == nil {
		return []WalletInfo{}, fmt.Errorf("gmgn: %w", ErrNotConfigured)
	}
	body := map[string][]string{"wallet_address_list": wallets}
	return fetchMessage[WalletInfo](ctx, c.gmgn, "/get-wallet-info", body)
}

// The proxies take their JSON body on a GET request.
func fetchMessage[T any](ctx context.Context, api *transport.Client, endpoint string, body interface{}) ([]T, error) {
	var env envelope[T]
	if err := api.DoJSON(ctx, http.MethodGet, endpoint, body, nil, &env); err != nil {
		log.LogWarn("No data from proxy", zap.String("api", api.Name()), zap.String("endpoint", endpoint), zap.Error(err))
		return []T{}, err
	}
	if env.Message == nil {
		return []T{}, nil
	}
	log.LogDebug("Proxy response", zap.String("endpoint", endpoint), zap.Int("items", len(env.Message)))
	return env.Message, nil
}
