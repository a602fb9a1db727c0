// Package dexscreener resolves a token contract to its trading pairs on Solana.
package dexscreener

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

const APIBaseURL = "https://api.dexscreener.com"

// Pair is the subset of a DexScreener pair object the tracker uses.
type Pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
}

type Client struct {
	api   *transport.Client
	chain string
}

// New returns a Solana client. An empty baseURL selects the public API.
func New(baseURL string, opts transport.Options) *Client {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	opts.Name = "dexscreener"
	opts.BaseURL = baseURL
	return &Client{api: transport.New(opts), chain: "solana"}
}

func (c *Client) GetPairs(ctx context.Context, contractAddress string) ([]Pair, error) {
	endpoint := fmt.Sprintf("/token-pairs/v1/%s/%s", c.chain, url.PathEscape(contractAddress))

	var pairs []Pair
	if err := c.api.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, &pairs); err != nil {
		log.LogWarn("Failed to fetch pair addresses",
			zap.String("contract", contractAddress),
			zap.Error(err))
		return []Pair{}, err
	}
	return pairs, nil
}

// GetPairAddresses returns just the pair addresses, in API order.
func (c *Client) GetPairAddresses(ctx context.Context, contractAddress string) ([]string, error) {
	pairs, err := c.GetPairs(ctx, contractAddress)
	addresses := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.PairAddress != "" {
			addresses = append(addresses, p.PairAddress)
		}
	}
	return addresses, err
}
