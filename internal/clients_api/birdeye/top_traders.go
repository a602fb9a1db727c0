package birdeye

// BirdEye public API: top traders of a token over the last 24h, ranked by volume.
// The endpoint pages 10 items at a time; the tracker always reads the first 100.

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

const (
	APIBaseURL = "https://public-api.birdeye.so"

	PageSize  = 10
	MaxOffset = 100
)

// Trader is one entry of the top traders list. Owner is the wallet address.
type Trader struct {
	TokenAddress string   `json:"tokenAddress"`
	Owner        string   `json:"owner"`
	Tags         []string `json:"tags"`
	Type         string   `json:"type"`
	Volume       float64  `json:"volume"`
	Trade        int      `json:"trade"`
	TradeBuy     int      `json:"tradeBuy"`
	TradeSell    int      `json:"tradeSell"`
	VolumeBuy    float64  `json:"volumeBuy"`
	VolumeSell   float64  `json:"volumeSell"`
}

type topTradersResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items []Trader `json:"items"`
	} `json:"data"`
}

type Client struct {
	api *transport.Client
}

func New(apiKey, baseURL string, opts transport.Options) *Client {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	opts.Name = "birdeye"
	opts.BaseURL = baseURL
	opts.Headers = map[string]string{
		"accept":    "application/json",
		"x-chain":   "solana",
		"X-API-KEY": apiKey,
	}
	return &Client{api: transport.New(opts)}
}

// GetTopTraders reads offsets 0..90 and concatenates the pages. A failed page is
// logged and skipped; the error of the last failed page is returned alongside
// whatever was collected.
func (c *Client) GetTopTraders(ctx context.Context, contractAddress string) ([]Trader, error) {
	traders := make([]Trader, 0, MaxOffset)
	var lastErr error

	for offset := 0; offset < MaxOffset; offset += PageSize {
		page, err := c.getPage(ctx, contractAddress, offset)
		if err != nil {
			if ctx.Err() != nil {
				return traders, ctx.Err()
			}
			lastErr = err
			log.LogWarn("BirdEye page failed",
				zap.String("contract", contractAddress),
				zap.Int("offset", offset),
				zap.Error(err))
			continue
		}
		traders = append(traders, page...)
		if len(page) < PageSize {
			break
		}
	}

	return traders, lastErr
}

func (c *Client) getPage(ctx context.Context, contractAddress string, offset int) ([]Trader, error) {
	params := url.Values{}
	params.Set("address", contractAddress)
	params.Set("time_frame", "24h")
	params.Set("sort_type", "desc")
	params.Set("sort_by", "volume")
	params.Set("offset", fmt.Sprint(offset))
	params.Set("limit", fmt.Sprint(PageSize))

	var resp topTradersResponse
	if err := c.api.DoJSON(ctx, http.MethodGet, "/defi/v2/tokens/top_traders?"+params.Encode(), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Items, nil
}

// Owners extracts wallet addresses, skipping blanks.
func Owners(traders []Trader) []string {
	out := make([]string, 0, len(traders))
	for _, t := range traders {
		if t.Owner != "" {
			out = append(out, t.Owner)
		}
	}
	return out
}
