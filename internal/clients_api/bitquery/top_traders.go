package bitquery

import (
	"context"
	"fmt"
	"net/http"

	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

const (
	StreamingURL = "https://streaming.bitquery.io/eap"

	// WrappedSOL is the quote side every trade is measured against.
	WrappedSOL = "So11111111111111111111111111111111111111112"
)

const topTradersQuery = `query TopTradersByPnL($token: String!, $base: String!) {
  Solana {
    DEXTradeByTokens(
      orderBy: { descendingByField: "pnl" }
      limit: { count: 100 }
      where: {Trade: {Currency: {MintAddress: {is: $token}}, Side: {Amount: {gt: "0"}, Currency: {MintAddress: {is: $base}}}}, Transaction: {Result: {Success: true}}}
    ) {
      Trade {
        Account {
          Owner
        }
      }
      pnl: sum(of: Trade_Side_AmountInUSD)
    }
  }
}`

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// Trader is one DEXTradeByTokens row: the account owner and the summed USD side amount.
type Trader struct {
	Trade struct {
		Account struct {
			Owner string `json:"Owner"`
		} `json:"Account"`
	} `json:"Trade"`
	PnL string `json:"pnl"`
}

func (t Trader) Owner() string { return t.Trade.Account.Owner }

type topTradersResponse struct {
	Data struct {
		Solana struct {
			DEXTradeByTokens []Trader `json:"DEXTradeByTokens"`
		} `json:"Solana"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type Client struct {
	api *transport.Client
}

func New(apiKey, endpoint string, opts transport.Options) *Client {
	if endpoint == "" {
		endpoint = StreamingURL
	}
	opts.Name = "bitquery"
	opts.BaseURL = endpoint
	opts.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	return &Client{api: transport.New(opts)}
}

// GetTopTraders returns up to 100 traders of mint ordered by PnL, highest first.
func (c *Client) GetTopTraders(ctx context.Context, mint string) ([]Trader, error) {
	req := graphQLRequest{
		Query: topTradersQuery,
		Variables: map[string]string{
			"token": mint,
			"base":  WrappedSOL,
		},
	}

	var resp topTradersResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "", req, nil, &resp); err != nil {
		log.LogWarn("Bitquery request failed", zap.String("mint", mint), zap.Error(err))
		return []Trader{}, err
	}
	if len(resp.Errors) > 0 {
		err := &transport.RemoteError{API: "bitquery", Err: fmt.Errorf("graphql: %s", resp.Errors[0].Message)}
		log.LogWarn("Bitquery returned errors", zap.String("mint", mint), zap.Error(err))
		return []Trader{}, err
	}

	traders := resp.Data.Solana.DEXTradeByTokens
	if traders == nil {
		traders = []Trader{}
	}
	return traders, nil
}
