package defined

// defined.fi has no public API for its discover page, so the token list is read
// from the rendered DOM in a headless Chrome session.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-tracker/internal/infra/log"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	BaseURL   = "https://www.defined.fi/"
	TokensURL = BaseURL + "tokens/discover?createdAt=week1&rankingBy=volume&rankingDirection=DESC&network=sol"

	DefaultLimit = 30

	tokenRowSelector = `div[data-sentry-component='TokenRow']`
)

var ErrNoTokens = errors.New("no token rows found")

// Token is one row of the discover table.
type Token struct {
	TokenName       string `json:"token_name"`
	ChainName       string `json:"chain_name"`
	PairAddress     string `json:"pair_address"`
	ContractAddress string `json:"contract_address"`
	DexName         string `json:"dex_name"`
}

// rawRow is what the in-page script returns before the hrefs are split.
type rawRow struct {
	Name     string `json:"name"`
	PairHref string `json:"pairHref"`
	TokenRef string `json:"tokenHref"`
	Dex      string `json:"dex"`
}

const extractRowsJS = `Array.from(document.querySelectorAll("div[data-sentry-component='TokenRow']")).map(function (row) {
  var pick = function (cls) { return row.getElementsByClassName(cls)[0]; };
  var name = pick("css-i26l22"), pair = pick("css-i8j6jy"), token = pick("css-626yaa"), dex = pick("css-1wgwepu");
  return {
    name: name ? name.textContent.trim() : "",
    pairHref: pair ? pair.href : "",
    tokenHref: token ? token.href : "",
    dex: dex ? (dex.getAttribute("aria-label") || "") : ""
  };
})`

type Options struct {
	URL         string
	ShowBrowser bool
	Timeout     time.Duration
	ExecPath    string
}

type Scraper struct {
	opts Options
}

func New(opts Options) *Scraper {
	if opts.URL == "" {
		opts.URL = TokensURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Scraper{opts: opts}
}

// DiscoverTokens opens the discover page and returns up to limit tokens in page order.
func (s *Scraper) DiscoverTokens(ctx context.Context, limit int) ([]Token, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !s.opts.ShowBrowser),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`),
	)
	if s.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(s.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, s.opts.Timeout)
	defer cancel()

	log.LogInfo("Loading defined.fi discover page", zap.String("url", s.opts.URL))

	var rows []rawRow
	err := chromedp.Run(runCtx,
		chromedp.Navigate(s.opts.URL),
		chromedp.WaitVisible(tokenRowSelector, chromedp.ByQuery),
		chromedp.Evaluate(extractRowsJS, &rows),
	)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", s.opts.URL, err)
	}

	tokens := parseRows(rows, limit)
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}
	for i, t := range tokens {
		log.LogDebug("Discovered token",
			zap.Int("index", i+1),
			zap.String("token", t.TokenName),
			zap.String("chain", t.ChainName),
			zap.String("pair", t.PairAddress),
			zap.String("contract", t.ContractAddress),
			zap.String("dex", t.DexName))
	}
	return tokens, nil
}

// parseRows converts raw DOM rows into tokens. Pair links look like
// {base}{chain}/{pair}?..., token links end with the contract address.
func parseRows(rows []rawRow, limit int) []Token {
	out := make([]Token, 0, min(len(rows), limit))
	for _, r := range rows {
		if len(out) == limit {
			break
		}
		chain, pair := splitPairHref(r.PairHref)
		t := Token{
			TokenName:       r.Name,
			ChainName:       chain,
			PairAddress:     pair,
			ContractAddress: lastSegment(r.TokenRef),
			DexName:         r.Dex,
		}
		if t.ContractAddress == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func splitPairHref(href string) (chain, pair string) {
	path := strings.TrimPrefix(href, BaseURL)
	path, _, _ = strings.Cut(path, "?")
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

func lastSegment(href string) string {
	href, _, _ = strings.Cut(href, "?")
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
