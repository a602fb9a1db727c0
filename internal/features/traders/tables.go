package traders

// Table builders for the top-trader lookups. Headers follow the files the
// tracker has always produced so existing spreadsheets keep working.

import (
	"strconv"

	"wallet-tracker/internal/clients_api/proxy"
	"wallet-tracker/internal/features/tables"
)

const (
	HeaderWalletAddress = "Wallet Address"
	HeaderRank          = "Rank"
	HeaderPairAddress   = "Pair_Address"

	// RankWindow is the size of one per-pair top trader list.
	RankWindow = 100

	distributionBuckets = 5
)

var (
	ProjectHeaders = []string{"Name", "Symbol", "Contract Address", "Volume"}

	WalletInfoHeaders = []string{
		HeaderWalletAddress,
		"Win Rate",
		"Transactions",
		"PnL",
		"Distribution",
		"500%",
		"200% ~ 500%",
		"0% ~ 200%",
		"0% ~ -50%",
		"-50%",
		"10 Sec Dumps",
	}
)

func ProjectsTable(projects []proxy.Project) *tables.Table {
	t := tables.New(ProjectHeaders...)
	for _, p := range projects {
		t.Append(p.TokenName, p.TokenSymbol, p.ContractAddress, string(p.Volume))
	}
	return t
}

func PairsTable(pairs []string) *tables.Table {
	t := tables.New(HeaderPairAddress)
	for _, p := range pairs {
		t.Append(p)
	}
	return t
}

// TradersTable numbers wallets 1..100 and restarts for every following block of
// 100, since the backend concatenates one list per pair.
func TradersTable(wallets []string) *tables.Table {
	t := tables.New(HeaderWalletAddress, HeaderRank)
	for i, w := range wallets {
		t.Append(w, strconv.Itoa(i%RankWindow+1))
	}
	return t
}

// WalletInfoTable flattens the distribution into five buckets; missing buckets stay empty.
func WalletInfoTable(infos []proxy.WalletInfo) *tables.Table {
	t := tables.New(WalletInfoHeaders...)
	for _, w := range infos {
		row := []string{
			w.WalletAddress,
			string(w.WinRate),
			string(w.Transactions),
			string(w.PnL),
			string(w.DistributionNum),
		}
		for i := 0; i < distributionBuckets; i++ {
			if i < len(w.Distribution) {
				row = append(row, string(w.Distribution[i]))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, string(w.Dumps))
		t.Append(row...)
	}
	return t
}
