package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"wallet-tracker/internal/clients_api/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTopTradersPages(t *testing.T) {
	var (
		mu      sync.Mutex
		offsets []int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/v2/tokens/top_traders", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "solana", r.Header.Get("x-chain"))
		assert.Equal(t, "TOKEN", r.URL.Query().Get("address"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		mu.Lock()
		offsets = append(offsets, offset)
		mu.Unlock()

		items := make([]Trader, 0, PageSize)
		for i := 0; i < PageSize; i++ {
			items = append(items, Trader{Owner: fmt.Sprintf("w%d", offset+i)})
		}
		resp := map[string]interface{}{"success": true, "data": map[string]interface{}{"items": items}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New("key", srv.URL, transport.Options{})
	traders, err := c.GetTopTraders(context.Background(), "TOKEN")

	require.NoError(t, err)
	assert.Len(t, traders, 100)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, offsets)
	assert.Equal(t, "w0", traders[0].Owner)
	assert.Equal(t, "w99", traders[99].Owner)
}

func TestGetTopTradersStopsOnShortPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"success":true,"data":{"items":[{"owner":"a"},{"owner":""},{"owner":"b"}]}}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, transport.Options{})
	traders, err := c.GetTopTraders(context.Background(), "TOKEN")

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"a", "b"}, Owners(traders))
}

func TestGetTopTradersFailedPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("bad", srv.URL, transport.Options{})
	traders, err := c.GetTopTraders(context.Background(), "TOKEN")

	assert.ErrorIs(t, err, transport.ErrRemoteUnavailable)
	assert.Empty(t, traders)
}
