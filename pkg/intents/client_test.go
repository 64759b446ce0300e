package intents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFetchPendingIntents tests intent pool API decoding
func TestFetchPendingIntents(t *testing.T) {
	t.Run("wrapper response with intents key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/intents", r.URL.Path)
			assert.Equal(t, "pending", r.URL.Query().Get("status"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"intents":[{"id":"i1","chain_id":1,"sell_token":"weth","buy_token":"USDC","sell_amount":"100","min_buy_amount":"90"}],"page":1,"total_pages":1,"total_count":1}`))
		}))
		defer server.Close()

		client := New(server.URL, nil)
		fetched, err := client.FetchPendingIntents(context.Background())
		require.NoError(t, err)
		require.Len(t, fetched, 1)
		assert.Equal(t, "i1", fetched[0].ID)
		// symbols are normalized to upper case on the way in
		assert.Equal(t, "WETH", fetched[0].SellToken)
		assert.Equal(t, "USDC", fetched[0].BuyToken)
	})

	t.Run("wrapper response with data key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[{"id":"i2","sell_token":"A","buy_token":"B","sell_amount":"1","min_buy_amount":"0"}]}`))
		}))
		defer server.Close()

		client := New(server.URL, nil)
		fetched, err := client.FetchPendingIntents(context.Background())
		require.NoError(t, err)
		require.Len(t, fetched, 1)
		assert.Equal(t, "i2", fetched[0].ID)
	})

	t.Run("bare array response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"id":"i3","sell_token":"A","buy_token":"B","sell_amount":"1","min_buy_amount":"0"}]`))
		}))
		defer server.Close()

		client := New(server.URL, nil)
		fetched, err := client.FetchPendingIntents(context.Background())
		require.NoError(t, err)
		require.Len(t, fetched, 1)
		assert.Equal(t, "i3", fetched[0].ID)
	})

	t.Run("empty result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"intents":[],"page":1,"total_pages":0,"total_count":0}`))
		}))
		defer server.Close()

		client := New(server.URL, nil)
		fetched, err := client.FetchPendingIntents(context.Background())
		require.NoError(t, err)
		assert.Empty(t, fetched)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := New(server.URL, nil)
		_, err := client.FetchPendingIntents(context.Background())
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := New(server.URL, nil)
		_, err := client.FetchPendingIntents(context.Background())
		assert.Error(t, err)
	})
}
