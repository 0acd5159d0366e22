package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/xydata/oracle/indexer"
	"github.com/xydata/oracle/server"
	"github.com/xydata/oracle/testutil"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestQueryRoutes(t *testing.T) {
	node := testutil.NewNode(t)
	request := oracletypes.RequestAddress(node.Requester.Address(), oracletypes.RegistryAddress(), 0).String()

	tests := []struct {
		name      string
		path      string
		expStatus int
	}{
		{"1. health", "/healthz", http.StatusOK},
		{"2. status", "/v1/status", http.StatusOK},
		{"3. registry before initialize", "/v1/registry", http.StatusNotFound},
		{"4. params", "/v1/params", http.StatusOK},
		{"5. account", "/v1/accounts/" + node.Requester.Address().String(), http.StatusOK},
		{"6. bad account", "/v1/accounts/nope", http.StatusBadRequest},
		{"7. missing request", "/v1/requests/" + request, http.StatusNotFound},
		{"8. missing proof", "/v1/requests/" + request + "/proof", http.StatusNotFound},
		{"9. requests", "/v1/requests", http.StatusOK},
		{"10. requests bad status", "/v1/requests?status=done", http.StatusBadRequest},
		{"11. requests bad limit", "/v1/requests?limit=x", http.StatusBadRequest},
		{"12. txs", "/v1/txs?limit=5", http.StatusOK},
		{"13. txs bad limit", "/v1/txs?limit=-1", http.StatusBadRequest},
		{"14. proof hash", "/v1/proof-hash?data_value=15000&data_type=SOL/USD&timestamp=1700000000", http.StatusOK},
		{"15. proof hash long data type", "/v1/proof-hash?data_value=1&timestamp=1&data_type=" + strings.Repeat("x", 33), http.StatusBadRequest},
		{"16. unknown route", "/v1/nothing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expStatus, getJSON(t, node.URL()+tt.path, nil))
		})
	}
}

func TestProofHashRoute(t *testing.T) {
	node := testutil.NewNode(t)

	var res server.ProofHashResponse
	status := getJSON(t, node.URL()+"/v1/proof-hash?data_value=15000&data_type=SOL/USD&timestamp=1700000000", &res)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "6bd749027b1b172e68bde76a7b77a6233761ea650d6b6a65da5e1014b010ca59", res.ProofHash.String())
	require.True(t, strings.HasPrefix(res.CID, "b"))
}

func TestBroadcastRejectsGarbage(t *testing.T) {
	node := testutil.NewNode(t)

	resp, err := http.Post(node.URL()+"/v1/txs", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body server.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotZero(t, body.Code)

	resp2, err := http.Post(node.URL()+"/v1/txs", "application/json", strings.NewReader(`{"type":"mint","msg":{}}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

type staticStats struct {
	feeds []indexer.FeedStats
	err   error
}

func (s staticStats) Stats(context.Context) ([]indexer.FeedStats, error) {
	return s.feeds, s.err
}

func TestStatsRoute(t *testing.T) {
	node := testutil.NewNode(t)

	tests := []struct {
		name      string
		stats     server.StatsSource
		expStatus int
		expFeeds  int
	}{
		{"1. indexer disabled", nil, http.StatusServiceUnavailable, 0},
		{"2. read model answers", staticStats{feeds: []indexer.FeedStats{
			{DataType: "SOL/USD", Requests: 3, Settled: 1, Volume: "1000"},
			{DataType: "ETH/USD", Requests: 1, Pending: 1, Volume: "0"},
		}}, http.StatusOK, 2},
		{"3. read model fails", staticStats{err: errors.New("connection refused")}, http.StatusInternalServerError, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := server.DefaultConfig()
			cfg.EnableMetrics = false
			api := server.New(cfg, node.App, log.NewNopLogger())
			if tc.stats != nil {
				api.SetStats(tc.stats)
			}
			srv := httptest.NewServer(api.Handler())
			defer srv.Close()

			if tc.expStatus != http.StatusOK {
				require.Equal(t, tc.expStatus, getJSON(t, srv.URL+"/v1/stats", nil))
				return
			}
			var res server.StatsResponse
			require.Equal(t, tc.expStatus, getJSON(t, srv.URL+"/v1/stats", &res))
			require.Len(t, res.Feeds, tc.expFeeds)
			require.Equal(t, "SOL/USD", res.Feeds[0].DataType)
			require.Equal(t, "1000", res.Feeds[0].Volume)
		})
	}
}
