// Package testutil runs an in-process node behind an httptest server.
package testutil

import (
	"net/http/httptest"
	"sync"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	tmdb "github.com/tendermint/tm-db"

	"github.com/xydata/oracle/app"
	"github.com/xydata/oracle/crypto/ethsecp256k1"
	"github.com/xydata/oracle/server"
)

const ChainID = "xydata-test"

// Clock is a settable clock shared with the node.
type Clock struct {
	mtx sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = t
}

// Node is a running node with funded test keys.
type Node struct {
	App    *app.App
	Server *httptest.Server
	Clock  *Clock

	Admin     *ethsecp256k1.PrivKey
	Requester *ethsecp256k1.PrivKey
	Treasury  sdk.AccAddress
	Buyback   sdk.AccAddress
}

// URL is the base URL of the API.
func (n *Node) URL() string {
	return n.Server.URL
}

// Close stops the API and releases subscribers.
func (n *Node) Close() {
	n.Server.Close()
	n.App.Close()
}

// TestingT is the subset of testing.TB a node needs, satisfied by GinkgoT.
type TestingT interface {
	require.TestingT
	Helper()
	Cleanup(func())
}

// NewNode starts a node whose genesis funds the requester with 1_000_000uxyd
// and routes settlement shares to two fresh accounts.
func NewNode(t TestingT) *Node {
	t.Helper()

	admin, err := ethsecp256k1.GenerateKey()
	require.NoError(t, err)
	requester, err := ethsecp256k1.GenerateKey()
	require.NoError(t, err)
	buyback, err := ethsecp256k1.GenerateKey()
	require.NoError(t, err)
	treasury, err := ethsecp256k1.GenerateKey()
	require.NoError(t, err)

	clock := NewClock(time.Unix(1700000000, 0).UTC())
	a, err := app.New(log.NewNopLogger(), tmdb.NewMemDB(), ChainID, app.WithClock(clock.Now))
	require.NoError(t, err)

	gs := app.DefaultGenesis(ChainID)
	gs.Balances = []app.Balance{{
		Address: requester.Address().String(),
		Coins:   sdk.NewCoins(sdk.NewInt64Coin("uxyd", 1_000_000)),
	}}
	gs.Oracle.Params.BuybackAddress = buyback.Address().String()
	gs.Oracle.Params.TreasuryAddress = treasury.Address().String()
	require.NoError(t, a.InitChain(gs))

	cfg := server.DefaultConfig()
	cfg.EnableMetrics = false
	srv := httptest.NewServer(server.New(cfg, a, log.NewNopLogger()).Handler())

	n := &Node{
		App:       a,
		Server:    srv,
		Clock:     clock,
		Admin:     admin,
		Requester: requester,
		Buyback:   buyback.Address(),
		Treasury:  treasury.Address(),
	}
	t.Cleanup(n.Close)
	return n
}
