package daemon

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/xydata/oracle/client"
	"github.com/xydata/oracle/oracle/config"
	"github.com/xydata/oracle/oracle/health"
	"github.com/xydata/oracle/testutil"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

type staticFetcher map[string]uint64

func (f staticFetcher) Fetch(_ context.Context, feed config.Feed) (uint64, error) {
	value, ok := f[feed.DataType]
	if !ok {
		return 0, errors.New("feed down")
	}
	return value, nil
}

type DaemonTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	node   *testutil.Node
	client *client.Client
}

func TestDaemonTestSuite(t *testing.T) {
	suite.Run(t, new(DaemonTestSuite))
}

func (suite *DaemonTestSuite) SetupTest() {
	suite.ctx, suite.cancel = context.WithTimeout(context.Background(), 20*time.Second)
	suite.node = testutil.NewNode(suite.T())
	suite.client = client.New(suite.node.URL(), 5*time.Second)
	config.SetForTesting(suite.T().TempDir(), testutil.ChainID, suite.node.URL(),
		config.Feed{DataType: "SOL/USD", URL: "http://feed/sol", Path: "solana.usd", Decimals: 2},
		config.Feed{DataType: "ETH/USD", URL: "http://feed/eth", Path: "ethereum.usd", Decimals: 2},
	)

	admin := suite.node.Admin
	_, err := suite.client.SignAndBroadcast(suite.ctx, admin, oracletypes.NewMsgInitialize(admin.Address().String(), admin.Address().String(), 250))
	suite.Require().NoError(err)
}

func (suite *DaemonTestSuite) TearDownTest() {
	suite.cancel()
}

func (suite *DaemonTestSuite) createRequest(dataType string) string {
	requester := suite.node.Requester
	res, err := suite.client.SignAndBroadcast(suite.ctx, requester, oracletypes.NewMsgCreateRequest(requester.Address().String(), dataType, 1))
	suite.Require().NoError(err)
	ev, _ := res.FindEvent(oracletypes.EventTypeCreateRequest)
	addr, _ := ev.Attribute(oracletypes.AttributeKeyRequest)
	return addr
}

func (suite *DaemonTestSuite) status(request string) oracletypes.RequestStatus {
	req, err := suite.client.Request(suite.ctx, request)
	suite.Require().NoError(err)
	return req.Status
}

func (suite *DaemonTestSuite) TestVerifiesPendingAndNewRequests() {
	before := suite.createRequest("SOL/USD")

	d, err := New(suite.ctx, suite.node.Admin, staticFetcher{"SOL/USD": 15025})
	suite.Require().NoError(err)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	suite.Eventually(func() bool {
		return suite.status(before) == oracletypes.StatusVerified
	}, 5*time.Second, 20*time.Millisecond)

	after := suite.createRequest("SOL/USD")
	unserved := suite.createRequest("BTC/USD")
	suite.Eventually(func() bool {
		return suite.status(after) == oracletypes.StatusVerified
	}, 5*time.Second, 20*time.Millisecond)

	proof, err := suite.client.RequestProof(suite.ctx, after)
	suite.Require().NoError(err)
	suite.Equal(uint64(15025), proof.Proof.DataValue)
	suite.True(oracletypes.VerifyProofHash(15025, "SOL/USD", proof.Proof.Timestamp, proof.Proof.ProofHash))

	suite.Equal(oracletypes.StatusPending, suite.status(unserved))

	suite.cancel()
	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("daemon did not stop")
	}
}

func (suite *DaemonTestSuite) freeAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)
	addr := l.Addr().String()
	suite.Require().NoError(l.Close())
	return addr
}

func (suite *DaemonTestSuite) TestServesHealth() {
	addr := suite.freeAddr()
	config.SetHealthListenForTesting(addr)

	d, err := New(suite.ctx, suite.node.Admin, staticFetcher{"SOL/USD": 1})
	suite.Require().NoError(err)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	var report health.Report
	suite.Eventually(func() bool {
		report, err = health.Fetch(suite.ctx, addr, time.Second)
		return err == nil && report.Healthy
	}, 5*time.Second, 20*time.Millisecond)
	suite.Contains(report.Checks, "node")
	suite.True(report.Checks["node"].Healthy)

	suite.cancel()
	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("daemon did not stop")
	}

	_, err = health.Fetch(context.Background(), addr, time.Second)
	suite.Error(err)
}

func (suite *DaemonTestSuite) TestFailingFeedLeavesRequestPending() {
	request := suite.createRequest("ETH/USD")

	d, err := New(suite.ctx, suite.node.Admin, staticFetcher{})
	suite.Require().NoError(err)
	suite.Require().NoError(d.Start())
	defer d.Stop()

	suite.Eventually(func() bool {
		return d.scheduler.Pending() == 0
	}, 5*time.Second, 20*time.Millisecond)
	suite.Equal(oracletypes.StatusPending, suite.status(request))
}

func (suite *DaemonTestSuite) TestNonAdminKeyGivesUp() {
	request := suite.createRequest("SOL/USD")

	before, err := suite.client.Txs(suite.ctx, 100)
	suite.Require().NoError(err)

	d, err := New(suite.ctx, suite.node.Requester, staticFetcher{"SOL/USD": 1})
	suite.Require().NoError(err)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	// each refused verify is committed, so the attempts show up as txs
	suite.Eventually(func() bool {
		txs, err := suite.client.Txs(suite.ctx, 100)
		return err == nil && len(txs) >= len(before)+maxAttempts
	}, 10*time.Second, 20*time.Millisecond)
	suite.Eventually(func() bool {
		return d.scheduler.Pending() == 0
	}, 5*time.Second, 20*time.Millisecond)
	suite.Equal(oracletypes.StatusPending, suite.status(request))

	suite.cancel()
	<-done
}

func (suite *DaemonTestSuite) TestNewFailsOnChainMismatch() {
	config.SetForTesting(suite.T().TempDir(), "other-chain", suite.node.URL())
	_, err := New(suite.ctx, suite.node.Admin, staticFetcher{})
	suite.Error(err)
}
