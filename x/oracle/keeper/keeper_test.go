package keeper

import (
	"fmt"
	"testing"
	"time"

	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmdb "github.com/tendermint/tm-db"

	"github.com/xydata/oracle/x/oracle/types"
)

var testBlockTime = time.Unix(1700000000, 0).UTC()

// setupKeeper creates a new Keeper instance and context for testing
func setupKeeper(t *testing.T, bankKeeper types.BankKeeper) (*Keeper, sdk.Context) {
	storeKey := sdk.NewKVStoreKey(types.StoreKey)

	db := tmdb.NewMemDB()
	stateStore := store.NewCommitMultiStore(db)
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, tmproto.Header{Time: testBlockTime}, false, log.NewNopLogger())

	return NewKeeper(storeKey, bankKeeper), ctx
}

func testAddr(seed byte) sdk.AccAddress {
	addr := make([]byte, 20)
	for i := range addr {
		addr[i] = seed
	}
	return sdk.AccAddress(addr)
}

// mockBankKeeper records transfers and fails for payers listed in broke.
type mockBankKeeper struct {
	sent  map[string]sdk.Coins
	broke map[string]bool
}

func newMockBankKeeper() *mockBankKeeper {
	return &mockBankKeeper{sent: map[string]sdk.Coins{}, broke: map[string]bool{}}
}

func (m *mockBankKeeper) SendCoins(_ sdk.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	if m.broke[from.String()] {
		return fmt.Errorf("insufficient funds: %s", from)
	}
	m.sent[to.String()] = m.sent[to.String()].Add(amt...)
	return nil
}

type KeeperTestSuite struct {
	suite.Suite

	keeper *Keeper
	ctx    sdk.Context
	bank   *mockBankKeeper

	admin     sdk.AccAddress
	requester sdk.AccAddress
	stranger  sdk.AccAddress
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) SetupTest() {
	suite.bank = newMockBankKeeper()
	suite.keeper, suite.ctx = setupKeeper(suite.T(), suite.bank)
	suite.admin = testAddr(1)
	suite.requester = testAddr(2)
	suite.stranger = testAddr(3)
}

func (suite *KeeperTestSuite) initialize(feeBps uint16) {
	_, err := suite.keeper.Initialize(suite.ctx, suite.admin, feeBps)
	suite.Require().NoError(err)
}

// verifiedRequest creates a request and verifies it with a matching proof.
func (suite *KeeperTestSuite) verifiedRequest(requester sdk.AccAddress) (types.Request, types.Proof) {
	req, err := suite.keeper.CreateRequest(suite.ctx, requester, "SOL/USD", 1)
	suite.Require().NoError(err)
	ts := testBlockTime.Unix()
	proof, err := suite.keeper.Verify(suite.ctx, suite.admin, req.Address, 15000, types.ComputeProofHash(15000, "SOL/USD", ts), ts)
	suite.Require().NoError(err)
	req, err = suite.keeper.GetRequest(suite.ctx, req.Address)
	suite.Require().NoError(err)
	return req, proof
}

func (suite *KeeperTestSuite) TestInitialize() {
	tests := []struct {
		name   string
		feeBps uint16
		expErr error
	}{
		{"1. zero fee", 0, nil},
		{"2. max fee", 10000, nil},
		{"3. fee over max", 10001, types.ErrInvalidFee},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			registry, err := suite.keeper.Initialize(suite.ctx, suite.admin, tt.feeBps)
			if tt.expErr != nil {
				suite.Require().ErrorIs(err, tt.expErr)
				_, found := suite.keeper.GetRegistry(suite.ctx)
				suite.Require().False(found)
				return
			}
			suite.Require().NoError(err)
			suite.Require().Equal(tt.feeBps, registry.FeeBps)
			suite.Require().Zero(registry.TotalRequests)
			suite.Require().Zero(registry.TotalFeesCollected)

			stored, found := suite.keeper.GetRegistry(suite.ctx)
			suite.Require().True(found)
			suite.Require().Equal(registry, stored)
		})
	}

	_, err := suite.keeper.Initialize(suite.ctx, suite.stranger, 1)
	suite.Require().ErrorIs(err, types.ErrAlreadyInitialized)
}

func (suite *KeeperTestSuite) TestUpdateConfig() {
	_, err := suite.keeper.UpdateConfig(suite.ctx, suite.admin, 100)
	suite.Require().ErrorIs(err, types.ErrNotInitialized)

	suite.initialize(250)

	tests := []struct {
		name   string
		caller sdk.AccAddress
		fee    uint16
		expErr error
		expFee uint16
	}{
		{"1. non-admin", suite.stranger, 100, types.ErrUnauthorized, 250},
		{"2. non-admin with invalid fee is unauthorized first", suite.stranger, 20000, types.ErrUnauthorized, 250},
		{"3. admin with fee over max", suite.admin, 10001, types.ErrInvalidFee, 250},
		{"4. admin", suite.admin, 500, nil, 500},
		{"5. admin sets max", suite.admin, 10000, nil, 10000},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.keeper.UpdateConfig(suite.ctx, tt.caller, tt.fee)
			if tt.expErr != nil {
				suite.Require().ErrorIs(err, tt.expErr)
			} else {
				suite.Require().NoError(err)
			}
			registry, _ := suite.keeper.GetRegistry(suite.ctx)
			suite.Require().Equal(tt.expFee, registry.FeeBps)
			suite.Require().True(registry.IsAdmin(suite.admin))
		})
	}
}

func (suite *KeeperTestSuite) TestCreateRequest() {
	_, err := suite.keeper.CreateRequest(suite.ctx, suite.requester, "SOL/USD", 1)
	suite.Require().ErrorIs(err, types.ErrNotInitialized)

	suite.initialize(250)

	tests := []struct {
		name     string
		dataType string
		quantity uint64
		expErr   error
	}{
		{"1. valid", "SOL/USD", 1, nil},
		{"2. 32 byte data type", "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345", 10, nil},
		{"3. 33 byte data type", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456", 1, types.ErrInvalidDataType},
		{"4. zero quantity", "SOL/USD", 0, types.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			before, _ := suite.keeper.GetRegistry(suite.ctx)
			nonce := suite.keeper.GetRequesterNonce(suite.ctx, suite.requester)

			req, err := suite.keeper.CreateRequest(suite.ctx, suite.requester, tt.dataType, tt.quantity)
			after, _ := suite.keeper.GetRegistry(suite.ctx)
			if tt.expErr != nil {
				suite.Require().ErrorIs(err, tt.expErr)
				suite.Require().Equal(before, after)
				suite.Require().Equal(nonce, suite.keeper.GetRequesterNonce(suite.ctx, suite.requester))
				return
			}
			suite.Require().NoError(err)
			suite.Require().Equal(before.TotalRequests+1, after.TotalRequests)
			suite.Require().Equal(types.StatusPending, req.Status)
			suite.Require().Equal(testBlockTime.Unix(), req.CreatedAt)
			suite.Require().Zero(req.PaymentAmount)
			suite.Require().Nil(req.SettledAt)
			suite.Require().Equal(types.RequestAddress(suite.requester, types.RegistryAddress(), nonce), req.Address)

			stored, err := suite.keeper.GetRequest(suite.ctx, req.Address)
			suite.Require().NoError(err)
			suite.Require().Equal(req, stored)
		})
	}
}

func (suite *KeeperTestSuite) TestVerify() {
	suite.initialize(250)
	req, err := suite.keeper.CreateRequest(suite.ctx, suite.requester, "SOL/USD", 1)
	suite.Require().NoError(err)

	ts := int64(1699999990)
	good := types.ComputeProofHash(15000, "SOL/USD", ts)

	// non-admin
	_, err = suite.keeper.Verify(suite.ctx, suite.stranger, req.Address, 15000, good, ts)
	suite.Require().ErrorIs(err, types.ErrUnauthorized)

	// digest of a different value
	_, err = suite.keeper.Verify(suite.ctx, suite.admin, req.Address, 15001, good, ts)
	suite.Require().ErrorIs(err, types.ErrProofVerificationFailed)

	// digest of a different timestamp
	_, err = suite.keeper.Verify(suite.ctx, suite.admin, req.Address, 15000, good, ts+1)
	suite.Require().ErrorIs(err, types.ErrProofVerificationFailed)

	stored, err := suite.keeper.GetRequest(suite.ctx, req.Address)
	suite.Require().NoError(err)
	suite.Require().Equal(types.StatusPending, stored.Status)
	suite.Require().False(suite.keeper.HasProof(suite.ctx, types.ProofAddress(req.Address)))

	proof, err := suite.keeper.Verify(suite.ctx, suite.admin, req.Address, 15000, good, ts)
	suite.Require().NoError(err)
	suite.Require().Equal(req.Address, proof.Request)
	suite.Require().Equal(types.RegistryAddress(), proof.Oracle)
	suite.Require().Equal(testBlockTime.Unix(), proof.VerifiedAt)
	suite.Require().Equal(ts, proof.Timestamp)

	stored, err = suite.keeper.GetRequest(suite.ctx, req.Address)
	suite.Require().NoError(err)
	suite.Require().Equal(types.StatusVerified, stored.Status)

	// second verify loses the race
	_, err = suite.keeper.Verify(suite.ctx, suite.admin, req.Address, 15000, good, ts)
	suite.Require().ErrorIs(err, types.ErrInvalidRequestStatus)
	suite.Require().Len(suite.keeper.GetAllProofs(suite.ctx), 1)

	_, err = suite.keeper.Verify(suite.ctx, suite.admin, testAddr(9), 15000, good, ts)
	suite.Require().ErrorIs(err, types.ErrNotFound)
}

func (suite *KeeperTestSuite) TestSettle() {
	suite.initialize(250)
	req, proof := suite.verifiedRequest(suite.requester)

	pending, err := suite.keeper.CreateRequest(suite.ctx, suite.requester, "ETH/USD", 1)
	suite.Require().NoError(err)
	_, _, err = suite.keeper.Settle(suite.ctx, suite.requester, pending.Address, proof.Address, 1000)
	suite.Require().ErrorIs(err, types.ErrInvalidRequestStatus)

	other, otherProof := suite.verifiedRequest(suite.stranger)
	_, _, err = suite.keeper.Settle(suite.ctx, suite.requester, req.Address, otherProof.Address, 1000)
	suite.Require().ErrorIs(err, types.ErrProofMismatch)

	stored, err := suite.keeper.GetRequest(suite.ctx, req.Address)
	suite.Require().NoError(err)
	suite.Require().Equal(types.StatusVerified, stored.Status)

	settled, split, err := suite.keeper.Settle(suite.ctx, suite.requester, req.Address, proof.Address, 1000)
	suite.Require().NoError(err)
	suite.Require().Equal(types.Split{Amount: 1000, Buyback: 800, Treasury: 200}, split)
	suite.Require().Equal(types.StatusSettled, settled.Status)
	suite.Require().Equal(uint64(1000), settled.PaymentAmount)
	suite.Require().NotNil(settled.SettledAt)
	suite.Require().Equal(testBlockTime.Unix(), *settled.SettledAt)

	registry, _ := suite.keeper.GetRegistry(suite.ctx)
	suite.Require().Equal(uint64(1000), registry.TotalFeesCollected)

	_, _, err = suite.keeper.Settle(suite.ctx, suite.requester, req.Address, proof.Address, 1000)
	suite.Require().ErrorIs(err, types.ErrInvalidRequestStatus)

	// no recipients configured, nothing moved
	suite.Require().Empty(suite.bank.sent)

	_, _, err = suite.keeper.Settle(suite.ctx, suite.stranger, other.Address, otherProof.Address, 7)
	suite.Require().NoError(err)
	registry, _ = suite.keeper.GetRegistry(suite.ctx)
	suite.Require().Equal(uint64(1007), registry.TotalFeesCollected)
}

func (suite *KeeperTestSuite) TestSettleTransfers() {
	buyback, treasury := testAddr(7), testAddr(8)
	suite.Require().NoError(suite.keeper.SetParams(suite.ctx, types.Params{
		BuybackAddress:  buyback.String(),
		TreasuryAddress: treasury.String(),
		Denom:           "uxyd",
	}))
	suite.initialize(250)

	req, proof := suite.verifiedRequest(suite.requester)
	_, _, err := suite.keeper.Settle(suite.ctx, suite.requester, req.Address, proof.Address, 1000)
	suite.Require().NoError(err)
	suite.Require().Equal("800uxyd", suite.bank.sent[buyback.String()].String())
	suite.Require().Equal("200uxyd", suite.bank.sent[treasury.String()].String())
}

func (suite *KeeperTestSuite) TestSettleFailedTransferLeavesStateUnchanged() {
	suite.Require().NoError(suite.keeper.SetParams(suite.ctx, types.Params{
		BuybackAddress:  testAddr(7).String(),
		TreasuryAddress: testAddr(8).String(),
		Denom:           "uxyd",
	}))
	suite.initialize(250)
	req, proof := suite.verifiedRequest(suite.requester)
	suite.bank.broke[suite.requester.String()] = true

	cacheCtx, _ := suite.ctx.CacheContext()
	_, _, err := suite.keeper.Settle(cacheCtx, suite.requester, req.Address, proof.Address, 1000)
	suite.Require().Error(err)

	stored, err := suite.keeper.GetRequest(suite.ctx, req.Address)
	suite.Require().NoError(err)
	suite.Require().Equal(types.StatusVerified, stored.Status)
	suite.Require().Zero(stored.PaymentAmount)
	registry, _ := suite.keeper.GetRegistry(suite.ctx)
	suite.Require().Zero(registry.TotalFeesCollected)
}

func (suite *KeeperTestSuite) TestRejectRequest() {
	suite.initialize(250)
	req, err := suite.keeper.CreateRequest(suite.ctx, suite.requester, "SOL/USD", 1)
	suite.Require().NoError(err)

	_, err = suite.keeper.RejectRequest(suite.ctx, suite.stranger, req.Address, "spam")
	suite.Require().ErrorIs(err, types.ErrUnauthorized)

	rejected, err := suite.keeper.RejectRequest(suite.ctx, suite.admin, req.Address, "feed unavailable")
	suite.Require().NoError(err)
	suite.Require().Equal(types.StatusRejected, rejected.Status)
	suite.Require().Equal("feed unavailable", rejected.Reason)

	ts := testBlockTime.Unix()
	_, err = suite.keeper.Verify(suite.ctx, suite.admin, req.Address, 1, types.ComputeProofHash(1, "SOL/USD", ts), ts)
	suite.Require().ErrorIs(err, types.ErrInvalidRequestStatus)

	verified, _ := suite.verifiedRequest(suite.requester)
	_, err = suite.keeper.RejectRequest(suite.ctx, suite.admin, verified.Address, "late")
	suite.Require().ErrorIs(err, types.ErrInvalidRequestStatus)
}
