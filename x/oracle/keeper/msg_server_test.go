package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/x/oracle/types"
)

func (suite *KeeperTestSuite) TestMsgServerEvents() {
	srv := NewMsgServerImpl(suite.keeper)
	goCtx := sdk.WrapSDKContext(suite.ctx)

	_, err := srv.Initialize(goCtx, types.NewMsgInitialize(suite.admin.String(), suite.admin.String(), 250))
	suite.Require().NoError(err)

	created, err := srv.CreateRequest(goCtx, types.NewMsgCreateRequest(suite.requester.String(), "SOL/USD", 1))
	suite.Require().NoError(err)
	suite.Require().Zero(created.Nonce)

	ts := testBlockTime.Unix()
	verified, err := srv.Verify(goCtx, types.NewMsgVerify(suite.admin.String(), created.Request, 15000, types.ComputeProofHash(15000, "SOL/USD", ts), ts))
	suite.Require().NoError(err)
	suite.Require().NotEmpty(verified.ProofCID)

	settled, err := srv.Settle(goCtx, types.NewMsgSettle(suite.requester.String(), created.Request, verified.Proof, 1000))
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(800), settled.Split.Buyback)
	suite.Require().Equal(uint64(200), settled.Split.Treasury)

	updated, err := srv.UpdateConfig(goCtx, types.NewMsgUpdateConfig(suite.admin.String(), 300))
	suite.Require().NoError(err)
	suite.Require().Equal(uint16(250), updated.OldFeeBps)

	var eventTypes []string
	for _, ev := range suite.ctx.EventManager().Events() {
		eventTypes = append(eventTypes, ev.Type)
	}
	suite.Require().Equal([]string{
		types.EventTypeInitialize,
		types.EventTypeCreateRequest,
		types.EventTypeVerifyRequest,
		types.EventTypeSettleRequest,
		types.EventTypeUpdateConfig,
	}, eventTypes)

	_, err = srv.Verify(goCtx, types.NewMsgVerify(suite.admin.String(), "bad", 1, types.ProofHash{}, 1))
	suite.Require().ErrorIs(err, types.ErrInvalidAddress)
}
