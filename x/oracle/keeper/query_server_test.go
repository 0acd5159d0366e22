package keeper

import (
	"github.com/cosmos/cosmos-sdk/types/query"

	"github.com/xydata/oracle/x/oracle/types"
)

func (suite *KeeperTestSuite) TestQueryRequests() {
	_, err := suite.keeper.QueryRegistry(suite.ctx)
	suite.Require().ErrorIs(err, types.ErrNotInitialized)

	suite.initialize(250)
	verified, _ := suite.verifiedRequest(suite.requester)
	for i := 0; i < 3; i++ {
		_, err := suite.keeper.CreateRequest(suite.ctx, suite.requester, "SOL/USD", 1)
		suite.Require().NoError(err)
	}
	_, err = suite.keeper.CreateRequest(suite.ctx, suite.stranger, "BTC/USD", 2)
	suite.Require().NoError(err)

	pending := types.StatusPending
	verifiedStatus := types.StatusVerified
	settled := types.StatusSettled

	tests := []struct {
		name     string
		req      types.QueryRequestsRequest
		expCount int
	}{
		{"1. all", types.QueryRequestsRequest{}, 5},
		{"2. by requester", types.QueryRequestsRequest{Requester: suite.requester}, 4},
		{"3. by other requester", types.QueryRequestsRequest{Requester: suite.stranger}, 1},
		{"4. pending", types.QueryRequestsRequest{Status: &pending}, 4},
		{"5. verified", types.QueryRequestsRequest{Status: &verifiedStatus}, 1},
		{"6. settled", types.QueryRequestsRequest{Status: &settled}, 0},
		{"7. paged", types.QueryRequestsRequest{Pagination: &query.PageRequest{Limit: 2}}, 2},
		{"8. offset", types.QueryRequestsRequest{Pagination: &query.PageRequest{Offset: 4, Limit: 2}}, 1},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			res, err := suite.keeper.QueryRequests(suite.ctx, tt.req)
			suite.Require().NoError(err)
			suite.Require().Len(res.Requests, tt.expCount)
			if tt.req.Status != nil {
				for _, r := range res.Requests {
					suite.Require().Equal(*tt.req.Status, r.Status)
				}
			}
		})
	}

	// status index follows transitions
	res, err := suite.keeper.QueryRequests(suite.ctx, types.QueryRequestsRequest{Status: &verifiedStatus})
	suite.Require().NoError(err)
	suite.Require().Equal(verified.Address, res.Requests[0].Address)
}
