package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xydata/oracle/x/oracle/keeper"
	"github.com/xydata/oracle/x/oracle/types"
)

func TestNewHandler(t *testing.T) {
	ctx, k := setupTest(t)
	handler := NewHandler(keeper.NewMsgServerImpl(k))

	admin, requester, stranger := testAddr(1), testAddr(2), testAddr(3)
	request := types.RequestAddress(requester, types.RegistryAddress(), 0)
	proof := types.ProofAddress(request)
	ts := int64(1700000000)

	tests := []struct {
		name   string
		msg    types.Msg
		expErr error
	}{
		{
			name:   "1. initialize",
			msg:    types.NewMsgInitialize(admin.String(), admin.String(), 250),
			expErr: nil,
		},
		{
			name:   "2. initialize twice",
			msg:    types.NewMsgInitialize(stranger.String(), stranger.String(), 250),
			expErr: types.ErrAlreadyInitialized,
		},
		{
			name:   "3. create request",
			msg:    types.NewMsgCreateRequest(requester.String(), "SOL/USD", 1),
			expErr: nil,
		},
		{
			name:   "4. settle pending request",
			msg:    types.NewMsgSettle(requester.String(), request.String(), proof.String(), 1000),
			expErr: types.ErrInvalidRequestStatus,
		},
		{
			name:   "5. verify by stranger",
			msg:    types.NewMsgVerify(stranger.String(), request.String(), 15000, types.ComputeProofHash(15000, "SOL/USD", ts), ts),
			expErr: types.ErrUnauthorized,
		},
		{
			name:   "6. verify with wrong hash",
			msg:    types.NewMsgVerify(admin.String(), request.String(), 15000, types.ComputeProofHash(15000, "SOL/USD", ts+1), ts),
			expErr: types.ErrProofVerificationFailed,
		},
		{
			name:   "7. verify",
			msg:    types.NewMsgVerify(admin.String(), request.String(), 15000, types.ComputeProofHash(15000, "SOL/USD", ts), ts),
			expErr: nil,
		},
		{
			name:   "8. settle",
			msg:    types.NewMsgSettle(requester.String(), request.String(), proof.String(), 1000),
			expErr: nil,
		},
		{
			name:   "9. invalid message",
			msg:    types.NewMsgCreateRequest(requester.String(), "SOL/USD", 0),
			expErr: types.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := handler(ctx, tt.msg)
			if tt.expErr != nil {
				require.ErrorIs(t, err, tt.expErr)
				require.Nil(t, res)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, res)
			require.NotEmpty(t, res.Data)
			require.NotEmpty(t, res.Events)
		})
	}

	registry, found := k.GetRegistry(ctx)
	require.True(t, found)
	require.Equal(t, uint64(1), registry.TotalRequests)
	require.Equal(t, uint64(1000), registry.TotalFeesCollected)
}

type failingMsg struct{ types.MsgCreateRequest }

func TestHandlerUnknownMessage(t *testing.T) {
	ctx, k := setupTest(t)
	handler := NewHandler(keeper.NewMsgServerImpl(k))

	_, err := handler(ctx, &failingMsg{*types.NewMsgCreateRequest(testAddr(1).String(), "SOL/USD", 1)})
	require.Error(t, err)
}

func TestHandlerDiscardsFailedBranch(t *testing.T) {
	ctx, k := setupTest(t)
	handler := NewHandler(keeper.NewMsgServerImpl(k))

	_, err := handler(ctx, types.NewMsgInitialize(testAddr(1).String(), testAddr(1).String(), 250))
	require.NoError(t, err)

	before := ExportGenesis(ctx, k)
	_, err = handler(ctx, types.NewMsgUpdateConfig(testAddr(2).String(), 100))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.Equal(t, before, ExportGenesis(ctx, k))
}
