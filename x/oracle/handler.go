package oracle

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/xydata/oracle/x/oracle/types"
)

// Handler executes one oracle message against the given context.
type Handler func(ctx sdk.Context, msg types.Msg) (*sdk.Result, error)

// NewHandler creates a new handler for oracle messages. Each message runs on a
// cached branch of the store that is written back only when it succeeds.
func NewHandler(msgServer types.MsgServer) Handler {
	return func(ctx sdk.Context, msg types.Msg) (*sdk.Result, error) {
		if err := msg.ValidateBasic(); err != nil {
			return nil, err
		}

		cacheCtx, write := ctx.CacheContext()
		cacheCtx = cacheCtx.WithEventManager(sdk.NewEventManager())
		goCtx := sdk.WrapSDKContext(cacheCtx)

		var (
			res interface{}
			err error
		)
		switch msg := msg.(type) {
		case *types.MsgInitialize:
			res, err = msgServer.Initialize(goCtx, msg)

		case *types.MsgCreateRequest:
			res, err = msgServer.CreateRequest(goCtx, msg)

		case *types.MsgVerify:
			res, err = msgServer.Verify(goCtx, msg)

		case *types.MsgSettle:
			res, err = msgServer.Settle(goCtx, msg)

		case *types.MsgUpdateConfig:
			res, err = msgServer.UpdateConfig(goCtx, msg)

		case *types.MsgReject:
			res, err = msgServer.RejectRequest(goCtx, msg)

		default:
			return nil, errorsmod.Wrapf(sdkerrors.ErrUnknownRequest, "unrecognized %s message type: %T", types.ModuleName, msg)
		}
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(res)
		if err != nil {
			return nil, errorsmod.Wrap(sdkerrors.ErrJSONMarshal, err.Error())
		}
		write()

		return &sdk.Result{
			Data:   data,
			Events: cacheCtx.EventManager().ABCIEvents(),
		}, nil
	}
}
