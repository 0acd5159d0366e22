package keeper

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/armon/go-metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/x/oracle/types"
)

type msgServer struct {
	*Keeper
}

// NewMsgServerImpl returns an implementation of the oracle MsgServer interface
// for the provided Keeper.
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

func measure(op string, start time.Time) {
	metrics.MeasureSinceWithLabels([]string{types.ModuleName, "msg", "latency"}, start, []metrics.Label{{Name: "op", Value: op}})
}

func (k msgServer) Initialize(goCtx context.Context, msg *types.MsgInitialize) (*types.MsgInitializeResponse, error) {
	defer measure(types.TypeMsgInitialize, time.Now())
	ctx := sdk.UnwrapSDKContext(goCtx)

	admin, err := sdk.AccAddressFromBech32(msg.Admin)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("admin: %s", err)
	}
	registry, err := k.Keeper.Initialize(ctx, admin, msg.FeeBps)
	if err != nil {
		return nil, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeInitialize,
			sdk.NewAttribute(types.AttributeKeyAdmin, registry.Admin.String()),
			sdk.NewAttribute(types.AttributeKeyFeeBps, strconv.FormatUint(uint64(registry.FeeBps), 10)),
		),
	)
	return &types.MsgInitializeResponse{Registry: types.RegistryAddress().String()}, nil
}

func (k msgServer) CreateRequest(goCtx context.Context, msg *types.MsgCreateRequest) (*types.MsgCreateRequestResponse, error) {
	defer measure(types.TypeMsgCreateRequest, time.Now())
	ctx := sdk.UnwrapSDKContext(goCtx)

	req, err := k.Keeper.CreateRequest(ctx, msg.GetSigner(), msg.DataType, msg.Quantity)
	if err != nil {
		return nil, err
	}

	metrics.IncrCounterWithLabels([]string{types.ModuleName, "requests", "created"}, 1,
		[]metrics.Label{{Name: "data_type", Value: req.DataType}})
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreateRequest,
			sdk.NewAttribute(types.AttributeKeyRequest, req.Address.String()),
			sdk.NewAttribute(types.AttributeKeyRequester, req.Requester.String()),
			sdk.NewAttribute(types.AttributeKeyDataType, req.DataType),
			sdk.NewAttribute(types.AttributeKeyQuantity, strconv.FormatUint(req.Quantity, 10)),
			sdk.NewAttribute(types.AttributeKeyStatus, req.Status.String()),
		),
	)
	return &types.MsgCreateRequestResponse{Request: req.Address.String(), Nonce: req.Nonce}, nil
}

func (k msgServer) Verify(goCtx context.Context, msg *types.MsgVerify) (*types.MsgVerifyResponse, error) {
	defer measure(types.TypeMsgVerify, time.Now())
	ctx := sdk.UnwrapSDKContext(goCtx)

	requestAddr, err := sdk.AccAddressFromBech32(msg.Request)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("request: %s", err)
	}
	proof, err := k.Keeper.Verify(ctx, msg.GetSigner(), requestAddr, msg.DataValue, msg.ProofHash, msg.Timestamp)
	if err != nil {
		if errors.Is(err, types.ErrProofVerificationFailed) {
			metrics.IncrCounter([]string{types.ModuleName, "proofs", "rejected"}, 1)
		}
		return nil, err
	}

	var proofCID string
	if c, err := proof.ProofHash.ContentID(); err == nil {
		proofCID = c.String()
	}

	metrics.IncrCounter([]string{types.ModuleName, "proofs", "verified"}, 1)
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeVerifyRequest,
			sdk.NewAttribute(types.AttributeKeyRequest, proof.Request.String()),
			sdk.NewAttribute(types.AttributeKeyProof, proof.Address.String()),
			sdk.NewAttribute(types.AttributeKeyDataValue, strconv.FormatUint(proof.DataValue, 10)),
			sdk.NewAttribute(types.AttributeKeyProofHash, proof.ProofHash.String()),
			sdk.NewAttribute(types.AttributeKeyProofCID, proofCID),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatInt(proof.Timestamp, 10)),
			sdk.NewAttribute(types.AttributeKeyStatus, types.StatusVerified.String()),
		),
	)
	return &types.MsgVerifyResponse{
		Proof:      proof.Address.String(),
		ProofCID:   proofCID,
		VerifiedAt: proof.VerifiedAt,
	}, nil
}

func (k msgServer) Settle(goCtx context.Context, msg *types.MsgSettle) (*types.MsgSettleResponse, error) {
	defer measure(types.TypeMsgSettle, time.Now())
	ctx := sdk.UnwrapSDKContext(goCtx)

	requestAddr, err := sdk.AccAddressFromBech32(msg.Request)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("request: %s", err)
	}
	proofAddr, err := sdk.AccAddressFromBech32(msg.Proof)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("proof: %s", err)
	}
	req, split, err := k.Keeper.Settle(ctx, msg.GetSigner(), requestAddr, proofAddr, msg.Amount)
	if err != nil {
		return nil, err
	}
	registry, _ := k.GetRegistry(ctx)

	metrics.IncrCounter([]string{types.ModuleName, "requests", "settled"}, 1)
	metrics.IncrCounter([]string{types.ModuleName, "fees", "collected"}, float32(split.Amount))
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSettleRequest,
			sdk.NewAttribute(types.AttributeKeyRequest, req.Address.String()),
			sdk.NewAttribute(types.AttributeKeyPayer, msg.Payer),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(split.Amount, 10)),
			sdk.NewAttribute(types.AttributeKeyBuyback, strconv.FormatUint(split.Buyback, 10)),
			sdk.NewAttribute(types.AttributeKeyTreasury, strconv.FormatUint(split.Treasury, 10)),
			sdk.NewAttribute(types.AttributeKeyTotalFees, strconv.FormatUint(registry.TotalFeesCollected, 10)),
			sdk.NewAttribute(types.AttributeKeyStatus, req.Status.String()),
		),
	)
	return &types.MsgSettleResponse{Split: split, SettledAt: *req.SettledAt}, nil
}

func (k msgServer) UpdateConfig(goCtx context.Context, msg *types.MsgUpdateConfig) (*types.MsgUpdateConfigResponse, error) {
	defer measure(types.TypeMsgUpdateConfig, time.Now())
	ctx := sdk.UnwrapSDKContext(goCtx)

	oldFeeBps, err := k.Keeper.UpdateConfig(ctx, msg.GetSigner(), msg.NewFeeBps)
	if err != nil {
		return nil, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeUpdateConfig,
			sdk.NewAttribute(types.AttributeKeyOldFeeBps, strconv.FormatUint(uint64(oldFeeBps), 10)),
			sdk.NewAttribute(types.AttributeKeyFeeBps, strconv.FormatUint(uint64(msg.NewFeeBps), 10)),
		),
	)
	return &types.MsgUpdateConfigResponse{OldFeeBps: oldFeeBps, NewFeeBps: msg.NewFeeBps}, nil
}

func (k msgServer) RejectRequest(goCtx context.Context, msg *types.MsgReject) (*types.MsgRejectResponse, error) {
	defer measure(types.TypeMsgReject, time.Now())
	ctx := sdk.UnwrapSDKContext(goCtx)

	requestAddr, err := sdk.AccAddressFromBech32(msg.Request)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("request: %s", err)
	}
	req, err := k.Keeper.RejectRequest(ctx, msg.GetSigner(), requestAddr, msg.Reason)
	if err != nil {
		return nil, err
	}

	metrics.IncrCounter([]string{types.ModuleName, "requests", "rejected"}, 1)
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRejectRequest,
			sdk.NewAttribute(types.AttributeKeyRequest, req.Address.String()),
			sdk.NewAttribute(types.AttributeKeyRequester, req.Requester.String()),
			sdk.NewAttribute(types.AttributeKeyReason, req.Reason),
			sdk.NewAttribute(types.AttributeKeyStatus, req.Status.String()),
		),
	)
	return &types.MsgRejectResponse{}, nil
}
