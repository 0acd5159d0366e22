package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/x/oracle/types"
)

// CreateRequest opens a Pending request at the requester's next derived address.
func (k Keeper) CreateRequest(ctx sdk.Context, requester sdk.AccAddress, dataType string, quantity uint64) (types.Request, error) {
	if err := sdk.VerifyAddressFormat(requester); err != nil {
		return types.Request{}, types.ErrInvalidAddress.Wrapf("requester: %s", err)
	}
	if err := types.ValidateDataType(dataType); err != nil {
		return types.Request{}, err
	}
	if err := types.ValidateQuantity(quantity); err != nil {
		return types.Request{}, err
	}
	registry, err := k.mustGetRegistry(ctx)
	if err != nil {
		return types.Request{}, err
	}
	if err := registry.IncrementRequests(); err != nil {
		return types.Request{}, err
	}

	oracle := types.RegistryAddress()
	nonce := k.GetRequesterNonce(ctx, requester)
	req := types.Request{
		Address:   types.RequestAddress(requester, oracle, nonce),
		Requester: requester,
		Oracle:    oracle,
		DataType:  dataType,
		Quantity:  quantity,
		Status:    types.StatusPending,
		CreatedAt: ctx.BlockTime().Unix(),
		Nonce:     nonce,
	}

	k.SetRequest(ctx, req)
	k.SetRequesterNonce(ctx, requester, nonce+1)
	k.SetRegistry(ctx, registry)
	return req, nil
}

// RejectRequest closes a Pending request. Only the admin may call it.
func (k Keeper) RejectRequest(ctx sdk.Context, caller, requestAddr sdk.AccAddress, reason string) (types.Request, error) {
	registry, err := k.mustGetRegistry(ctx)
	if err != nil {
		return types.Request{}, err
	}
	if !registry.IsAdmin(caller) {
		return types.Request{}, types.ErrUnauthorized.Wrapf("%s is not the registry admin", caller)
	}
	req, err := k.GetRequest(ctx, requestAddr)
	if err != nil {
		return types.Request{}, err
	}
	if err := req.RequireStatus(types.StatusPending); err != nil {
		return types.Request{}, err
	}
	if err := req.Transition(types.StatusRejected); err != nil {
		return types.Request{}, err
	}
	req.Reason = reason

	k.SetRequest(ctx, req)
	return req, nil
}
