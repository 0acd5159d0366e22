package keeper

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/x/oracle/types"
)

// Settle pays for a Verified request. The split is computed, the registry fee
// total and the request are updated and, when recipients are configured and a
// bank keeper is wired, both shares are transferred from the payer. Callers
// run it on a cached context so a failed transfer discards the ledger update.
func (k Keeper) Settle(
	ctx sdk.Context,
	payer sdk.AccAddress,
	requestAddr sdk.AccAddress,
	proofAddr sdk.AccAddress,
	amount uint64,
) (types.Request, types.Split, error) {
	registry, err := k.mustGetRegistry(ctx)
	if err != nil {
		return types.Request{}, types.Split{}, err
	}
	req, err := k.GetRequest(ctx, requestAddr)
	if err != nil {
		return types.Request{}, types.Split{}, err
	}
	if err := req.RequireStatus(types.StatusVerified); err != nil {
		return types.Request{}, types.Split{}, err
	}
	proof, err := k.GetProof(ctx, proofAddr)
	if err != nil {
		return types.Request{}, types.Split{}, err
	}
	if !proof.MatchesRequest(req.Address) {
		return types.Request{}, types.Split{}, types.ErrProofMismatch.Wrapf(
			"proof %s belongs to request %s, not %s", proof.Address, proof.Request, req.Address)
	}

	split := types.ComputeSplit(amount)
	if err := registry.CollectFees(amount); err != nil {
		return types.Request{}, types.Split{}, err
	}
	if err := req.Transition(types.StatusSettled); err != nil {
		return types.Request{}, types.Split{}, err
	}
	now := ctx.BlockTime().Unix()
	req.PaymentAmount = amount
	req.SettledAt = &now

	if err := k.transferShares(ctx, payer, split); err != nil {
		return types.Request{}, types.Split{}, err
	}

	k.SetRegistry(ctx, registry)
	k.SetRequest(ctx, req)
	return req, split, nil
}

func (k Keeper) transferShares(ctx sdk.Context, payer sdk.AccAddress, split types.Split) error {
	params := k.GetParams(ctx)
	if k.bankKeeper == nil || !params.TransfersEnabled() {
		return nil
	}

	shares := []struct {
		recipient string
		amount    uint64
	}{
		{params.BuybackAddress, split.Buyback},
		{params.TreasuryAddress, split.Treasury},
	}
	for _, share := range shares {
		if share.amount == 0 {
			continue
		}
		to, err := sdk.AccAddressFromBech32(share.recipient)
		if err != nil {
			return types.ErrInvalidAddress.Wrapf("recipient %s: %s", share.recipient, err)
		}
		coins := sdk.NewCoins(sdk.NewCoin(params.Denom, sdkmath.NewIntFromUint64(share.amount)))
		if err := k.bankKeeper.SendCoins(ctx, payer, to, coins); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeSettlementSend,
				sdk.NewAttribute(types.AttributeKeyPayer, payer.String()),
				sdk.NewAttribute(types.AttributeKeyAmount, coins.String()),
				sdk.NewAttribute(types.AttributeKeyRecipient, to.String()),
			),
		)
	}
	return nil
}
