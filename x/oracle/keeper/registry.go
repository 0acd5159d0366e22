package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/x/oracle/types"
)

// Initialize creates the registry with zeroed counters.
func (k Keeper) Initialize(ctx sdk.Context, admin sdk.AccAddress, feeBps uint16) (types.Registry, error) {
	if _, found := k.GetRegistry(ctx); found {
		return types.Registry{}, types.ErrAlreadyInitialized
	}
	if err := sdk.VerifyAddressFormat(admin); err != nil {
		return types.Registry{}, types.ErrInvalidAddress.Wrapf("admin: %s", err)
	}
	if err := types.ValidateFeeBps(feeBps); err != nil {
		return types.Registry{}, err
	}

	registry := types.NewRegistry(admin, feeBps)
	k.SetRegistry(ctx, registry)

	k.Logger(ctx).Info("oracle registry initialized", "admin", admin.String(), "fee_bps", feeBps)
	return registry, nil
}

// UpdateConfig replaces the registry fee. Only the admin may call it.
func (k Keeper) UpdateConfig(ctx sdk.Context, caller sdk.AccAddress, newFeeBps uint16) (oldFeeBps uint16, err error) {
	registry, err := k.mustGetRegistry(ctx)
	if err != nil {
		return 0, err
	}
	if !registry.IsAdmin(caller) {
		return 0, types.ErrUnauthorized.Wrapf("%s is not the registry admin", caller)
	}
	if err := types.ValidateFeeBps(newFeeBps); err != nil {
		return 0, err
	}

	oldFeeBps = registry.FeeBps
	registry.FeeBps = newFeeBps
	k.SetRegistry(ctx, registry)
	return oldFeeBps, nil
}
