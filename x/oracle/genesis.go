package oracle

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/x/oracle/keeper"
	"github.com/xydata/oracle/x/oracle/types"
)

// InitGenesis new oracle genesis
func InitGenesis(ctx sdk.Context, k *keeper.Keeper, data types.GenesisState) {
	if err := data.Validate(); err != nil {
		panic(errorsmod.Wrapf(err, "invalid %s genesis", types.ModuleName))
	}

	if err := k.SetParams(ctx, data.Params); err != nil {
		panic(errorsmod.Wrapf(err, "error setting params"))
	}

	if data.Registry == nil {
		return
	}
	k.SetRegistry(ctx, *data.Registry)

	for _, n := range data.RequesterNonces {
		k.SetRequesterNonce(ctx, n.Requester, n.Nonce)
	}
	for _, req := range data.Requests {
		k.SetRequest(ctx, req)
	}
	for _, proof := range data.Proofs {
		k.SetProof(ctx, proof)
	}
}

// ExportGenesis returns a GenesisState for a given context and keeper.
func ExportGenesis(ctx sdk.Context, k *keeper.Keeper) types.GenesisState {
	var registry *types.Registry
	if r, found := k.GetRegistry(ctx); found {
		registry = &r
	}
	return types.NewGenesisState(
		k.GetParams(ctx),
		registry,
		k.GetAllRequests(ctx),
		k.GetAllProofs(ctx),
		k.GetAllRequesterNonces(ctx),
	)
}
