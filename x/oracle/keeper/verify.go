package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/x/oracle/types"
)

// Verify checks a submitted value against its binding hash and, on a match,
// stores the proof and moves the request to Verified.
func (k Keeper) Verify(
	ctx sdk.Context,
	caller sdk.AccAddress,
	requestAddr sdk.AccAddress,
	dataValue uint64,
	proofHash types.ProofHash,
	timestamp int64,
) (types.Proof, error) {
	registry, err := k.mustGetRegistry(ctx)
	if err != nil {
		return types.Proof{}, err
	}
	if !registry.IsAdmin(caller) {
		return types.Proof{}, types.ErrUnauthorized.Wrapf("%s is not the registry admin", caller)
	}

	req, err := k.GetRequest(ctx, requestAddr)
	if err != nil {
		return types.Proof{}, err
	}
	if err := req.RequireStatus(types.StatusPending); err != nil {
		return types.Proof{}, err
	}

	if !types.VerifyProofHash(dataValue, req.DataType, timestamp, proofHash) {
		return types.Proof{}, types.ErrProofVerificationFailed.Wrapf(
			"digest of (%d, %q, %d) does not match %s", dataValue, req.DataType, timestamp, proofHash)
	}

	proof := types.Proof{
		Address:    types.ProofAddress(req.Address),
		Request:    req.Address,
		Oracle:     req.Oracle,
		DataValue:  dataValue,
		ProofHash:  proofHash,
		Timestamp:  timestamp,
		VerifiedAt: ctx.BlockTime().Unix(),
	}
	if k.HasProof(ctx, proof.Address) {
		return types.Proof{}, types.ErrInvalidRequestStatus.Wrapf("proof %s already exists", proof.Address)
	}
	if err := req.Transition(types.StatusVerified); err != nil {
		return types.Proof{}, err
	}

	k.SetProof(ctx, proof)
	k.SetRequest(ctx, req)
	return proof, nil
}
