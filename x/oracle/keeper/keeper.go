package keeper

import (
	"encoding/binary"
	"fmt"

	"github.com/cosmos/cosmos-sdk/store/prefix"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/xydata/oracle/x/oracle/types"
)

type Keeper struct {
	storeKey storetypes.StoreKey

	// optional; settlement only updates the ledger when nil
	bankKeeper types.BankKeeper
}

func NewKeeper(
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
) *Keeper {
	return &Keeper{
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
	}
}

func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// GetRegistry returns the registry record and whether it has been initialized.
func (k Keeper) GetRegistry(ctx sdk.Context) (types.Registry, bool) {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.KeyRegistry)
	if len(bz) == 0 {
		return types.Registry{}, false
	}
	registry, err := types.UnmarshalRegistry(bz)
	if err != nil {
		panic(err)
	}
	return registry, true
}

func (k Keeper) SetRegistry(ctx sdk.Context, registry types.Registry) {
	store := ctx.KVStore(k.storeKey)
	bz, err := types.MarshalRegistry(registry)
	if err != nil {
		panic(err)
	}
	store.Set(types.KeyRegistry, bz)
}

func (k Keeper) mustGetRegistry(ctx sdk.Context) (types.Registry, error) {
	registry, found := k.GetRegistry(ctx)
	if !found {
		return types.Registry{}, types.ErrNotInitialized
	}
	return registry, nil
}

func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.KeyParams)
	if len(bz) == 0 {
		return types.DefaultParams()
	}
	params, err := types.UnmarshalParams(bz)
	if err != nil {
		panic(err)
	}
	return params
}

func (k Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return types.ErrInvalidParams.Wrap(err.Error())
	}
	bz, err := types.MarshalParams(params)
	if err != nil {
		return err
	}
	ctx.KVStore(k.storeKey).Set(types.KeyParams, bz)
	return nil
}

func (k Keeper) GetRequest(ctx sdk.Context, addr sdk.AccAddress) (types.Request, error) {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.GetRequestKey(addr))
	if len(bz) == 0 {
		return types.Request{}, types.ErrNotFound.Wrapf("request %s", addr)
	}
	return types.UnmarshalRequest(addr, bz)
}

// SetRequest stores a request and keeps the requester and status indexes in step.
func (k Keeper) SetRequest(ctx sdk.Context, req types.Request) {
	store := ctx.KVStore(k.storeKey)
	key := types.GetRequestKey(req.Address)

	if prev := store.Get(key); len(prev) > 0 {
		old, err := types.UnmarshalRequest(req.Address, prev)
		if err != nil {
			panic(err)
		}
		if old.Status != req.Status {
			store.Delete(types.GetStatusIndexKey(old.Status, req.Address))
		}
	}

	bz, err := types.MarshalRequest(req)
	if err != nil {
		panic(err)
	}
	store.Set(key, bz)
	store.Set(types.GetRequesterIndexKey(req.Requester, req.Address), []byte{0x01})
	store.Set(types.GetStatusIndexKey(req.Status, req.Address), []byte{0x01})
}

// IterateRequests walks all requests in key order until cb returns true.
func (k Keeper) IterateRequests(ctx sdk.Context, cb func(req types.Request) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyRequest)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		addr, err := types.ParseIndexedAddress(iterator.Key())
		if err != nil {
			panic(err)
		}
		req, err := types.UnmarshalRequest(addr, iterator.Value())
		if err != nil {
			panic(err)
		}
		if cb(req) {
			break
		}
	}
}

func (k Keeper) GetAllRequests(ctx sdk.Context) []types.Request {
	requests := []types.Request{}
	k.IterateRequests(ctx, func(req types.Request) bool {
		requests = append(requests, req)
		return false
	})
	return requests
}

func (k Keeper) GetProof(ctx sdk.Context, addr sdk.AccAddress) (types.Proof, error) {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.GetProofKey(addr))
	if len(bz) == 0 {
		return types.Proof{}, types.ErrNotFound.Wrapf("proof %s", addr)
	}
	return types.UnmarshalProof(addr, bz)
}

func (k Keeper) HasProof(ctx sdk.Context, addr sdk.AccAddress) bool {
	return ctx.KVStore(k.storeKey).Has(types.GetProofKey(addr))
}

func (k Keeper) SetProof(ctx sdk.Context, proof types.Proof) {
	bz, err := types.MarshalProof(proof)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(types.GetProofKey(proof.Address), bz)
}

func (k Keeper) IterateProofs(ctx sdk.Context, cb func(proof types.Proof) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyProof)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		addr, err := types.ParseIndexedAddress(iterator.Key())
		if err != nil {
			panic(err)
		}
		proof, err := types.UnmarshalProof(addr, iterator.Value())
		if err != nil {
			panic(err)
		}
		if cb(proof) {
			break
		}
	}
}

func (k Keeper) GetAllProofs(ctx sdk.Context) []types.Proof {
	proofs := []types.Proof{}
	k.IterateProofs(ctx, func(proof types.Proof) bool {
		proofs = append(proofs, proof)
		return false
	})
	return proofs
}

// GetRequesterNonce returns how many requests the requester has opened.
func (k Keeper) GetRequesterNonce(ctx sdk.Context, requester sdk.AccAddress) uint64 {
	bz := ctx.KVStore(k.storeKey).Get(types.GetRequesterNonceKey(requester))
	if len(bz) == 0 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func (k Keeper) SetRequesterNonce(ctx sdk.Context, requester sdk.AccAddress, nonce uint64) {
	ctx.KVStore(k.storeKey).Set(types.GetRequesterNonceKey(requester), types.IDToBytes(nonce))
}

func (k Keeper) GetAllRequesterNonces(ctx sdk.Context) []types.RequesterNonce {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyRequesterNonce)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	nonces := []types.RequesterNonce{}
	for ; iterator.Valid(); iterator.Next() {
		key := iterator.Key()
		nonces = append(nonces, types.RequesterNonce{
			Requester: sdk.AccAddress(key[1:]),
			Nonce:     binary.BigEndian.Uint64(iterator.Value()),
		})
	}
	return nonces
}
