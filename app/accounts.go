package app

import (
	"encoding/binary"

	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/xydata/oracle/types"
)

// AccountKeeper stores per-signer sequences used for replay protection.
type AccountKeeper struct {
	storeKey storetypes.StoreKey
}

func NewAccountKeeper(storeKey storetypes.StoreKey) AccountKeeper {
	return AccountKeeper{storeKey: storeKey}
}

func (k AccountKeeper) GetAccount(ctx sdk.Context, addr sdk.AccAddress) types.Account {
	bz := ctx.KVStore(k.storeKey).Get(address.MustLengthPrefix(addr))
	acc := types.Account{Address: addr}
	if len(bz) == 8 {
		acc.Sequence = binary.BigEndian.Uint64(bz)
	}
	return acc
}

func (k AccountKeeper) SetAccount(ctx sdk.Context, acc types.Account) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, acc.Sequence)
	ctx.KVStore(k.storeKey).Set(address.MustLengthPrefix(acc.Address), bz)
}

// IterateAccounts calls cb for every account with a stored sequence.
func (k AccountKeeper) IterateAccounts(ctx sdk.Context, cb func(acc types.Account) (stop bool)) {
	iterator := ctx.KVStore(k.storeKey).Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		key := iterator.Key()
		acc := types.Account{
			Address:  sdk.AccAddress(key[1 : 1+int(key[0])]),
			Sequence: binary.BigEndian.Uint64(iterator.Value()),
		}
		if cb(acc) {
			break
		}
	}
}

func (k AccountKeeper) GetAllAccounts(ctx sdk.Context) []types.Account {
	accounts := []types.Account{}
	k.IterateAccounts(ctx, func(acc types.Account) bool {
		accounts = append(accounts, acc)
		return false
	})
	return accounts
}

// IncrementSequence checks sequence against the stored one and bumps it.
func (k AccountKeeper) IncrementSequence(ctx sdk.Context, addr sdk.AccAddress, sequence uint64) error {
	acc := k.GetAccount(ctx, addr)
	if acc.Sequence != sequence {
		return types.ErrInvalidSequence.Wrapf("account %s expects sequence %d, got %d", addr, acc.Sequence, sequence)
	}
	acc.Sequence++
	k.SetAccount(ctx, acc)
	return nil
}
