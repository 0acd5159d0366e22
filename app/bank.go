package app

import (
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// Balance is the genesis allocation of one account.
type Balance struct {
	Address string    `json:"address" yaml:"address"`
	Coins   sdk.Coins `json:"coins" yaml:"coins"`
}

// BankKeeper is a minimal coin ledger settling oracle payments.
type BankKeeper struct {
	storeKey storetypes.StoreKey
}

var _ oracletypes.BankKeeper = BankKeeper{}

func NewBankKeeper(storeKey storetypes.StoreKey) BankKeeper {
	return BankKeeper{storeKey: storeKey}
}

func (k BankKeeper) accountStore(ctx sdk.Context, addr sdk.AccAddress) prefix.Store {
	return prefix.NewStore(ctx.KVStore(k.storeKey), address.MustLengthPrefix(addr))
}

func (k BankKeeper) GetBalance(ctx sdk.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	bz := k.accountStore(ctx, addr).Get([]byte(denom))
	if len(bz) == 0 {
		return sdk.NewCoin(denom, sdkmath.ZeroInt())
	}
	var amount sdkmath.Int
	if err := amount.Unmarshal(bz); err != nil {
		panic(err)
	}
	return sdk.NewCoin(denom, amount)
}

func (k BankKeeper) GetAllBalances(ctx sdk.Context, addr sdk.AccAddress) sdk.Coins {
	store := k.accountStore(ctx, addr)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	coins := sdk.NewCoins()
	for ; iterator.Valid(); iterator.Next() {
		var amount sdkmath.Int
		if err := amount.Unmarshal(iterator.Value()); err != nil {
			panic(err)
		}
		coins = coins.Add(sdk.NewCoin(string(iterator.Key()), amount))
	}
	return coins
}

// GetAllAccountBalances returns the non-zero balances of every account,
// ordered by address.
func (k BankKeeper) GetAllAccountBalances(ctx sdk.Context) []Balance {
	iterator := ctx.KVStore(k.storeKey).Iterator(nil, nil)
	defer iterator.Close()

	balances := []Balance{}
	for ; iterator.Valid(); iterator.Next() {
		key := iterator.Key()
		addrLen := int(key[0])
		addr := sdk.AccAddress(key[1 : 1+addrLen]).String()
		var amount sdkmath.Int
		if err := amount.Unmarshal(iterator.Value()); err != nil {
			panic(err)
		}
		coin := sdk.NewCoin(string(key[1+addrLen:]), amount)

		if n := len(balances); n > 0 && balances[n-1].Address == addr {
			balances[n-1].Coins = balances[n-1].Coins.Add(coin)
			continue
		}
		balances = append(balances, Balance{Address: addr, Coins: sdk.NewCoins(coin)})
	}
	return balances
}

func (k BankKeeper) setBalance(ctx sdk.Context, addr sdk.AccAddress, coin sdk.Coin) {
	store := k.accountStore(ctx, addr)
	if coin.Amount.IsZero() {
		store.Delete([]byte(coin.Denom))
		return
	}
	bz, err := coin.Amount.Marshal()
	if err != nil {
		panic(err)
	}
	store.Set([]byte(coin.Denom), bz)
}

// MintCoins credits addr; used by genesis only.
func (k BankKeeper) MintCoins(ctx sdk.Context, addr sdk.AccAddress, amt sdk.Coins) {
	for _, coin := range amt {
		k.setBalance(ctx, addr, k.GetBalance(ctx, addr, coin.Denom).Add(coin))
	}
}

// SendCoins moves amt from fromAddr to toAddr or fails leaving balances untouched.
func (k BankKeeper) SendCoins(ctx sdk.Context, fromAddr sdk.AccAddress, toAddr sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidCoins, amt.String())
	}
	for _, coin := range amt {
		if k.GetBalance(ctx, fromAddr, coin.Denom).IsLT(coin) {
			return sdkerrors.Wrapf(sdkerrors.ErrInsufficientFunds, "%s has less than %s", fromAddr, coin)
		}
	}
	for _, coin := range amt {
		k.setBalance(ctx, fromAddr, k.GetBalance(ctx, fromAddr, coin.Denom).Sub(coin))
		k.setBalance(ctx, toAddr, k.GetBalance(ctx, toAddr, coin.Denom).Add(coin))
	}
	return nil
}
