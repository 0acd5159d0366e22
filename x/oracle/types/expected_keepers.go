package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BankKeeper moves settlement shares from the payer to the configured recipients.
type BankKeeper interface {
	SendCoins(ctx sdk.Context, fromAddr sdk.AccAddress, toAddr sdk.AccAddress, amt sdk.Coins) error
}
