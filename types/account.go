package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Account tracks the replay-protection sequence of a signer.
type Account struct {
	Address  sdk.AccAddress `json:"address" yaml:"address"`
	Sequence uint64         `json:"sequence" yaml:"sequence"`
}
