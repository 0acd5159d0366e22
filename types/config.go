package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// Bech32Prefix is the human readable part of every account address.
	Bech32Prefix = "xydata"
	// Bech32PubPrefix is the human readable part of account public keys.
	Bech32PubPrefix = Bech32Prefix + "pub"

	// DefaultChainID is used by init when no chain id is given.
	DefaultChainID = "xydata-1"
)

// SetBech32Prefixes points the sdk address codec at the xydata prefixes.
// It is safe to call more than once.
func SetBech32Prefixes() {
	config := sdk.GetConfig()
	if config.GetBech32AccountAddrPrefix() == Bech32Prefix {
		return
	}
	config.SetBech32PrefixForAccount(Bech32Prefix, Bech32PubPrefix)
}
