package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// testAddr returns a deterministic 20-byte account address.
func testAddr(seed byte) sdk.AccAddress {
	addr := make([]byte, 20)
	for i := range addr {
		addr[i] = seed
	}
	return sdk.AccAddress(addr)
}
