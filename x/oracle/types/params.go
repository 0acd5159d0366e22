package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// DefaultDenom is the denomination settlement shares are paid in.
const DefaultDenom = "uxyd"

// Params configure where settlement shares are paid. Empty recipients disable
// the coin transfer and settlement only updates the ledger.
type Params struct {
	BuybackAddress  string `json:"buyback_address" yaml:"buyback_address"`
	TreasuryAddress string `json:"treasury_address" yaml:"treasury_address"`
	Denom           string `json:"denom" yaml:"denom"`
}

// DefaultParams returns default oracle module parameters
func DefaultParams() Params {
	return Params{Denom: DefaultDenom}
}

// TransfersEnabled reports whether both recipients are configured.
func (p Params) TransfersEnabled() bool {
	return p.BuybackAddress != "" && p.TreasuryAddress != ""
}

// Validate performs basic validation on oracle parameters
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.Denom); err != nil {
		return fmt.Errorf("invalid denom: %w", err)
	}
	if (p.BuybackAddress == "") != (p.TreasuryAddress == "") {
		return fmt.Errorf("buyback and treasury addresses must be set together")
	}
	for name, addr := range map[string]string{"buyback": p.BuybackAddress, "treasury": p.TreasuryAddress} {
		if addr == "" {
			continue
		}
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			return fmt.Errorf("invalid %s address: %w", name, err)
		}
	}
	return nil
}
