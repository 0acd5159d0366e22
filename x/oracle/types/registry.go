package types

import (
	"fmt"
	"math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MaxFeeBps is the upper bound of the registry fee, 100% in basis points.
const MaxFeeBps uint16 = 10000

// Registry is the singleton record describing an oracle deployment.
type Registry struct {
	Admin              sdk.AccAddress `json:"admin" yaml:"admin"`
	FeeBps             uint16         `json:"fee_bps" yaml:"fee_bps"`
	TotalRequests      uint64         `json:"total_requests" yaml:"total_requests"`
	TotalFeesCollected uint64         `json:"total_fees_collected" yaml:"total_fees_collected"`
}

func NewRegistry(admin sdk.AccAddress, feeBps uint16) Registry {
	return Registry{Admin: admin, FeeBps: feeBps}
}

func ValidateFeeBps(feeBps uint16) error {
	if feeBps > MaxFeeBps {
		return ErrInvalidFee.Wrapf("fee_bps %d exceeds %d", feeBps, MaxFeeBps)
	}
	return nil
}

// IsAdmin reports whether addr is the registry admin.
func (r Registry) IsAdmin(addr sdk.AccAddress) bool {
	return len(r.Admin) > 0 && r.Admin.Equals(addr)
}

// IncrementRequests bumps the request counter, failing instead of wrapping.
func (r *Registry) IncrementRequests() error {
	if r.TotalRequests == math.MaxUint64 {
		return ErrOverflow.Wrap("total_requests")
	}
	r.TotalRequests++
	return nil
}

// CollectFees adds a settled amount to the fee total, failing instead of wrapping.
func (r *Registry) CollectFees(amount uint64) error {
	if r.TotalFeesCollected > math.MaxUint64-amount {
		return ErrOverflow.Wrapf("total_fees_collected %d + %d", r.TotalFeesCollected, amount)
	}
	r.TotalFeesCollected += amount
	return nil
}

func (r Registry) Validate() error {
	if err := sdk.VerifyAddressFormat(r.Admin); err != nil {
		return fmt.Errorf("invalid admin address: %w", err)
	}
	return ValidateFeeBps(r.FeeBps)
}
