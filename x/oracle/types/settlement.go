package types

import (
	sdkmath "cosmossdk.io/math"
)

// Settlement shares, in percent of the paid amount.
const (
	BuybackSharePercent  = 80
	TreasurySharePercent = 100 - BuybackSharePercent
)

// Split is the partition of a settled payment.
type Split struct {
	Amount   uint64 `json:"amount" yaml:"amount"`
	Buyback  uint64 `json:"buyback" yaml:"buyback"`
	Treasury uint64 `json:"treasury" yaml:"treasury"`
}

// ComputeSplit partitions amount into floor(amount*80/100) and the remainder.
// The product is computed in 256-bit arithmetic so no u64 amount overflows.
func ComputeSplit(amount uint64) Split {
	buyback := sdkmath.NewUint(amount).MulUint64(BuybackSharePercent).QuoUint64(100).Uint64()
	return Split{
		Amount:   amount,
		Buyback:  buyback,
		Treasury: amount - buyback,
	}
}
