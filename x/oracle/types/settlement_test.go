package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name        string
		amount      uint64
		expBuyback  uint64
		expTreasury uint64
	}{
		{"1. zero", 0, 0, 0},
		{"2. one unit goes to treasury", 1, 0, 1},
		{"3. floor of 80 percent", 7, 5, 2},
		{"4. even split", 1000, 800, 200},
		{"5. max u64 does not overflow", math.MaxUint64, 14757395258967641292, 3689348814741910323},
		{"6. just above the naive overflow point", math.MaxUint64/80 + 1, (math.MaxUint64/80 + 1) * 4 / 5, (math.MaxUint64/80 + 1) - (math.MaxUint64/80+1)*4/5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := ComputeSplit(tt.amount)
			assert.Equal(t, tt.amount, split.Amount)
			assert.Equal(t, tt.expBuyback, split.Buyback)
			assert.Equal(t, tt.expTreasury, split.Treasury)
			assert.Equal(t, tt.amount, split.Buyback+split.Treasury)
		})
	}
}

func TestComputeSplitPartition(t *testing.T) {
	for amount := uint64(0); amount < 5000; amount++ {
		split := ComputeSplit(amount)
		if split.Buyback+split.Treasury != amount || split.Buyback != amount*80/100 {
			t.Fatalf("bad split for %d: %+v", amount, split)
		}
	}
}
