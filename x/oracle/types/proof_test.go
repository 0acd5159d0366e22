package types

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProofHash(t *testing.T) {
	tests := []struct {
		name      string
		dataValue uint64
		dataType  string
		timestamp int64
		expHex    string
	}{
		{
			name:      "1. SOL/USD price in cents",
			dataValue: 15000,
			dataType:  "SOL/USD",
			timestamp: 1700000000,
			expHex:    "6bd749027b1b172e68bde76a7b77a6233761ea650d6b6a65da5e1014b010ca59",
		},
		{
			name:      "2. empty data type and negative timestamp",
			dataValue: 0,
			dataType:  "",
			timestamp: -1,
			expHex:    "787979ee6a78d79a5c6cf1f3ede7cb1d40a6ae9e410062d0b57f848ca083edd6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ComputeProofHash(tt.dataValue, tt.dataType, tt.timestamp)
			assert.Equal(t, tt.expHex, h.String())
			assert.True(t, VerifyProofHash(tt.dataValue, tt.dataType, tt.timestamp, h))
		})
	}
}

func TestVerifyProofHashBitFlips(t *testing.T) {
	const (
		dataValue = uint64(15000)
		dataType  = "SOL/USD"
		timestamp = int64(1700000000)
	)
	h := ComputeProofHash(dataValue, dataType, timestamp)

	for bit := 0; bit < 64; bit++ {
		require.False(t, VerifyProofHash(dataValue^(1<<bit), dataType, timestamp, h), "data_value bit %d", bit)
		require.False(t, VerifyProofHash(dataValue, dataType, timestamp^(1<<bit), h), "timestamp bit %d", bit)
	}
	for i := 0; i < len(dataType); i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := []byte(dataType)
			flipped[i] ^= 1 << bit
			require.False(t, VerifyProofHash(dataValue, string(flipped), timestamp, h), "data_type byte %d bit %d", i, bit)
		}
	}
	for i := 0; i < ProofHashLength; i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := h
			flipped[i] ^= 1 << bit
			require.False(t, VerifyProofHash(dataValue, dataType, timestamp, flipped), "hash byte %d bit %d", i, bit)
		}
	}
}

func TestProofHashHex(t *testing.T) {
	h := ComputeProofHash(15000, "SOL/USD", 1700000000)

	parsed, err := ProofHashFromHex("0x" + h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ProofHashFromHex("abcd")
	assert.Error(t, err)

	_, err = ProofHashFromHex("zz")
	assert.Error(t, err)

	bz, err := h.MarshalJSON()
	require.NoError(t, err)
	var decoded ProofHash
	require.NoError(t, decoded.UnmarshalJSON(bz))
	assert.Equal(t, h, decoded)
}

func TestProofHashContentID(t *testing.T) {
	h := ComputeProofHash(15000, "SOL/USD", 1700000000)

	c, err := h.ContentID()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Version())

	assert.Equal(t, uint64(cid.Raw), c.Type())
	assert.Equal(t, "1220"+h.String(), c.Hash().HexString())
}

func TestProofValidate(t *testing.T) {
	request := RequestAddress(testAddr(1), RegistryAddress(), 0)
	proof := Proof{
		Address:   ProofAddress(request),
		Request:   request,
		Oracle:    RegistryAddress(),
		DataValue: 15000,
	}
	require.NoError(t, proof.Validate())
	assert.True(t, proof.MatchesRequest(request))

	foreign := RequestAddress(testAddr(2), RegistryAddress(), 0)
	assert.False(t, proof.MatchesRequest(foreign))

	proof.Address = ProofAddress(foreign)
	assert.Error(t, proof.Validate())
}
