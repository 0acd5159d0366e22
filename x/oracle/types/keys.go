package types

import (
	"encoding/binary"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	// ModuleName defines the module name
	ModuleName = "oracle"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName
)

// Derivation seeds for record addresses
const (
	RegistrySeed = "oracle"
	RequestSeed  = "request"
	ProofSeed    = "proof"
)

// KV Store key prefix bytes
const (
	prefixRegistry = iota + 1
	prefixParams
	prefixRequest
	prefixProof
	prefixRequesterNonce
	prefixRequesterIndex
	prefixStatusIndex
)

// KV Store key prefixes
var (
	KeyRegistry          = []byte{prefixRegistry}
	KeyParams            = []byte{prefixParams}
	KeyRequest           = []byte{prefixRequest}
	KeyProof             = []byte{prefixProof}
	KeyRequesterNonce    = []byte{prefixRequesterNonce}
	KeyRequesterIndex    = []byte{prefixRequesterIndex}
	KeyStatusIndex       = []byte{prefixStatusIndex}
	requestAddressLength = 32
)

// RegistryAddress returns the fixed identity of the oracle registry.
func RegistryAddress() sdk.AccAddress {
	return sdk.AccAddress(address.Module(ModuleName, []byte(RegistrySeed)))
}

// RequestAddress derives the identity of the nonce-th request a requester opens
// against a registry.
func RequestAddress(requester, registry sdk.AccAddress, nonce uint64) sdk.AccAddress {
	key := []byte(RequestSeed)
	key = append(key, address.MustLengthPrefix(requester)...)
	key = append(key, address.MustLengthPrefix(registry)...)
	key = append(key, IDToBytes(nonce)...)
	return sdk.AccAddress(address.Module(ModuleName, key))
}

// ProofAddress derives the identity of the proof created for a request.
func ProofAddress(request sdk.AccAddress) sdk.AccAddress {
	key := append([]byte(ProofSeed), address.MustLengthPrefix(request)...)
	return sdk.AccAddress(address.Module(ModuleName, key))
}

func IDToBytes(id uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, id)
	return bz
}

// GetRequestKey returns the key for storing a Request
func GetRequestKey(addr sdk.AccAddress) []byte {
	return append(KeyRequest, address.MustLengthPrefix(addr)...)
}

// GetProofKey returns the key for storing a Proof
func GetProofKey(addr sdk.AccAddress) []byte {
	return append(KeyProof, address.MustLengthPrefix(addr)...)
}

// GetRequesterNonceKey returns the key holding how many requests a requester has opened
func GetRequesterNonceKey(requester sdk.AccAddress) []byte {
	return append(KeyRequesterNonce, address.MustLengthPrefix(requester)...)
}

// GetRequesterIndexPrefix returns the prefix under which a requester's requests are indexed
func GetRequesterIndexPrefix(requester sdk.AccAddress) []byte {
	return append(KeyRequesterIndex, address.MustLengthPrefix(requester)...)
}

// GetRequesterIndexKey returns the secondary index key (requester, request)
func GetRequesterIndexKey(requester, request sdk.AccAddress) []byte {
	return append(GetRequesterIndexPrefix(requester), address.MustLengthPrefix(request)...)
}

// GetStatusIndexPrefix returns the prefix under which requests of one status are indexed
func GetStatusIndexPrefix(status RequestStatus) []byte {
	return append(KeyStatusIndex, byte(status))
}

// GetStatusIndexKey returns the secondary index key (status, request)
func GetStatusIndexKey(status RequestStatus, request sdk.AccAddress) []byte {
	return append(GetStatusIndexPrefix(status), address.MustLengthPrefix(request)...)
}

// ParseIndexedAddress parses the length-prefixed request address that ends an index key
// once the index prefix has been stripped.
func ParseIndexedAddress(key []byte) (sdk.AccAddress, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("empty index key")
	}
	size := int(key[0])
	if size != requestAddressLength || len(key) != size+1 {
		return nil, fmt.Errorf("invalid index key length: %d", len(key))
	}
	return sdk.AccAddress(key[1:]), nil
}
