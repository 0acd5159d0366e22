package types

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ipfs/go-cid"
	"github.com/minio/sha256-simd"
	"github.com/multiformats/go-multihash"
)

// ProofHashLength is the size of a binding digest.
const ProofHashLength = sha256.Size

// ProofHash is the SHA-256 digest binding an asserted value to its request.
type ProofHash [ProofHashLength]byte

// ComputeProofHash returns SHA-256(data_value u64 LE || data_type || timestamp i64 LE).
func ComputeProofHash(dataValue uint64, dataType string, timestamp int64) ProofHash {
	buf := make([]byte, 0, 16+len(dataType))
	buf = binary.LittleEndian.AppendUint64(buf, dataValue)
	buf = append(buf, dataType...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(timestamp))
	return sha256.Sum256(buf)
}

// VerifyProofHash recomputes the digest and compares it byte for byte with submitted.
func VerifyProofHash(dataValue uint64, dataType string, timestamp int64, submitted ProofHash) bool {
	return ComputeProofHash(dataValue, dataType, timestamp) == submitted
}

func ProofHashFromHex(s string) (ProofHash, error) {
	var h ProofHash
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("invalid proof hash: %w", err)
	}
	if len(bz) != ProofHashLength {
		return h, fmt.Errorf("invalid proof hash length: %d", len(bz))
	}
	copy(h[:], bz)
	return h, nil
}

func (h ProofHash) String() string {
	return hex.EncodeToString(h[:])
}

func (h ProofHash) IsZero() bool {
	return h == ProofHash{}
}

func (h ProofHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *ProofHash) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	parsed, err := ProofHashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h ProofHash) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

// ContentID wraps the digest as a CIDv1 so the proof can be referenced from
// content-addressed audit stores.
func (h ProofHash) ContentID() (cid.Cid, error) {
	mh, err := multihash.Encode(h[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// Proof is the immutable record of a verified value.
type Proof struct {
	Address    sdk.AccAddress `json:"address" yaml:"address"`
	Request    sdk.AccAddress `json:"request" yaml:"request"`
	Oracle     sdk.AccAddress `json:"oracle" yaml:"oracle"`
	DataValue  uint64         `json:"data_value" yaml:"data_value"`
	ProofHash  ProofHash      `json:"proof_hash" yaml:"proof_hash"`
	Timestamp  int64          `json:"timestamp" yaml:"timestamp"`
	VerifiedAt int64          `json:"verified_at" yaml:"verified_at"`
}

// MatchesRequest reports whether the proof belongs to the given request.
func (p Proof) MatchesRequest(request sdk.AccAddress) bool {
	return p.Request.Equals(request)
}

func (p Proof) Validate() error {
	if err := sdk.VerifyAddressFormat(p.Address); err != nil {
		return fmt.Errorf("invalid proof address: %w", err)
	}
	if err := sdk.VerifyAddressFormat(p.Request); err != nil {
		return fmt.Errorf("invalid request address: %w", err)
	}
	if err := sdk.VerifyAddressFormat(p.Oracle); err != nil {
		return fmt.Errorf("invalid oracle address: %w", err)
	}
	if !p.Address.Equals(ProofAddress(p.Request)) {
		return fmt.Errorf("proof address %s is not derived from request %s", p.Address, p.Request)
	}
	return nil
}
