package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/near/borsh-go"
)

// Stored records use borsh so the persisted layout is fixed-width and ordered
// exactly as the record fields.

type registryRecord struct {
	Admin              []byte
	FeeBps             uint16
	TotalRequests      uint64
	TotalFeesCollected uint64
}

type requestRecord struct {
	Requester     []byte
	Oracle        []byte
	DataType      string
	Quantity      uint64
	Status        uint8
	CreatedAt     int64
	PaymentAmount uint64
	SettledAt     *int64
	Nonce         uint64
	Reason        string
}

type proofRecord struct {
	Request    []byte
	Oracle     []byte
	DataValue  uint64
	ProofHash  [ProofHashLength]byte
	Timestamp  int64
	VerifiedAt int64
}

func MarshalRegistry(r Registry) ([]byte, error) {
	return borsh.Serialize(registryRecord{
		Admin:              r.Admin,
		FeeBps:             r.FeeBps,
		TotalRequests:      r.TotalRequests,
		TotalFeesCollected: r.TotalFeesCollected,
	})
}

func UnmarshalRegistry(bz []byte) (Registry, error) {
	var rec registryRecord
	if err := borsh.Deserialize(&rec, bz); err != nil {
		return Registry{}, fmt.Errorf("decode registry: %w", err)
	}
	return Registry{
		Admin:              sdk.AccAddress(rec.Admin),
		FeeBps:             rec.FeeBps,
		TotalRequests:      rec.TotalRequests,
		TotalFeesCollected: rec.TotalFeesCollected,
	}, nil
}

func MarshalRequest(r Request) ([]byte, error) {
	return borsh.Serialize(requestRecord{
		Requester:     r.Requester,
		Oracle:        r.Oracle,
		DataType:      r.DataType,
		Quantity:      r.Quantity,
		Status:        uint8(r.Status),
		CreatedAt:     r.CreatedAt,
		PaymentAmount: r.PaymentAmount,
		SettledAt:     r.SettledAt,
		Nonce:         r.Nonce,
		Reason:        r.Reason,
	})
}

// UnmarshalRequest decodes a stored request; the address is the store key it was read under.
func UnmarshalRequest(addr sdk.AccAddress, bz []byte) (Request, error) {
	var rec requestRecord
	if err := borsh.Deserialize(&rec, bz); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return Request{
		Address:       addr,
		Requester:     sdk.AccAddress(rec.Requester),
		Oracle:        sdk.AccAddress(rec.Oracle),
		DataType:      rec.DataType,
		Quantity:      rec.Quantity,
		Status:        RequestStatus(rec.Status),
		CreatedAt:     rec.CreatedAt,
		PaymentAmount: rec.PaymentAmount,
		SettledAt:     rec.SettledAt,
		Nonce:         rec.Nonce,
		Reason:        rec.Reason,
	}, nil
}

func MarshalProof(p Proof) ([]byte, error) {
	return borsh.Serialize(proofRecord{
		Request:    p.Request,
		Oracle:     p.Oracle,
		DataValue:  p.DataValue,
		ProofHash:  p.ProofHash,
		Timestamp:  p.Timestamp,
		VerifiedAt: p.VerifiedAt,
	})
}

func UnmarshalProof(addr sdk.AccAddress, bz []byte) (Proof, error) {
	var rec proofRecord
	if err := borsh.Deserialize(&rec, bz); err != nil {
		return Proof{}, fmt.Errorf("decode proof: %w", err)
	}
	return Proof{
		Address:    addr,
		Request:    sdk.AccAddress(rec.Request),
		Oracle:     sdk.AccAddress(rec.Oracle),
		DataValue:  rec.DataValue,
		ProofHash:  rec.ProofHash,
		Timestamp:  rec.Timestamp,
		VerifiedAt: rec.VerifiedAt,
	}, nil
}

func MarshalParams(p Params) ([]byte, error) {
	return borsh.Serialize(p)
}

func UnmarshalParams(bz []byte) (Params, error) {
	var p Params
	if err := borsh.Deserialize(&p, bz); err != nil {
		return Params{}, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}
