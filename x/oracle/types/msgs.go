package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgInitialize    = "initialize"
	TypeMsgCreateRequest = "create_request"
	TypeMsgVerify        = "verify"
	TypeMsgSettle        = "settle"
	TypeMsgUpdateConfig  = "update_config"
	TypeMsgReject        = "reject_request"
)

// Msg is an oracle operation carried by a signed transaction.
type Msg interface {
	Route() string
	Type() string
	ValidateBasic() error
	// GetSigner returns the account that must have signed the transaction.
	GetSigner() sdk.AccAddress
}

var (
	_ Msg = &MsgInitialize{}
	_ Msg = &MsgCreateRequest{}
	_ Msg = &MsgVerify{}
	_ Msg = &MsgSettle{}
	_ Msg = &MsgUpdateConfig{}
	_ Msg = &MsgReject{}
)

// NewMsgByType returns an empty message of the given type for decoding.
func NewMsgByType(msgType string) (Msg, error) {
	switch msgType {
	case TypeMsgInitialize:
		return &MsgInitialize{}, nil
	case TypeMsgCreateRequest:
		return &MsgCreateRequest{}, nil
	case TypeMsgVerify:
		return &MsgVerify{}, nil
	case TypeMsgSettle:
		return &MsgSettle{}, nil
	case TypeMsgUpdateConfig:
		return &MsgUpdateConfig{}, nil
	case TypeMsgReject:
		return &MsgReject{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", msgType)
	}
}

func mustAccAddress(bech string) sdk.AccAddress {
	addr, err := sdk.AccAddressFromBech32(bech)
	if err != nil {
		panic(err)
	}
	return addr
}

func validateAddress(field, bech string) error {
	if _, err := sdk.AccAddressFromBech32(bech); err != nil {
		return ErrInvalidAddress.Wrapf("invalid %s address (%s)", field, err)
	}
	return nil
}

// MsgInitialize creates the oracle registry.
type MsgInitialize struct {
	Signer string `json:"signer" yaml:"signer"`
	Admin  string `json:"admin" yaml:"admin"`
	FeeBps uint16 `json:"fee_bps" yaml:"fee_bps"`
}

// NewMsgInitialize creates a new MsgInitialize instance
func NewMsgInitialize(signer, admin string, feeBps uint16) *MsgInitialize {
	return &MsgInitialize{Signer: signer, Admin: admin, FeeBps: feeBps}
}

func (msg MsgInitialize) Route() string { return RouterKey }
func (msg MsgInitialize) Type() string  { return TypeMsgInitialize }

func (msg MsgInitialize) GetSigner() sdk.AccAddress {
	return mustAccAddress(msg.Signer)
}

func (msg MsgInitialize) ValidateBasic() error {
	if err := validateAddress("signer", msg.Signer); err != nil {
		return err
	}
	if err := validateAddress("admin", msg.Admin); err != nil {
		return err
	}
	return ValidateFeeBps(msg.FeeBps)
}

// MsgCreateRequest opens a Pending request for a data feed.
type MsgCreateRequest struct {
	Requester string `json:"requester" yaml:"requester"`
	DataType  string `json:"data_type" yaml:"data_type"`
	Quantity  uint64 `json:"quantity" yaml:"quantity"`
}

// NewMsgCreateRequest creates a new MsgCreateRequest instance
func NewMsgCreateRequest(requester, dataType string, quantity uint64) *MsgCreateRequest {
	return &MsgCreateRequest{Requester: requester, DataType: dataType, Quantity: quantity}
}

func (msg MsgCreateRequest) Route() string { return RouterKey }
func (msg MsgCreateRequest) Type() string  { return TypeMsgCreateRequest }

func (msg MsgCreateRequest) GetSigner() sdk.AccAddress {
	return mustAccAddress(msg.Requester)
}

func (msg MsgCreateRequest) ValidateBasic() error {
	if err := validateAddress("requester", msg.Requester); err != nil {
		return err
	}
	if err := ValidateDataType(msg.DataType); err != nil {
		return err
	}
	return ValidateQuantity(msg.Quantity)
}

// MsgVerify submits an observed value and its binding hash for a Pending request.
type MsgVerify struct {
	Signer    string    `json:"signer" yaml:"signer"`
	Request   string    `json:"request" yaml:"request"`
	DataValue uint64    `json:"data_value" yaml:"data_value"`
	ProofHash ProofHash `json:"proof_hash" yaml:"proof_hash"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
}

// NewMsgVerify creates a new MsgVerify instance
func NewMsgVerify(signer, request string, dataValue uint64, proofHash ProofHash, timestamp int64) *MsgVerify {
	return &MsgVerify{
		Signer:    signer,
		Request:   request,
		DataValue: dataValue,
		ProofHash: proofHash,
		Timestamp: timestamp,
	}
}

func (msg MsgVerify) Route() string { return RouterKey }
func (msg MsgVerify) Type() string  { return TypeMsgVerify }

func (msg MsgVerify) GetSigner() sdk.AccAddress {
	return mustAccAddress(msg.Signer)
}

func (msg MsgVerify) ValidateBasic() error {
	if err := validateAddress("signer", msg.Signer); err != nil {
		return err
	}
	return validateAddress("request", msg.Request)
}

// MsgSettle pays for a Verified request.
type MsgSettle struct {
	Payer   string `json:"payer" yaml:"payer"`
	Request string `json:"request" yaml:"request"`
	Proof   string `json:"proof" yaml:"proof"`
	Amount  uint64 `json:"amount" yaml:"amount"`
}

// NewMsgSettle creates a new MsgSettle instance
func NewMsgSettle(payer, request, proof string, amount uint64) *MsgSettle {
	return &MsgSettle{Payer: payer, Request: request, Proof: proof, Amount: amount}
}

func (msg MsgSettle) Route() string { return RouterKey }
func (msg MsgSettle) Type() string  { return TypeMsgSettle }

func (msg MsgSettle) GetSigner() sdk.AccAddress {
	return mustAccAddress(msg.Payer)
}

func (msg MsgSettle) ValidateBasic() error {
	if err := validateAddress("payer", msg.Payer); err != nil {
		return err
	}
	if err := validateAddress("request", msg.Request); err != nil {
		return err
	}
	return validateAddress("proof", msg.Proof)
}

// MsgUpdateConfig replaces the registry fee.
type MsgUpdateConfig struct {
	Signer    string `json:"signer" yaml:"signer"`
	NewFeeBps uint16 `json:"new_fee_bps" yaml:"new_fee_bps"`
}

// NewMsgUpdateConfig creates a new MsgUpdateConfig instance
func NewMsgUpdateConfig(signer string, newFeeBps uint16) *MsgUpdateConfig {
	return &MsgUpdateConfig{Signer: signer, NewFeeBps: newFeeBps}
}

func (msg MsgUpdateConfig) Route() string { return RouterKey }
func (msg MsgUpdateConfig) Type() string  { return TypeMsgUpdateConfig }

func (msg MsgUpdateConfig) GetSigner() sdk.AccAddress {
	return mustAccAddress(msg.Signer)
}

func (msg MsgUpdateConfig) ValidateBasic() error {
	if err := validateAddress("signer", msg.Signer); err != nil {
		return err
	}
	return ValidateFeeBps(msg.NewFeeBps)
}

// MsgReject closes a Pending request without a proof.
type MsgReject struct {
	Signer  string `json:"signer" yaml:"signer"`
	Request string `json:"request" yaml:"request"`
	Reason  string `json:"reason" yaml:"reason"`
}

// NewMsgReject creates a new MsgReject instance
func NewMsgReject(signer, request, reason string) *MsgReject {
	return &MsgReject{Signer: signer, Request: request, Reason: reason}
}

func (msg MsgReject) Route() string { return RouterKey }
func (msg MsgReject) Type() string  { return TypeMsgReject }

func (msg MsgReject) GetSigner() sdk.AccAddress {
	return mustAccAddress(msg.Signer)
}

func (msg MsgReject) ValidateBasic() error {
	if err := validateAddress("signer", msg.Signer); err != nil {
		return err
	}
	if err := validateAddress("request", msg.Request); err != nil {
		return err
	}
	if len(msg.Reason) > MaxReasonLength {
		return ErrInvalidReason.Wrapf("reason exceeds %d bytes", MaxReasonLength)
	}
	return nil
}

// MaxReasonLength bounds the rejection reason stored on a request.
const MaxReasonLength = 256
