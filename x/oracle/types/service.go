package types

import (
	"context"
)

// MsgServer is the oracle message service.
type MsgServer interface {
	Initialize(context.Context, *MsgInitialize) (*MsgInitializeResponse, error)
	CreateRequest(context.Context, *MsgCreateRequest) (*MsgCreateRequestResponse, error)
	Verify(context.Context, *MsgVerify) (*MsgVerifyResponse, error)
	Settle(context.Context, *MsgSettle) (*MsgSettleResponse, error)
	UpdateConfig(context.Context, *MsgUpdateConfig) (*MsgUpdateConfigResponse, error)
	RejectRequest(context.Context, *MsgReject) (*MsgRejectResponse, error)
}

type MsgInitializeResponse struct {
	Registry string `json:"registry"`
}

type MsgCreateRequestResponse struct {
	Request string `json:"request"`
	Nonce   uint64 `json:"nonce"`
}

type MsgVerifyResponse struct {
	Proof      string `json:"proof"`
	ProofCID   string `json:"proof_cid,omitempty"`
	VerifiedAt int64  `json:"verified_at"`
}

type MsgSettleResponse struct {
	Split     Split `json:"split"`
	SettledAt int64 `json:"settled_at"`
}

type MsgUpdateConfigResponse struct {
	OldFeeBps uint16 `json:"old_fee_bps"`
	NewFeeBps uint16 `json:"new_fee_bps"`
}

type MsgRejectResponse struct{}
