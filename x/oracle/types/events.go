package types

// Oracle module event type constants
const (
	EventTypeInitialize     = "initialize"
	EventTypeUpdateConfig   = "update_config"
	EventTypeCreateRequest  = "create_request"
	EventTypeVerifyRequest  = "verify_request"
	EventTypeSettleRequest  = "settle_request"
	EventTypeRejectRequest  = "reject_request"
	EventTypeSettlementSend = "settlement_transfer"
)

// Event attribute keys
const (
	AttributeKeyAdmin         = "admin"
	AttributeKeyFeeBps        = "fee_bps"
	AttributeKeyOldFeeBps     = "old_fee_bps"
	AttributeKeyRequest       = "request"
	AttributeKeyRequester     = "requester"
	AttributeKeyDataType      = "data_type"
	AttributeKeyQuantity      = "quantity"
	AttributeKeyStatus        = "status"
	AttributeKeyProof         = "proof"
	AttributeKeyDataValue     = "data_value"
	AttributeKeyProofHash     = "proof_hash"
	AttributeKeyProofCID      = "proof_cid"
	AttributeKeyTimestamp     = "timestamp"
	AttributeKeyPayer         = "payer"
	AttributeKeyAmount        = "amount"
	AttributeKeyBuyback       = "buyback"
	AttributeKeyTreasury      = "treasury"
	AttributeKeyTotalRequests = "total_requests"
	AttributeKeyTotalFees     = "total_fees_collected"
	AttributeKeyReason        = "reason"
	AttributeKeyRecipient     = "recipient"
)
