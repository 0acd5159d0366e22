package types

import (
	errorsmod "cosmossdk.io/errors"
)

// RootCodespace is the codespace of transaction level errors.
const RootCodespace = "xydata"

// errors
var (
	ErrInvalidSignature = errorsmod.Register(RootCodespace, 2, "invalid signature")
	ErrInvalidSequence  = errorsmod.Register(RootCodespace, 3, "invalid sequence")
	ErrUnknownMessage   = errorsmod.Register(RootCodespace, 4, "unknown message type")
	ErrInvalidTx        = errorsmod.Register(RootCodespace, 5, "invalid transaction")
)
