package types

import (
	errorsmod "cosmossdk.io/errors"
)

// errors
var (
	ErrUnauthorized            = errorsmod.Register(ModuleName, 2, "Unauthorized: only admin can call this")
	ErrInvalidDataType         = errorsmod.Register(ModuleName, 3, "Invalid data type")
	ErrInvalidQuantity         = errorsmod.Register(ModuleName, 4, "Invalid quantity")
	ErrInvalidRequestStatus    = errorsmod.Register(ModuleName, 5, "Invalid request status")
	ErrProofVerificationFailed = errorsmod.Register(ModuleName, 6, "Proof verification failed")
	ErrProofMismatch           = errorsmod.Register(ModuleName, 7, "Proof and request do not match")
	ErrInvalidFee              = errorsmod.Register(ModuleName, 8, "Invalid fee")
	ErrNotFound                = errorsmod.Register(ModuleName, 9, "not found")
	ErrAlreadyInitialized      = errorsmod.Register(ModuleName, 10, "oracle registry already initialized")
	ErrNotInitialized          = errorsmod.Register(ModuleName, 11, "oracle registry not initialized")
	ErrOverflow                = errorsmod.Register(ModuleName, 12, "arithmetic overflow")
	ErrInvalidAddress          = errorsmod.Register(ModuleName, 13, "invalid address")
	ErrInvalidParams           = errorsmod.Register(ModuleName, 14, "invalid params")
	ErrInvalidReason           = errorsmod.Register(ModuleName, 15, "invalid rejection reason")
)
