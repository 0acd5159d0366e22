package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errorsmod "cosmossdk.io/errors"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Codespace string `json:"codespace"`
	Code      uint32 `json:"code"`
	Message   string `json:"error"`
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, oracletypes.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, types.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, oracletypes.ErrNotFound), errors.Is(err, oracletypes.ErrNotInitialized):
		return http.StatusNotFound
	case errors.Is(err, oracletypes.ErrInvalidRequestStatus),
		errors.Is(err, oracletypes.ErrAlreadyInitialized),
		errors.Is(err, types.ErrInvalidSequence):
		return http.StatusConflict
	case errors.Is(err, sdkerrors.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	}
	if _, code, _ := errorsmod.ABCIInfo(err, false); code == errorsmod.SuccessABCICode || code == 1 {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeError(w http.ResponseWriter, err error) {
	codespace, code, details := errorsmod.ABCIInfo(err, false)
	writeJSON(w, httpStatus(err), ErrorResponse{Codespace: codespace, Code: code, Message: details})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
