package types

import (
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MaxDataTypeLength bounds the byte length of a request data type.
const MaxDataTypeLength = 32

// RequestStatus is the lifecycle state of a Request.
type RequestStatus uint8

const (
	StatusPending RequestStatus = iota
	StatusVerified
	StatusSettled
	StatusRejected
)

var statusNames = map[RequestStatus]string{
	StatusPending:  "pending",
	StatusVerified: "verified",
	StatusSettled:  "settled",
	StatusRejected: "rejected",
}

// statusTransitions lists, for each state, the states it may advance to.
var statusTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusVerified, StatusRejected},
	StatusVerified: {StatusSettled},
}

func (s RequestStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

func (s RequestStatus) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s RequestStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether s may advance to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseRequestStatus parses the textual form of a status, case-insensitively.
func ParseRequestStatus(str string) (RequestStatus, error) {
	for status, name := range statusNames {
		if strings.EqualFold(name, str) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown request status %q", str)
}

func (s RequestStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *RequestStatus) UnmarshalJSON(bz []byte) error {
	var str string
	if err := json.Unmarshal(bz, &str); err != nil {
		return err
	}
	status, err := ParseRequestStatus(str)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func (s RequestStatus) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Request is a single data request and its settlement audit trail.
type Request struct {
	Address       sdk.AccAddress `json:"address" yaml:"address"`
	Requester     sdk.AccAddress `json:"requester" yaml:"requester"`
	Oracle        sdk.AccAddress `json:"oracle" yaml:"oracle"`
	DataType      string         `json:"data_type" yaml:"data_type"`
	Quantity      uint64         `json:"quantity" yaml:"quantity"`
	Status        RequestStatus  `json:"status" yaml:"status"`
	CreatedAt     int64          `json:"created_at" yaml:"created_at"`
	PaymentAmount uint64         `json:"payment_amount" yaml:"payment_amount"`
	SettledAt     *int64         `json:"settled_at,omitempty" yaml:"settled_at,omitempty"`
	Nonce         uint64         `json:"nonce" yaml:"nonce"`
	Reason        string         `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func ValidateDataType(dataType string) error {
	if len(dataType) > MaxDataTypeLength {
		return ErrInvalidDataType.Wrapf("data type is %d bytes, max %d", len(dataType), MaxDataTypeLength)
	}
	return nil
}

func ValidateQuantity(quantity uint64) error {
	if quantity == 0 {
		return ErrInvalidQuantity.Wrap("quantity must be positive")
	}
	return nil
}

// Transition moves the request to next or fails with ErrInvalidRequestStatus.
func (r *Request) Transition(next RequestStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidRequestStatus.Wrapf("cannot move request %s from %s to %s", r.Address, r.Status, next)
	}
	r.Status = next
	return nil
}

// RequireStatus fails with ErrInvalidRequestStatus unless the request is in want.
func (r Request) RequireStatus(want RequestStatus) error {
	if r.Status != want {
		return ErrInvalidRequestStatus.Wrapf("request %s is %s, expected %s", r.Address, r.Status, want)
	}
	return nil
}

func (r Request) Validate() error {
	if err := sdk.VerifyAddressFormat(r.Address); err != nil {
		return fmt.Errorf("invalid request address: %w", err)
	}
	if err := sdk.VerifyAddressFormat(r.Requester); err != nil {
		return fmt.Errorf("invalid requester address: %w", err)
	}
	if err := sdk.VerifyAddressFormat(r.Oracle); err != nil {
		return fmt.Errorf("invalid oracle address: %w", err)
	}
	if err := ValidateDataType(r.DataType); err != nil {
		return err
	}
	if err := ValidateQuantity(r.Quantity); err != nil {
		return err
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid request status %d", r.Status)
	}
	if (r.Status == StatusSettled) != (r.SettledAt != nil) {
		return fmt.Errorf("settled_at must be set iff request is settled")
	}
	if r.Status != StatusSettled && r.PaymentAmount != 0 {
		return fmt.Errorf("payment_amount set on unsettled request")
	}
	return nil
}
