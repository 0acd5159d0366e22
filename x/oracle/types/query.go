package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
)

// Default and maximum page sizes for list queries
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// QueryRequestsRequest selects requests by status or requester. At most one
// filter is honoured; requester takes precedence.
type QueryRequestsRequest struct {
	Status     *RequestStatus
	Requester  sdk.AccAddress
	Pagination *query.PageRequest
}

// QueryRequestsResponse is one page of requests.
type QueryRequestsResponse struct {
	Requests   []Request           `json:"requests" yaml:"requests"`
	Pagination *query.PageResponse `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}
