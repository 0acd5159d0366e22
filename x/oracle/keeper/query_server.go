package keeper

import (
	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"

	"github.com/xydata/oracle/x/oracle/types"
)

// QueryRegistry returns the registry or ErrNotInitialized.
func (k Keeper) QueryRegistry(ctx sdk.Context) (types.Registry, error) {
	return k.mustGetRegistry(ctx)
}

// QueryRequests returns one page of requests, optionally narrowed to a
// requester or a status through the secondary indexes.
func (k Keeper) QueryRequests(ctx sdk.Context, req types.QueryRequestsRequest) (*types.QueryRequestsResponse, error) {
	page := req.Pagination
	if page == nil {
		page = &query.PageRequest{Limit: types.DefaultPageLimit}
	}
	if page.Limit > types.MaxPageLimit {
		page.Limit = types.MaxPageLimit
	}

	store := ctx.KVStore(k.storeKey)
	requests := []types.Request{}

	var indexPrefix []byte
	switch {
	case len(req.Requester) > 0:
		indexPrefix = types.GetRequesterIndexPrefix(req.Requester)
	case req.Status != nil:
		indexPrefix = types.GetStatusIndexPrefix(*req.Status)
	}

	if indexPrefix == nil {
		pageRes, err := query.Paginate(prefix.NewStore(store, types.KeyRequest), page, func(key, value []byte) error {
			addr, err := types.ParseIndexedAddress(key)
			if err != nil {
				return err
			}
			request, err := types.UnmarshalRequest(addr, value)
			if err != nil {
				return err
			}
			requests = append(requests, request)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &types.QueryRequestsResponse{Requests: requests, Pagination: pageRes}, nil
	}

	pageRes, err := query.Paginate(prefix.NewStore(store, indexPrefix), page, func(key, _ []byte) error {
		addr, err := types.ParseIndexedAddress(key)
		if err != nil {
			return err
		}
		request, err := k.GetRequest(ctx, addr)
		if err != nil {
			return err
		}
		requests = append(requests, request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &types.QueryRequestsResponse{Requests: requests, Pagination: pageRes}, nil
}
