// Package client talks to the xydata node API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xydata/oracle/crypto/ethsecp256k1"
	"github.com/xydata/oracle/indexer"
	"github.com/xydata/oracle/server"
	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// APIError is a non-2xx response of the node API.
type APIError struct {
	StatusCode int
	server.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s/%d): %s", e.StatusCode, e.Codespace, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// TxError is returned for a transaction that was rejected or failed.
type TxError struct {
	Result types.TxResult
}

func (e *TxError) Error() string {
	return fmt.Sprintf("tx %s failed (%s/%d): %s", e.Result.Type, e.Result.Codespace, e.Result.Code, e.Result.Log)
}

// Client is a typed client of the node API.
type Client struct {
	baseURL string
	rc      *resty.Client
}

// New creates a client for the API at baseURL, e.g. http://127.0.0.1:1317.
func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{baseURL: baseURL, rc: rc}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	var apiErr server.ErrorResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), ErrorResponse: apiErr}
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (*server.StatusResponse, error) {
	var res server.StatusResponse
	if err := c.get(ctx, "/v1/status", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil, &map[string]string{})
}

func (c *Client) Registry(ctx context.Context) (*server.RegistryResponse, error) {
	var res server.RegistryResponse
	if err := c.get(ctx, "/v1/registry", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Params(ctx context.Context) (*oracletypes.Params, error) {
	var res oracletypes.Params
	if err := c.get(ctx, "/v1/params", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Account(ctx context.Context, addr string) (*server.AccountResponse, error) {
	var res server.AccountResponse
	if err := c.get(ctx, "/v1/accounts/"+addr, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Request(ctx context.Context, addr string) (*oracletypes.Request, error) {
	var res oracletypes.Request
	if err := c.get(ctx, "/v1/requests/"+addr, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestsFilter narrows a request listing. Zero values are ignored.
type RequestsFilter struct {
	Status    string
	Requester string
	Offset    uint64
	Limit     uint64
}

func (c *Client) Requests(ctx context.Context, filter RequestsFilter) (*oracletypes.QueryRequestsResponse, error) {
	query := map[string]string{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Requester != "" {
		query["requester"] = filter.Requester
	}
	if filter.Offset > 0 {
		query["offset"] = strconv.FormatUint(filter.Offset, 10)
	}
	if filter.Limit > 0 {
		query["limit"] = strconv.FormatUint(filter.Limit, 10)
	}

	var res oracletypes.QueryRequestsResponse
	if err := c.get(ctx, "/v1/requests", query, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Proof(ctx context.Context, addr string) (*server.ProofResponse, error) {
	var res server.ProofResponse
	if err := c.get(ctx, "/v1/proofs/"+addr, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestProof returns the proof stored for a request.
func (c *Client) RequestProof(ctx context.Context, request string) (*server.ProofResponse, error) {
	var res server.ProofResponse
	if err := c.get(ctx, "/v1/requests/"+request+"/proof", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Txs(ctx context.Context, limit int) ([]types.TxResult, error) {
	var res []types.TxResult
	if err := c.get(ctx, "/v1/txs", map[string]string{"limit": strconv.Itoa(limit)}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Stats returns the per data type analytics of the node's read model.
func (c *Client) Stats(ctx context.Context) ([]indexer.FeedStats, error) {
	var res server.StatsResponse
	if err := c.get(ctx, "/v1/stats", nil, &res); err != nil {
		return nil, err
	}
	return res.Feeds, nil
}

// Broadcast submits a signed transaction and waits for its committed result.
func (c *Client) Broadcast(ctx context.Context, tx *types.Tx) (*types.TxResult, error) {
	var res types.TxResult
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(tx).
		SetResult(&res).
		SetError(&res).
		Post("/v1/txs")
	if err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}
	if resp.IsError() && res.Code == 0 {
		return nil, &APIError{StatusCode: resp.StatusCode(), ErrorResponse: server.ErrorResponse{Message: resp.String()}}
	}
	if !res.IsOK() {
		return &res, &TxError{Result: res}
	}
	return &res, nil
}

// SignAndBroadcast signs msg with key at the account's current sequence and
// broadcasts it.
func (c *Client) SignAndBroadcast(ctx context.Context, key *ethsecp256k1.PrivKey, msg oracletypes.Msg) (*types.TxResult, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := c.Account(ctx, key.Address().String())
	if err != nil {
		return nil, err
	}
	return c.SignAndBroadcastWithSequence(ctx, status.ChainID, key, msg, acc.Sequence)
}

// SignAndBroadcastWithSequence signs with an explicit chain id and sequence.
func (c *Client) SignAndBroadcastWithSequence(
	ctx context.Context,
	chainID string,
	key *ethsecp256k1.PrivKey,
	msg oracletypes.Msg,
	sequence uint64,
) (*types.TxResult, error) {
	tx, err := types.NewTx(msg, sequence)
	if err != nil {
		return nil, err
	}
	if err := tx.Sign(chainID, key.ECDSA()); err != nil {
		return nil, err
	}
	return c.Broadcast(ctx, tx)
}
