package server

import (
	"io"
	"net/http"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/cosmos/cosmos-sdk/types/query"
	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/xydata/oracle/indexer"
	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

const maxTxBytes = 64 * 1024

// StatusResponse describes the node.
type StatusResponse struct {
	ChainID string    `json:"chain_id"`
	Height  int64     `json:"height"`
	Time    time.Time `json:"time"`
}

// RegistryResponse is the registry with its derived address.
type RegistryResponse struct {
	Address  string               `json:"address"`
	Registry oracletypes.Registry `json:"registry"`
}

// AccountResponse is an account sequence with its balances.
type AccountResponse struct {
	Address  string    `json:"address"`
	Sequence uint64    `json:"sequence"`
	Balances sdk.Coins `json:"balances"`
}

// ProofResponse is a proof with its content identifier.
type ProofResponse struct {
	Proof oracletypes.Proof `json:"proof"`
	CID   string            `json:"cid"`
}

// ProofHashResponse is the binding digest of an observation.
type ProofHashResponse struct {
	DataValue uint64                `json:"data_value"`
	DataType  string                `json:"data_type"`
	Timestamp int64                 `json:"timestamp"`
	ProofHash oracletypes.ProofHash `json:"proof_hash"`
	CID       string                `json:"cid"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		ChainID: s.app.ChainID(),
		Height:  s.app.Height(),
		Time:    time.Now().UTC(),
	})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	bz, err := io.ReadAll(io.LimitReader(r.Body, maxTxBytes+1))
	if err != nil {
		writeError(w, sdkerrors.Wrap(sdkerrors.ErrIO, err.Error()))
		return
	}
	if len(bz) > maxTxBytes {
		writeError(w, sdkerrors.Wrapf(sdkerrors.ErrTxTooLarge, "tx exceeds %d bytes", maxTxBytes))
		return
	}
	tx, err := types.DecodeTx(bz)
	if err != nil {
		writeError(w, err)
		return
	}

	res := s.app.DeliverTx(tx)
	status := http.StatusOK
	if res.Height == 0 {
		// rejected before execution, nothing was committed
		status = http.StatusBadRequest
		if res.Codespace == types.RootCodespace && res.Code == types.ErrInvalidSignature.ABCICode() {
			status = http.StatusUnauthorized
		}
		if res.Codespace == types.RootCodespace && res.Code == types.ErrInvalidSequence.ABCICode() {
			status = http.StatusConflict
		}
	}
	writeJSON(w, status, res)
}

func (s *Server) handleTxs(w http.ResponseWriter, r *http.Request) {
	limit := oracletypes.DefaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n <= 0 {
			writeError(w, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid limit %q", v))
			return
		}
		limit = n
	}
	if limit > oracletypes.MaxPageLimit {
		limit = oracletypes.MaxPageLimit
	}
	txs, err := s.app.RecentTxs(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleRegistry(w http.ResponseWriter, _ *http.Request) {
	var res RegistryResponse
	err := s.app.Query(func(ctx sdk.Context) error {
		registry, err := s.app.OracleKeeper.QueryRegistry(ctx)
		res = RegistryResponse{Address: oracletypes.RegistryAddress().String(), Registry: registry}
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleParams(w http.ResponseWriter, _ *http.Request) {
	var params oracletypes.Params
	_ = s.app.Query(func(ctx sdk.Context) error {
		params = s.app.OracleKeeper.GetParams(ctx)
		return nil
	})
	writeJSON(w, http.StatusOK, params)
}

func pathAddress(r *http.Request) (sdk.AccAddress, error) {
	addr, err := sdk.AccAddressFromBech32(mux.Vars(r)["address"])
	if err != nil {
		return nil, oracletypes.ErrInvalidAddress.Wrap(err.Error())
	}
	return addr, nil
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var res AccountResponse
	_ = s.app.Query(func(ctx sdk.Context) error {
		acc := s.app.AccountKeeper.GetAccount(ctx, addr)
		res = AccountResponse{
			Address:  addr.String(),
			Sequence: acc.Sequence,
			Balances: s.app.BankKeeper.GetAllBalances(ctx, addr),
		}
		return nil
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := oracletypes.QueryRequestsRequest{
		Pagination: &query.PageRequest{Limit: oracletypes.DefaultPageLimit},
	}

	if v := q.Get("status"); v != "" {
		status, err := oracletypes.ParseRequestStatus(v)
		if err != nil {
			writeError(w, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, err.Error()))
			return
		}
		req.Status = &status
	}
	if v := q.Get("requester"); v != "" {
		requester, err := sdk.AccAddressFromBech32(v)
		if err != nil {
			writeError(w, oracletypes.ErrInvalidAddress.Wrap(err.Error()))
			return
		}
		req.Requester = requester
	}
	for name, dst := range map[string]*uint64{"offset": &req.Pagination.Offset, "limit": &req.Pagination.Limit} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := cast.ToUint64E(v)
		if err != nil {
			writeError(w, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid %s %q", name, v))
			return
		}
		*dst = n
	}
	if v := q.Get("count_total"); v != "" {
		req.Pagination.CountTotal = cast.ToBool(v)
	}

	var res *oracletypes.QueryRequestsResponse
	err := s.app.Query(func(ctx sdk.Context) error {
		var err error
		res, err = s.app.OracleKeeper.QueryRequests(ctx, req)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req oracletypes.Request
	err = s.app.Query(func(ctx sdk.Context) error {
		req, err = s.app.OracleKeeper.GetRequest(ctx, addr)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) writeProof(w http.ResponseWriter, addr sdk.AccAddress) {
	var proof oracletypes.Proof
	err := s.app.Query(func(ctx sdk.Context) error {
		var err error
		proof, err = s.app.OracleKeeper.GetProof(ctx, addr)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	res := ProofResponse{Proof: proof}
	if c, err := proof.ProofHash.ContentID(); err == nil {
		res.CID = c.String()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeProof(w, addr)
}

func (s *Server) handleRequestProof(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeProof(w, oracletypes.ProofAddress(addr))
}

func (s *Server) handleProofHash(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dataValue, err := cast.ToUint64E(q.Get("data_value"))
	if err != nil {
		writeError(w, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid data_value %q", q.Get("data_value")))
		return
	}
	timestamp, err := cast.ToInt64E(q.Get("timestamp"))
	if err != nil {
		writeError(w, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid timestamp %q", q.Get("timestamp")))
		return
	}
	dataType := q.Get("data_type")
	if err := oracletypes.ValidateDataType(dataType); err != nil {
		writeError(w, err)
		return
	}

	h := oracletypes.ComputeProofHash(dataValue, dataType, timestamp)
	res := ProofHashResponse{DataValue: dataValue, DataType: dataType, Timestamp: timestamp, ProofHash: h}
	if c, err := h.ContentID(); err == nil {
		res.CID = c.String()
	}
	writeJSON(w, http.StatusOK, res)
}

// StatsResponse lists the per data type analytics of the read model.
type StatsResponse struct {
	Feeds []indexer.FeedStats `json:"feeds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Codespace: "api", Message: "indexer is disabled"})
		return
	}
	feeds, err := s.stats.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to query stats", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Codespace: "api", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Feeds: feeds})
}
