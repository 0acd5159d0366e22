// Package indexer mirrors committed requests and transactions into Postgres
// for analytics queries.
package indexer

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/robfig/cron"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

const (
	// DefaultResyncSchedule is how often the read model is rebuilt from the
	// node to recover results the event stream dropped.
	DefaultResyncSchedule = "@every 30s"

	// resyncTxLimit bounds the transactions replayed by one resync.
	resyncTxLimit = 1000
)

// Source is the node state the indexer follows.
type Source interface {
	Subscribe() (string, <-chan types.TxResult, func())
	Request(addr sdk.AccAddress) (oracletypes.Request, error)
	Requests() ([]oracletypes.Request, error)
	RecentTxs(limit int) ([]types.TxResult, error)
}

// Store persists the read model. Writes must be idempotent.
type Store interface {
	InsertTxs(ctx context.Context, txs []types.TxResult) error
	UpsertRequests(ctx context.Context, reqs []oracletypes.Request) error
}

// Indexer follows a Source and writes the read model.
type Indexer struct {
	store    Store
	logger   log.Logger
	schedule string
	resync   chan struct{}

	// lastHeight is the highest height written; a result above
	// lastHeight+1 means the stream dropped something. Genesis is height 1.
	lastHeight int64
}

func New(store Store, logger log.Logger, schedule string) *Indexer {
	if schedule == "" {
		schedule = DefaultResyncSchedule
	}
	return &Indexer{
		store:      store,
		logger:     logger.With("module", "indexer"),
		schedule:   schedule,
		resync:     make(chan struct{}, 1),
		lastHeight: 1,
	}
}

// TriggerResync queues a rebuild unless one is already queued.
func (i *Indexer) TriggerResync() {
	select {
	case i.resync <- struct{}{}:
	default:
	}
}

// Run backfills the read model and then follows committed transactions until
// ctx is cancelled, rebuilding on the resync schedule and whenever a height
// gap shows that the stream dropped results.
func (i *Indexer) Run(ctx context.Context, src Source) error {
	// subscribe first so nothing committed during the backfill is missed
	_, results, cancel := src.Subscribe()
	defer cancel()

	if err := i.Resync(ctx, src); err != nil {
		return err
	}

	c := cron.New()
	if err := c.AddFunc(i.schedule, i.TriggerResync); err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", i.schedule, err)
	}
	c.Start()
	defer c.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-i.resync:
			if err := i.Resync(ctx, src); err != nil {
				i.logger.Error("resync failed", "err", err)
			}
		case res, ok := <-results:
			if !ok {
				return nil
			}
			if res.Height > i.lastHeight+1 {
				i.logger.Info("height gap in event stream", "last", i.lastHeight, "got", res.Height)
				if err := i.Resync(ctx, src); err != nil {
					i.logger.Error("resync failed", "err", err)
				}
			}
			if err := i.HandleTx(ctx, src, res); err != nil {
				i.logger.Error("failed to index tx", "hash", res.Hash, "err", err)
			}
		}
	}
}

// Resync writes every request and the most recent transactions.
func (i *Indexer) Resync(ctx context.Context, src Source) error {
	txs, err := src.RecentTxs(resyncTxLimit)
	if err != nil {
		return err
	}
	reqs, err := src.Requests()
	if err != nil {
		return err
	}
	if err := i.store.InsertTxs(ctx, txs); err != nil {
		return err
	}
	if err := i.store.UpsertRequests(ctx, reqs); err != nil {
		return err
	}
	// txs are newest first
	if len(txs) > 0 && txs[0].Height > i.lastHeight {
		i.lastHeight = txs[0].Height
	}
	i.logger.Info("resync complete", "requests", len(reqs), "txs", len(txs), "height", i.lastHeight)
	return nil
}

// HandleTx records res and refreshes every request it touched.
func (i *Indexer) HandleTx(ctx context.Context, src Source, res types.TxResult) error {
	if err := i.store.InsertTxs(ctx, []types.TxResult{res}); err != nil {
		return err
	}

	var reqs []oracletypes.Request
	for _, addr := range AffectedRequests(res) {
		acc, err := sdk.AccAddressFromBech32(addr)
		if err != nil {
			return err
		}
		req, err := src.Request(acc)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}
	if err := i.store.UpsertRequests(ctx, reqs); err != nil {
		return err
	}
	if res.Height > i.lastHeight {
		i.lastHeight = res.Height
	}
	return nil
}

// AffectedRequests returns the request addresses named by res's events.
func AffectedRequests(res types.TxResult) []string {
	if !res.IsOK() {
		return nil
	}
	seen := make(map[string]bool)
	var addrs []string
	for _, ev := range res.Events {
		switch ev.Type {
		case oracletypes.EventTypeCreateRequest,
			oracletypes.EventTypeVerifyRequest,
			oracletypes.EventTypeSettleRequest,
			oracletypes.EventTypeRejectRequest:
		default:
			continue
		}
		addr, ok := ev.Attribute(oracletypes.AttributeKeyRequest)
		if !ok || seen[addr] {
			continue
		}
		seen[addr] = true
		addrs = append(addrs, addr)
	}
	return addrs
}
