package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/xid"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmdb "github.com/tendermint/tm-db"

	"github.com/xydata/oracle/types"
	"github.com/xydata/oracle/x/oracle"
	"github.com/xydata/oracle/x/oracle/keeper"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// SubscriberBuffer is the number of results a slow subscriber may lag behind.
const SubscriberBuffer = 64

// App is the xydata state machine. Every committed transaction produces one
// height; reads run on cached snapshots under a shared lock.
type App struct {
	mtx sync.RWMutex

	logger  log.Logger
	chainID string
	clock   func() time.Time

	cms  storetypes.CommitMultiStore
	keys map[string]*storetypes.KVStoreKey

	AccountKeeper AccountKeeper
	BankKeeper    BankKeeper
	OracleKeeper  *keeper.Keeper
	handler       oracle.Handler

	subMtx      sync.RWMutex
	subscribers map[string]chan types.TxResult
}

// Option customizes an App.
type Option func(*App)

// WithClock replaces the wall clock stamping each height.
func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

// New opens the application state stored in db.
func New(logger log.Logger, db tmdb.DB, chainID string, opts ...Option) (*App, error) {
	types.SetBech32Prefixes()

	a := &App{
		logger:      logger.With("module", "app"),
		chainID:     chainID,
		clock:       func() time.Time { return time.Now().UTC() },
		cms:         store.NewCommitMultiStore(db),
		keys:        make(map[string]*storetypes.KVStoreKey),
		subscribers: make(map[string]chan types.TxResult),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, name := range storeKeys {
		key := sdk.NewKVStoreKey(name)
		a.keys[name] = key
		a.cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := a.cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	a.AccountKeeper = NewAccountKeeper(a.keys[AccountStoreKey])
	a.BankKeeper = NewBankKeeper(a.keys[BankStoreKey])
	a.OracleKeeper = keeper.NewKeeper(a.keys[oracletypes.StoreKey], a.BankKeeper)
	a.handler = oracle.NewHandler(keeper.NewMsgServerImpl(a.OracleKeeper))

	a.logger.Info("state loaded", "height", a.cms.LastCommitID().Version, "chain_id", chainID)
	return a, nil
}

func (a *App) ChainID() string {
	return a.chainID
}

// Height returns the last committed height.
func (a *App) Height() int64 {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	return a.cms.LastCommitID().Version
}

func (a *App) newContext(ms storetypes.MultiStore, height int64, blockTime time.Time) sdk.Context {
	header := tmproto.Header{ChainID: a.chainID, Height: height, Time: blockTime}
	return sdk.NewContext(ms, header, false, a.logger)
}

// InitChain loads genesis into an empty store and commits height 1.
func (a *App) InitChain(gs GenesisState) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.cms.LastCommitID().Version != 0 {
		return fmt.Errorf("chain already initialized at height %d", a.cms.LastCommitID().Version)
	}
	if gs.ChainID != a.chainID {
		return fmt.Errorf("genesis chain id %s does not match %s", gs.ChainID, a.chainID)
	}
	if err := gs.Validate(); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}

	cacheMS := a.cms.CacheMultiStore()
	ctx := a.newContext(cacheMS, 1, gs.GenesisTime)

	for _, b := range gs.Balances {
		a.BankKeeper.MintCoins(ctx, sdk.MustAccAddressFromBech32(b.Address), b.Coins)
	}
	for _, acc := range gs.Accounts {
		a.AccountKeeper.SetAccount(ctx, acc)
	}
	oracle.InitGenesis(ctx, a.OracleKeeper, gs.Oracle)

	cacheMS.Write()
	commitID := a.cms.Commit()
	a.logger.Info("genesis committed", "height", commitID.Version)
	return nil
}

// ExportGenesis returns the current state as a genesis document.
func (a *App) ExportGenesis() (GenesisState, error) {
	gs := GenesisState{ChainID: a.chainID, GenesisTime: a.clock()}
	err := a.Query(func(ctx sdk.Context) error {
		gs.Balances = a.BankKeeper.GetAllAccountBalances(ctx)
		gs.Accounts = a.AccountKeeper.GetAllAccounts(ctx)
		gs.Oracle = oracle.ExportGenesis(ctx, a.OracleKeeper)
		return nil
	})
	return gs, err
}

// Query runs fn on a read-only snapshot of the last committed state.
func (a *App) Query(fn func(ctx sdk.Context) error) error {
	a.mtx.RLock()
	defer a.mtx.RUnlock()

	height := a.cms.LastCommitID().Version
	return fn(a.newContext(a.cms.CacheMultiStore(), height, a.clock()))
}

// Request returns the committed request stored at addr.
func (a *App) Request(addr sdk.AccAddress) (oracletypes.Request, error) {
	var req oracletypes.Request
	err := a.Query(func(ctx sdk.Context) (err error) {
		req, err = a.OracleKeeper.GetRequest(ctx, addr)
		return err
	})
	return req, err
}

// Requests returns every committed request.
func (a *App) Requests() ([]oracletypes.Request, error) {
	var reqs []oracletypes.Request
	err := a.Query(func(ctx sdk.Context) error {
		reqs = a.OracleKeeper.GetAllRequests(ctx)
		return nil
	})
	return reqs, err
}

// DeliverTx authenticates tx, executes its message and commits a new height.
// Transactions that fail authentication are not committed; authenticated
// transactions consume their sequence even when the message fails.
func (a *App) DeliverTx(tx *types.Tx) types.TxResult {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	defer metrics.MeasureSince([]string{"tx", "deliver"}, time.Now())

	res := types.TxResult{Hash: tx.Hash(), Type: tx.Type, Signer: tx.Signer}

	msg, err := tx.GetMsg()
	if err != nil {
		return a.failed(res, err)
	}
	signer, err := tx.RecoverSigner(a.chainID)
	if err != nil {
		return a.failed(res, err)
	}

	height := a.cms.LastCommitID().Version + 1
	blockTime := a.clock()
	cacheMS := a.cms.CacheMultiStore()
	ctx := a.newContext(cacheMS, height, blockTime)

	if err := a.AccountKeeper.IncrementSequence(ctx, signer, tx.Sequence); err != nil {
		return a.failed(res, err)
	}

	res.Height = height
	res.Time = blockTime
	result, err := a.handler(ctx, msg)
	if err != nil {
		res = a.failed(res, err)
	} else {
		res.Data = result.Data
		res.Events = types.EventsFromABCI(result.Events)
	}

	a.appendTxLog(ctx, res)
	cacheMS.Write()
	a.cms.Commit()

	metrics.IncrCounterWithLabels([]string{"tx", "committed"}, 1, []metrics.Label{
		{Name: "type", Value: tx.Type},
		{Name: "ok", Value: fmt.Sprintf("%t", res.IsOK())},
	})
	a.logger.Info("committed tx", "height", height, "type", tx.Type, "hash", res.Hash, "code", res.Code)

	a.publish(res)
	return res
}

func (a *App) failed(res types.TxResult, err error) types.TxResult {
	codespace, code, details := errorsmod.ABCIInfo(err, false)
	res.Codespace = codespace
	res.Code = code
	res.Log = details
	return res
}

func (a *App) appendTxLog(ctx sdk.Context, res types.TxResult) {
	bz, err := json.Marshal(res)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(a.keys[TxLogStoreKey]).Set(oracletypes.IDToBytes(uint64(res.Height)), bz)
}

// RecentTxs returns up to limit committed transactions, newest first.
func (a *App) RecentTxs(limit int) ([]types.TxResult, error) {
	txs := []types.TxResult{}
	err := a.Query(func(ctx sdk.Context) error {
		iterator := ctx.KVStore(a.keys[TxLogStoreKey]).ReverseIterator(nil, nil)
		defer iterator.Close()

		for ; iterator.Valid() && len(txs) < limit; iterator.Next() {
			var res types.TxResult
			if err := json.Unmarshal(iterator.Value(), &res); err != nil {
				return err
			}
			txs = append(txs, res)
		}
		return nil
	})
	return txs, err
}

// Subscribe registers a listener for committed transactions. The returned
// cancel func must be called to release it.
func (a *App) Subscribe() (string, <-chan types.TxResult, func()) {
	id := xid.New().String()
	ch := make(chan types.TxResult, SubscriberBuffer)

	a.subMtx.Lock()
	a.subscribers[id] = ch
	a.subMtx.Unlock()

	return id, ch, func() {
		a.subMtx.Lock()
		defer a.subMtx.Unlock()
		if _, ok := a.subscribers[id]; ok {
			delete(a.subscribers, id)
			close(ch)
		}
	}
}

func (a *App) publish(res types.TxResult) {
	a.subMtx.RLock()
	defer a.subMtx.RUnlock()

	for id, ch := range a.subscribers {
		select {
		case ch <- res:
		default:
			a.logger.Error("dropping result for slow subscriber", "subscriber", id, "hash", res.Hash)
		}
	}
}

// Close releases subscribers. The database is owned by the caller.
func (a *App) Close() {
	a.subMtx.Lock()
	defer a.subMtx.Unlock()
	for id, ch := range a.subscribers {
		close(ch)
		delete(a.subscribers, id)
	}
}
