package submitter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"github.com/xydata/oracle/client"
	"github.com/xydata/oracle/crypto/ethsecp256k1"
	"github.com/xydata/oracle/oracle/config"
	"github.com/xydata/oracle/oracle/log"
	"github.com/xydata/oracle/oracle/types"
	xydatatypes "github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// Submitter signs job results as verify transactions and broadcasts them,
// tracking the account sequence locally between broadcasts.
type Submitter struct {
	mu       sync.Mutex
	client   *client.Client
	key      *ethsecp256k1.PrivKey
	chainID  string
	sequence uint64
}

// New creates a Submitter synchronized with the node's chain id and the key's
// current sequence.
func New(ctx context.Context, c *client.Client, key *ethsecp256k1.PrivKey) (*Submitter, error) {
	s := &Submitter{client: c, key: key}

	status, err := c.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query node status: %w", err)
	}
	if status.ChainID != config.ChainID() {
		return nil, fmt.Errorf("node chain id %s does not match configured %s", status.ChainID, config.ChainID())
	}
	s.chainID = status.ChainID

	if err := s.resync(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Submitter) Address() string {
	return s.key.Address().String()
}

func (s *Submitter) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}

func (s *Submitter) resync(ctx context.Context) error {
	acc, err := s.client.Account(ctx, s.Address())
	if err != nil {
		return fmt.Errorf("failed to get account sequence: %w", err)
	}
	s.sequence = acc.Sequence
	return nil
}

// BuildMsg creates the verify message for a job result.
func (s *Submitter) BuildMsg(jr types.JobResult) *oracletypes.MsgVerify {
	return oracletypes.NewMsgVerify(s.Address(), jr.Request, jr.DataValue, jr.ProofHash, jr.Timestamp)
}

// Submit broadcasts jr, retrying transport failures and sequence mismatches
// with exponential backoff. A transaction the node executed and rejected is a
// permanent failure.
func (s *Submitter) Submit(ctx context.Context, jr types.JobResult) (*xydatatypes.TxResult, error) {
	msg := s.BuildMsg(jr)
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = config.RetryMaxInterval()
	b.MaxElapsedTime = config.RetryMaxElapsedTime()

	var res *xydatatypes.TxResult
	err := backoff.Retry(func() error {
		var err error
		res, err = s.broadcast(ctx, msg)
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return res, err
	}

	log.Debugf("verify %s broadcasted successfully: %s", jr.Request, res.Hash)
	return res, nil
}

func (s *Submitter) broadcast(ctx context.Context, msg *oracletypes.MsgVerify) (*xydatatypes.TxResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.client.SignAndBroadcastWithSequence(ctx, s.chainID, s.key, msg, s.sequence)
	if err == nil {
		s.sequence++
		return res, nil
	}

	var txErr *client.TxError
	if !errors.As(err, &txErr) {
		// the tx may or may not have been committed
		if rerr := s.resync(ctx); rerr != nil {
			log.Errorf("%v", rerr)
		}
		return nil, err
	}

	result := txErr.Result
	if result.Height > 0 {
		// committed with a failed message, the sequence is spent
		s.sequence++
		return res, backoff.Permanent(err)
	}

	if result.Codespace == xydatatypes.RootCodespace && result.Code == xydatatypes.ErrInvalidSequence.ABCICode() {
		failedSequence := s.sequence
		if rerr := s.resync(ctx); rerr != nil {
			return nil, rerr
		}
		log.Debugf("sequence number synchronized: %d -> %d", failedSequence, s.sequence)
		return nil, err
	}

	return res, backoff.Permanent(err)
}

// IsAlreadyHandled reports whether err means the request no longer awaits a
// proof, so the daemon can drop it.
func IsAlreadyHandled(err error) bool {
	var txErr *client.TxError
	if !errors.As(err, &txErr) {
		return false
	}
	r := txErr.Result
	return r.Codespace == oracletypes.ModuleName && r.Code == oracletypes.ErrInvalidRequestStatus.ABCICode()
}
