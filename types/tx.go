package types

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tendermint/tendermint/crypto/tmhash"

	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// Tx is a signed envelope around a single oracle message.
type Tx struct {
	Type      string          `json:"type"`
	Msg       json.RawMessage `json:"msg"`
	Signer    string          `json:"signer"`
	Sequence  uint64          `json:"sequence"`
	Signature hexutil.Bytes   `json:"signature"`
}

type signDoc struct {
	ChainID  string          `json:"chain_id"`
	Sequence uint64          `json:"sequence"`
	Type     string          `json:"type"`
	Msg      json.RawMessage `json:"msg"`
}

// NewTx wraps msg in an unsigned envelope for the given account sequence.
func NewTx(msg oracletypes.Msg, sequence uint64) (*Tx, error) {
	bz, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.Type(), err)
	}
	return &Tx{
		Type:     msg.Type(),
		Msg:      bz,
		Signer:   msg.GetSigner().String(),
		Sequence: sequence,
	}, nil
}

// DecodeTx parses the JSON form of a transaction.
func DecodeTx(bz []byte) (*Tx, error) {
	var tx Tx
	if err := json.Unmarshal(bz, &tx); err != nil {
		return nil, ErrInvalidTx.Wrap(err.Error())
	}
	return &tx, nil
}

// SignBytes returns the Keccak-256 digest of the canonical sign document.
func (tx Tx) SignBytes(chainID string) ([]byte, error) {
	bz, err := json.Marshal(signDoc{
		ChainID:  chainID,
		Sequence: tx.Sequence,
		Type:     tx.Type,
		Msg:      tx.Msg,
	})
	if err != nil {
		return nil, err
	}
	sorted, err := sdk.SortJSON(bz)
	if err != nil {
		return nil, ErrInvalidTx.Wrapf("sign document: %s", err)
	}
	return crypto.Keccak256(sorted), nil
}

// Sign fills the signature with a recoverable secp256k1 signature by key.
func (tx *Tx) Sign(chainID string, key *ecdsa.PrivateKey) error {
	hash, err := tx.SignBytes(chainID)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return fmt.Errorf("failed to sign tx: %w", err)
	}
	tx.Signature = sig
	return nil
}

// GetMsg decodes the carried message and checks it names the envelope signer.
func (tx Tx) GetMsg() (oracletypes.Msg, error) {
	msg, err := oracletypes.NewMsgByType(tx.Type)
	if err != nil {
		return nil, ErrUnknownMessage.Wrap(err.Error())
	}
	if err := json.Unmarshal(tx.Msg, msg); err != nil {
		return nil, ErrInvalidTx.Wrapf("decode %s message: %s", tx.Type, err)
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.GetSigner().String() != tx.Signer {
		return nil, ErrInvalidSignature.Wrapf("message signer %s does not match tx signer %s", msg.GetSigner(), tx.Signer)
	}
	return msg, nil
}

// RecoverSigner authenticates the transaction and returns the caller identity.
func (tx Tx) RecoverSigner(chainID string) (sdk.AccAddress, error) {
	if len(tx.Signature) != crypto.SignatureLength {
		return nil, ErrInvalidSignature.Wrapf("signature length %d", len(tx.Signature))
	}
	hash, err := tx.SignBytes(chainID)
	if err != nil {
		return nil, err
	}
	pub, err := crypto.SigToPub(hash, tx.Signature)
	if err != nil {
		return nil, ErrInvalidSignature.Wrap(err.Error())
	}
	signer := sdk.AccAddress(crypto.PubkeyToAddress(*pub).Bytes())
	if signer.String() != tx.Signer {
		return nil, ErrInvalidSignature.Wrapf("recovered %s, tx claims %s", signer, tx.Signer)
	}
	return signer, nil
}

// Hash is the upper-case hex tmhash of the encoded transaction.
func (tx Tx) Hash() string {
	bz, _ := json.Marshal(tx)
	return strings.ToUpper(fmt.Sprintf("%x", tmhash.Sum(bz)))
}
