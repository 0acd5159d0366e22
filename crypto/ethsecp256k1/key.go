// Package ethsecp256k1 manages the Ethereum style secp256k1 keys that sign
// xydata transactions.
package ethsecp256k1

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyFileExt is the extension of hex encoded key files.
const KeyFileExt = ".key"

// PrivKey is a signing key together with its account address.
type PrivKey struct {
	key *ecdsa.PrivateKey
}

// GenerateKey creates a new random key.
func GenerateKey() (*PrivKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &PrivKey{key: key}, nil
}

// FromHex parses a hex encoded private key, with or without 0x prefix.
func FromHex(s string) (*PrivKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &PrivKey{key: key}, nil
}

// LoadKey reads a key file written by SaveKey.
func LoadKey(path string) (*PrivKey, error) {
	key, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load key %s: %w", path, err)
	}
	return &PrivKey{key: key}, nil
}

// SaveKey writes the key as hex to path with owner-only permissions.
func (k *PrivKey) SaveKey(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := crypto.SaveECDSA(path, k.key); err != nil {
		return fmt.Errorf("failed to save key %s: %w", path, err)
	}
	return nil
}

// KeyPath returns the key file of name inside dir.
func KeyPath(dir, name string) string {
	return filepath.Join(dir, name+KeyFileExt)
}

func (k *PrivKey) ECDSA() *ecdsa.PrivateKey {
	return k.key
}

// Address is the account address of the key, the last 20 bytes of the
// Keccak-256 of the public key.
func (k *PrivKey) Address() sdk.AccAddress {
	return sdk.AccAddress(crypto.PubkeyToAddress(k.key.PublicKey).Bytes())
}

// PubKeyHex returns the compressed public key.
func (k *PrivKey) PubKeyHex() string {
	return hexutil.Encode(crypto.CompressPubkey(&k.key.PublicKey))
}

// Hex returns the raw private key, for export only.
func (k *PrivKey) Hex() string {
	return hexutil.Encode(crypto.FromECDSA(k.key))
}

// Sign returns a 65 byte recoverable signature over hash.
func (k *PrivKey) Sign(hash []byte) ([]byte, error) {
	return crypto.Sign(hash, k.key)
}
