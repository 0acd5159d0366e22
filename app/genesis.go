package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// GenesisState is the initial state of a chain.
type GenesisState struct {
	ChainID     string                   `json:"chain_id" yaml:"chain_id"`
	GenesisTime time.Time                `json:"genesis_time" yaml:"genesis_time"`
	Balances    []Balance                `json:"balances" yaml:"balances"`
	Accounts    []types.Account          `json:"accounts" yaml:"accounts"`
	Oracle      oracletypes.GenesisState `json:"oracle" yaml:"oracle"`
}

// DefaultGenesis returns an empty genesis for chainID.
func DefaultGenesis(chainID string) GenesisState {
	return GenesisState{
		ChainID:     chainID,
		GenesisTime: time.Now().UTC(),
		Balances:    []Balance{},
		Accounts:    []types.Account{},
		Oracle:      *oracletypes.DefaultGenesisState(),
	}
}

func (gs GenesisState) Validate() error {
	if gs.ChainID == "" {
		return fmt.Errorf("chain id cannot be empty")
	}
	for _, b := range gs.Balances {
		if _, err := sdk.AccAddressFromBech32(b.Address); err != nil {
			return fmt.Errorf("invalid balance address %s: %w", b.Address, err)
		}
		if err := b.Coins.Validate(); err != nil {
			return fmt.Errorf("invalid balance for %s: %w", b.Address, err)
		}
	}
	seen := make(map[string]bool)
	for _, acc := range gs.Accounts {
		if err := sdk.VerifyAddressFormat(acc.Address); err != nil {
			return fmt.Errorf("invalid account address %s: %w", acc.Address, err)
		}
		if seen[acc.Address.String()] {
			return fmt.Errorf("duplicate account %s", acc.Address)
		}
		seen[acc.Address.String()] = true
	}
	return gs.Oracle.Validate()
}

// LoadGenesis reads a genesis document from path.
func LoadGenesis(path string) (GenesisState, error) {
	types.SetBech32Prefixes()

	bz, err := os.ReadFile(path)
	if err != nil {
		return GenesisState{}, fmt.Errorf("failed to read genesis: %w", err)
	}
	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return GenesisState{}, fmt.Errorf("failed to decode genesis: %w", err)
	}
	return gs, gs.Validate()
}

// SaveGenesis writes a genesis document to path.
func SaveGenesis(path string, gs GenesisState) error {
	bz, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bz, 0o644)
}
