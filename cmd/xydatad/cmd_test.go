package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xydata/oracle/app"
	"github.com/xydata/oracle/crypto/ethsecp256k1"
	"github.com/xydata/oracle/types"
)

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd := NewRootCmd()
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.Bytes(), err
}

func TestInitCmd(t *testing.T) {
	types.SetBech32Prefixes()
	home := t.TempDir()
	funded, err := ethsecp256k1.GenerateKey()
	require.NoError(t, err)

	_, err = run(t,
		"init",
		fmt.Sprintf("--%s=%s", flagHome, home),
		fmt.Sprintf("--%s=%s", flagChainID, "xydata-test"),
		fmt.Sprintf("--%s=%s=1000uxyd", flagAccounts, funded.Address()),
	)
	require.NoError(t, err)
	require.FileExists(t, configPath(home))

	gs, err := app.LoadGenesis(genesisPath(home))
	require.NoError(t, err)
	require.Equal(t, "xydata-test", gs.ChainID)
	require.Len(t, gs.Balances, 1)

	// a second init must not clobber the genesis
	_, err = run(t, "init", fmt.Sprintf("--%s=%s", flagHome, home))
	require.Error(t, err)

	_, err = run(t, "init", fmt.Sprintf("--%s=%s", flagHome, home), fmt.Sprintf("--%s", flagOverwrite))
	require.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadConfig(home)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().API.Address, cfg.API.Address)

	written := DefaultConfig()
	written.ChainID = "xydata-9"
	written.Indexer.Enable = true
	written.Indexer.DSN = "postgres://localhost/xydata"
	require.NoError(t, WriteConfigFile(configPath(home), written))

	t.Setenv("XYDATA_API_ADDRESS", "0.0.0.0:9999")
	cfg, err = LoadConfig(home)
	require.NoError(t, err)
	require.Equal(t, "xydata-9", cfg.ChainID)
	require.Equal(t, "0.0.0.0:9999", cfg.API.Address)
	require.True(t, cfg.Indexer.Enable)
	require.Equal(t, written.Indexer.DSN, cfg.Indexer.DSN)
	require.Equal(t, written.API.ReadTimeout, cfg.API.ReadTimeout)
}

func TestKeysCmd(t *testing.T) {
	home := t.TempDir()
	homeFlag := fmt.Sprintf("--%s=%s", flagHome, home)

	out, err := run(t, "keys", "add", "admin", homeFlag)
	require.NoError(t, err)
	var added KeyOutput
	require.NoError(t, json.Unmarshal(out, &added))
	require.Equal(t, "admin", added.Name)

	_, err = run(t, "keys", "add", "admin", homeFlag)
	require.Error(t, err)

	key, err := ethsecp256k1.GenerateKey()
	require.NoError(t, err)
	out, err = run(t, "keys", "add", "imported", homeFlag, fmt.Sprintf("--%s=%s", flagRecover, key.Hex()))
	require.NoError(t, err)
	var imported KeyOutput
	require.NoError(t, json.Unmarshal(out, &imported))
	require.Equal(t, key.Address().String(), imported.Address)

	out, err = run(t, "keys", "show", "admin", homeFlag)
	require.NoError(t, err)
	var shown KeyOutput
	require.NoError(t, json.Unmarshal(out, &shown))
	require.Equal(t, added, shown)

	require.NoError(t, os.WriteFile(filepath.Join(keysDir(home), "notes.txt"), []byte("x"), 0o600))
	out, err = run(t, "keys", "list", homeFlag)
	require.NoError(t, err)
	var listed []KeyOutput
	require.NoError(t, json.Unmarshal(out, &listed))
	require.Len(t, listed, 2)

	_, err = run(t, "keys", "show", "missing", homeFlag)
	require.Error(t, err)
}

func TestProofHashCmd(t *testing.T) {
	out, err := run(t, "proof-hash", "15000", "SOL/USD", "1700000000")
	require.NoError(t, err)

	var res ProofHashOutput
	require.NoError(t, json.Unmarshal(out, &res))
	require.Equal(t, "6bd749027b1b172e68bde76a7b77a6233761ea650d6b6a65da5e1014b010ca59", res.ProofHash.String())
	require.NotEmpty(t, res.CID)

	_, err = run(t, "proof-hash", "-1", "SOL/USD", "1700000000")
	require.Error(t, err)
	_, err = run(t, "proof-hash", "1", "", "1700000000")
	require.Error(t, err)
}

func TestExportAfterInit(t *testing.T) {
	home := t.TempDir()
	homeFlag := fmt.Sprintf("--%s=%s", flagHome, home)

	_, err := run(t, "init", homeFlag)
	require.NoError(t, err)

	out, err := run(t, "export", homeFlag)
	require.NoError(t, err)
	var gs app.GenesisState
	require.NoError(t, json.Unmarshal(out, &gs))
	require.Equal(t, types.DefaultChainID, gs.ChainID)
	require.Nil(t, gs.Oracle.Registry)
}

func TestParseGenesisAccount(t *testing.T) {
	types.SetBech32Prefixes()
	key, err := ethsecp256k1.GenerateKey()
	require.NoError(t, err)

	testCases := []struct {
		name    string
		entry   string
		expPass bool
	}{
		{"1. valid", key.Address().String() + "=10uxyd", true},
		{"2. missing separator", key.Address().String(), false},
		{"3. bad address", "cosmos1xyz=10uxyd", false},
		{"4. bad coins", key.Address().String() + "=ten", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseGenesisAccount(tc.entry)
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
