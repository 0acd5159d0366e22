package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/xydata/oracle/app"
	"github.com/xydata/oracle/types"
)

const (
	flagChainID   = "chain-id"
	flagOverwrite = "overwrite"
	flagAccounts  = "accounts"
	flagBuyback   = "buyback"
	flagTreasury  = "treasury"
)

// InitCmd writes a default config and genesis into the home directory.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the node's configuration and genesis files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := homeFromCmd(cmd)
			if err != nil {
				return err
			}
			chainID, _ := cmd.Flags().GetString(flagChainID)
			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)
			accounts, _ := cmd.Flags().GetStringSlice(flagAccounts)
			buyback, _ := cmd.Flags().GetString(flagBuyback)
			treasury, _ := cmd.Flags().GetString(flagTreasury)

			if _, err := os.Stat(genesisPath(home)); err == nil && !overwrite {
				return fmt.Errorf("genesis already exists at %s, use --%s to replace it", genesisPath(home), flagOverwrite)
			}

			cfg := DefaultConfig()
			cfg.ChainID = chainID
			if err := WriteConfigFile(configPath(home), cfg); err != nil {
				return err
			}

			gs := app.DefaultGenesis(chainID)
			for _, entry := range accounts {
				balance, err := parseGenesisAccount(entry)
				if err != nil {
					return err
				}
				gs.Balances = append(gs.Balances, balance)
			}
			gs.Oracle.Params.BuybackAddress = buyback
			gs.Oracle.Params.TreasuryAddress = treasury
			if err := app.SaveGenesis(genesisPath(home), gs); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Join(home, dataDir), 0o755); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s in %s\n", chainID, home)
			return nil
		},
	}

	addHomeFlag(cmd)
	cmd.Flags().String(flagChainID, types.DefaultChainID, "Chain id of the new network")
	cmd.Flags().Bool(flagOverwrite, false, "Replace an existing genesis")
	cmd.Flags().StringSlice(flagAccounts, nil, "Genesis balances as address=coins, e.g. xydata1...=1000000uxyd")
	cmd.Flags().String(flagBuyback, "", "Address receiving the buyback share of settlements")
	cmd.Flags().String(flagTreasury, "", "Address receiving the treasury share of settlements")
	return cmd
}

func parseGenesisAccount(entry string) (app.Balance, error) {
	bech, amount, ok := strings.Cut(entry, "=")
	if !ok {
		return app.Balance{}, fmt.Errorf("invalid genesis account %q, expected address=coins", entry)
	}
	addr, err := sdk.AccAddressFromBech32(bech)
	if err != nil {
		return app.Balance{}, fmt.Errorf("invalid genesis account %q: %w", entry, err)
	}
	coins, err := sdk.ParseCoinsNormalized(amount)
	if err != nil {
		return app.Balance{}, fmt.Errorf("invalid genesis coins %q: %w", entry, err)
	}
	return app.Balance{Address: addr.String(), Coins: coins}, nil
}

// ExportCmd prints the committed state as a genesis document.
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export state as a genesis document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := homeFromCmd(cmd)
			if err != nil {
				return err
			}
			cfg, err := LoadConfig(home)
			if err != nil {
				return err
			}
			a, db, err := openApp(home, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			defer a.Close()

			gs, err := a.ExportGenesis()
			if err != nil {
				return err
			}
			return printJSON(cmd, gs)
		},
	}

	addHomeFlag(cmd)
	return cmd
}
