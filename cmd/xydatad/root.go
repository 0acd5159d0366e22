package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/xydata/oracle/types"
	oraclecli "github.com/xydata/oracle/x/oracle/client/cli"
)

const flagHome = "home"

// NewRootCmd creates the xydatad command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xydatad",
		Short: "XyData oracle node",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			types.SetBech32Prefixes()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		InitCmd(),
		StartCmd(),
		KeysCmd(),
		TxCmd(),
		QueryCmd(),
		ProofHashCmd(),
		ExportCmd(),
	)
	return rootCmd
}

func addHomeFlag(cmd *cobra.Command) {
	cmd.Flags().String(flagHome, oraclecli.DefaultHome, "Node home directory")
}

func homeFromCmd(cmd *cobra.Command) (string, error) {
	home, err := cmd.Flags().GetString(flagHome)
	if err != nil {
		return "", err
	}
	return oraclecli.ExpandHome(home), nil
}

func newLogger(level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	option, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, option), nil
}

// TxCmd groups the transaction commands.
func TxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Transactions subcommands",
	}
	cmd.AddCommand(oraclecli.GetTxCmd())
	return cmd
}

// QueryCmd groups the query commands.
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Querying subcommands",
	}
	cmd.AddCommand(oraclecli.GetQueryCmd())
	return cmd
}
