package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xydata/oracle/crypto/ethsecp256k1"
	oraclecli "github.com/xydata/oracle/x/oracle/client/cli"
)

const flagRecover = "recover"

// KeyOutput is the public view of a stored key.
type KeyOutput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	PubKey  string `json:"pubkey"`
}

func keysDir(home string) string {
	return filepath.Join(home, oraclecli.KeysDir)
}

func keyOutput(name string, key *ethsecp256k1.PrivKey) KeyOutput {
	return KeyOutput{Name: name, Address: key.Address().String(), PubKey: key.PubKeyHex()}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}

// KeysCmd manages the hex key files under <home>/keys.
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing keys",
	}
	cmd.AddCommand(keysAddCmd(), keysShowCmd(), keysListCmd())
	return cmd
}

func keysAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Generate a new key, or import one with --recover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := homeFromCmd(cmd)
			if err != nil {
				return err
			}
			path := ethsecp256k1.KeyPath(keysDir(home), args[0])
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("key %s already exists", args[0])
			}

			hexKey, _ := cmd.Flags().GetString(flagRecover)
			var key *ethsecp256k1.PrivKey
			if hexKey != "" {
				key, err = ethsecp256k1.FromHex(hexKey)
			} else {
				key, err = ethsecp256k1.GenerateKey()
			}
			if err != nil {
				return err
			}
			if err := key.SaveKey(path); err != nil {
				return err
			}
			return printJSON(cmd, keyOutput(args[0], key))
		},
	}

	addHomeFlag(cmd)
	cmd.Flags().String(flagRecover, "", "Hex encoded private key to import")
	return cmd
}

func keysShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a key's address and public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := homeFromCmd(cmd)
			if err != nil {
				return err
			}
			key, err := ethsecp256k1.LoadKey(ethsecp256k1.KeyPath(keysDir(home), args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, keyOutput(args[0], key))
		},
	}

	addHomeFlag(cmd)
	return cmd
}

func keysListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := homeFromCmd(cmd)
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(keysDir(home))
			if err != nil && !os.IsNotExist(err) {
				return err
			}

			out := []KeyOutput{}
			for _, entry := range entries {
				name := strings.TrimSuffix(entry.Name(), ethsecp256k1.KeyFileExt)
				if entry.IsDir() || name == entry.Name() {
					continue
				}
				key, err := ethsecp256k1.LoadKey(filepath.Join(keysDir(home), entry.Name()))
				if err != nil {
					return err
				}
				out = append(out, keyOutput(name, key))
			}
			return printJSON(cmd, out)
		},
	}

	addHomeFlag(cmd)
	return cmd
}
