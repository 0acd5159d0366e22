package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/xydata/oracle/client"
	"github.com/xydata/oracle/crypto/ethsecp256k1"
)

const (
	FlagNode    = "node"
	FlagFrom    = "from"
	FlagHome    = "home"
	FlagOutput  = "output"
	FlagTimeout = "timeout"

	FlagProofHash = "proof-hash"
	FlagProof     = "proof"
	FlagStatus    = "status"
	FlagRequester = "requester"
	FlagOffset    = "offset"
	FlagLimit     = "limit"

	DefaultNode = "http://127.0.0.1:1317"
	DefaultHome = "~/.xydata"
	KeysDir     = "keys"
)

// AddQueryFlagsToCmd adds the flags every query command understands.
func AddQueryFlagsToCmd(cmd *cobra.Command) {
	cmd.Flags().String(FlagNode, DefaultNode, "API endpoint of the node")
	cmd.Flags().StringP(FlagOutput, "o", "yaml", "Output format (yaml|json)")
	cmd.Flags().Duration(FlagTimeout, 10*time.Second, "Request timeout")
}

// AddTxFlagsToCmd adds the flags every transaction command understands.
func AddTxFlagsToCmd(cmd *cobra.Command) {
	AddQueryFlagsToCmd(cmd)
	cmd.Flags().String(FlagFrom, "", "Name of the key to sign with")
	cmd.Flags().String(FlagHome, DefaultHome, "Directory holding the keys")
	_ = cmd.MarkFlagRequired(FlagFrom)
}

// ExpandHome resolves a leading "~" against the user's home directory.
func ExpandHome(dir string) string {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// ClientFromCmd builds an API client from the command's flags.
func ClientFromCmd(cmd *cobra.Command) (*client.Client, error) {
	node, err := cmd.Flags().GetString(FlagNode)
	if err != nil {
		return nil, err
	}
	timeout, err := cmd.Flags().GetDuration(FlagTimeout)
	if err != nil {
		return nil, err
	}
	return client.New(node, timeout), nil
}

// KeyFromCmd loads the signing key named by --from out of <home>/keys.
func KeyFromCmd(cmd *cobra.Command) (*ethsecp256k1.PrivKey, error) {
	name, err := cmd.Flags().GetString(FlagFrom)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("--%s is required", FlagFrom)
	}
	home, err := cmd.Flags().GetString(FlagHome)
	if err != nil {
		return nil, err
	}
	return ethsecp256k1.LoadKey(ethsecp256k1.KeyPath(filepath.Join(ExpandHome(home), KeysDir), name))
}

// PrintOutput writes v to the command's output in the format chosen by --output.
func PrintOutput(cmd *cobra.Command, v interface{}) error {
	format := "yaml"
	if f := cmd.Flags().Lookup(FlagOutput); f != nil {
		format = f.Value.String()
	}

	var (
		out []byte
		err error
	)
	switch format {
	case "json":
		out, err = json.MarshalIndent(v, "", "  ")
	case "yaml":
		out, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
	return err
}
