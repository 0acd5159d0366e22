package cli

import (
	"fmt"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/xydata/oracle/x/oracle/types"
)

// GetTxCmd returns the transaction commands for this module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      fmt.Sprintf("%s transactions subcommands", types.ModuleName),
		SuggestionsMinimumDistance: 2,
	}

	cmd.AddCommand(
		NewInitializeCmd(),
		NewCreateRequestCmd(),
		NewVerifyCmd(),
		NewSettleCmd(),
		NewUpdateConfigCmd(),
		NewRejectCmd(),
	)

	return cmd
}

func broadcast(cmd *cobra.Command, msg func(signer string) types.Msg) error {
	key, err := KeyFromCmd(cmd)
	if err != nil {
		return err
	}
	c, err := ClientFromCmd(cmd)
	if err != nil {
		return err
	}

	m := msg(key.Address().String())
	if err := m.ValidateBasic(); err != nil {
		return err
	}

	res, err := c.SignAndBroadcast(cmd.Context(), key, m)
	if res != nil {
		if perr := PrintOutput(cmd, res); perr != nil {
			return perr
		}
	}
	return err
}

func parseFeeBps(arg string) (uint16, error) {
	fee, err := strconv.ParseUint(arg, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid fee bps %q: %w", arg, err)
	}
	return uint16(fee), nil
}

// NewInitializeCmd implements the registry initialization command
func NewInitializeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initialize [admin] [fee-bps]",
		Short: "Create the oracle registry with an admin and a fee rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fee, err := parseFeeBps(args[1])
			if err != nil {
				return err
			}
			return broadcast(cmd, func(signer string) types.Msg {
				return types.NewMsgInitialize(signer, args[0], fee)
			})
		},
	}

	AddTxFlagsToCmd(cmd)
	return cmd
}

// NewCreateRequestCmd implements the data request command
func NewCreateRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-request [data-type] [quantity]",
		Short: "Open a new data request against the registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}
			return broadcast(cmd, func(signer string) types.Msg {
				return types.NewMsgCreateRequest(signer, args[0], quantity)
			})
		},
	}

	AddTxFlagsToCmd(cmd)
	return cmd
}

// NewVerifyCmd implements the proof submission command. Without --proof-hash the
// digest is computed from the request's data type.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [request] [data-value] [timestamp]",
		Short: "Attach a proof to a pending request",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid data value %q: %w", args[1], err)
			}
			timestamp, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[2], err)
			}

			var hash types.ProofHash
			hashHex, err := cmd.Flags().GetString(FlagProofHash)
			if err != nil {
				return err
			}
			if hashHex != "" {
				if hash, err = types.ProofHashFromHex(hashHex); err != nil {
					return err
				}
			} else {
				c, err := ClientFromCmd(cmd)
				if err != nil {
					return err
				}
				req, err := c.Request(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				hash = types.ComputeProofHash(value, req.DataType, timestamp)
			}

			return broadcast(cmd, func(signer string) types.Msg {
				return types.NewMsgVerify(signer, args[0], value, hash, timestamp)
			})
		},
	}

	cmd.Flags().String(FlagProofHash, "", "Hex encoded proof digest; computed locally when empty")
	AddTxFlagsToCmd(cmd)
	return cmd
}

// NewSettleCmd implements the settlement command
func NewSettleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle [request] [amount]",
		Short: "Pay for a verified request and split the amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			proof, err := cmd.Flags().GetString(FlagProof)
			if err != nil {
				return err
			}
			if proof == "" {
				request, err := sdk.AccAddressFromBech32(args[0])
				if err != nil {
					return err
				}
				proof = types.ProofAddress(request).String()
			}
			return broadcast(cmd, func(signer string) types.Msg {
				return types.NewMsgSettle(signer, args[0], proof, amount)
			})
		},
	}

	cmd.Flags().String(FlagProof, "", "Proof address; derived from the request when empty")
	AddTxFlagsToCmd(cmd)
	return cmd
}

// NewUpdateConfigCmd implements the fee update command
func NewUpdateConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-config [fee-bps]",
		Short: "Change the registry fee rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fee, err := parseFeeBps(args[0])
			if err != nil {
				return err
			}
			return broadcast(cmd, func(signer string) types.Msg {
				return types.NewMsgUpdateConfig(signer, fee)
			})
		},
	}

	AddTxFlagsToCmd(cmd)
	return cmd
}

// NewRejectCmd implements the request rejection command
func NewRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject [request] [reason]",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return broadcast(cmd, func(signer string) types.Msg {
				return types.NewMsgReject(signer, args[0], args[1])
			})
		},
	}

	AddTxFlagsToCmd(cmd)
	return cmd
}
