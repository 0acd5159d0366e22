package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xydata/oracle/client"
	"github.com/xydata/oracle/x/oracle/types"
)

// GetQueryCmd returns the cli query commands for this module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      fmt.Sprintf("Querying commands for the %s module", types.ModuleName),
		SuggestionsMinimumDistance: 2,
	}

	cmd.AddCommand(
		GetCmdQueryRegistry(),
		GetCmdQueryParams(),
		GetCmdQueryRequest(),
		GetCmdQueryRequests(),
		GetCmdQueryProof(),
		GetCmdQueryTxs(),
		GetCmdQueryStats(),
	)

	return cmd
}

// GetCmdQueryRegistry implements the registry query command
func GetCmdQueryRegistry() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Query the oracle registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ClientFromCmd(cmd)
			if err != nil {
				return err
			}
			res, err := c.Registry(cmd.Context())
			if err != nil {
				return err
			}
			return PrintOutput(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryParams implements the params query command
func GetCmdQueryParams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Query the current oracle parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ClientFromCmd(cmd)
			if err != nil {
				return err
			}
			res, err := c.Params(cmd.Context())
			if err != nil {
				return err
			}
			return PrintOutput(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryRequest implements the single request query command
func GetCmdQueryRequest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request [address]",
		Short: "Query a data request by address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ClientFromCmd(cmd)
			if err != nil {
				return err
			}
			res, err := c.Request(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return PrintOutput(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryRequests implements the request listing command
func GetCmdQueryRequests() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List data requests, optionally filtered by status or requester",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ClientFromCmd(cmd)
			if err != nil {
				return err
			}

			var filter client.RequestsFilter
			if filter.Status, err = cmd.Flags().GetString(FlagStatus); err != nil {
				return err
			}
			if filter.Status != "" {
				if _, err := types.ParseRequestStatus(filter.Status); err != nil {
					return err
				}
			}
			if filter.Requester, err = cmd.Flags().GetString(FlagRequester); err != nil {
				return err
			}
			if filter.Offset, err = cmd.Flags().GetUint64(FlagOffset); err != nil {
				return err
			}
			if filter.Limit, err = cmd.Flags().GetUint64(FlagLimit); err != nil {
				return err
			}

			res, err := c.Requests(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return PrintOutput(cmd, res)
		},
	}

	cmd.Flags().String(FlagStatus, "", "Only list requests in this status (pending|verified|settled|rejected)")
	cmd.Flags().String(FlagRequester, "", "Only list requests opened by this address")
	cmd.Flags().Uint64(FlagOffset, 0, "Number of requests to skip")
	cmd.Flags().Uint64(FlagLimit, types.DefaultPageLimit, "Maximum number of requests to return")
	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryProof implements the proof query command. The argument may be a
// proof address or the address of the request it proves.
func GetCmdQueryProof() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof [address]",
		Short: "Query a proof by its address or by its request's address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ClientFromCmd(cmd)
			if err != nil {
				return err
			}
			res, err := c.Proof(cmd.Context(), args[0])
			if client.IsNotFound(err) {
				res, err = c.RequestProof(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return PrintOutput(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryTxs implements the recent transactions query command
func GetCmdQueryTxs() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txs",
		Short: "Query the most recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ClientFromCmd(cmd)
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt(FlagLimit)
			if err != nil {
				return err
			}
			res, err := c.Txs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return PrintOutput(cmd, res)
		},
	}

	cmd.Flags().Int(FlagLimit, 20, "Maximum number of transactions to return")
	AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryStats implements the per data type analytics query command
func GetCmdQueryStats() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Query request totals and settled volume per data type (requires the indexer)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ClientFromCmd(cmd)
			if err != nil {
				return err
			}
			res, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return PrintOutput(cmd, res)
		},
	}

	AddQueryFlagsToCmd(cmd)
	return cmd
}
