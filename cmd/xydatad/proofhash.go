package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// ProofHashOutput is the binding digest of an observation.
type ProofHashOutput struct {
	DataValue uint64                `json:"data_value"`
	DataType  string                `json:"data_type"`
	Timestamp int64                 `json:"timestamp"`
	ProofHash oracletypes.ProofHash `json:"proof_hash"`
	CID       string                `json:"cid"`
}

// ProofHashCmd computes the proof digest offline.
func ProofHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proof-hash [data-value] [data-type] [timestamp]",
		Short: "Compute the proof hash binding a value to its data type and timestamp",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid data value %q: %w", args[0], err)
			}
			if err := oracletypes.ValidateDataType(args[1]); err != nil {
				return err
			}
			timestamp, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[2], err)
			}

			hash := oracletypes.ComputeProofHash(value, args[1], timestamp)
			id, err := hash.ContentID()
			if err != nil {
				return err
			}
			return printJSON(cmd, ProofHashOutput{
				DataValue: value,
				DataType:  args[1],
				Timestamp: timestamp,
				ProofHash: hash,
				CID:       id.String(),
			})
		},
	}
}
