package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmultisig-go/multisig"
)

func ownersCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "Print the owner registry and threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := o.openBackend(cmd, false, false)
			if err != nil {
				return err
			}
			defer b.Close()

			resp, err := b.Owners(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "threshold %d of %d\n", resp.Threshold, len(resp.Owners))
			for i, a := range resp.Owners {
				fmt.Fprintf(out, "  %d  %s\n", i, a.Hex())
			}
			return nil
		},
	}
}

func balanceCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the treasury balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := o.openBackend(cmd, false, false)
			if err != nil {
				return err
			}
			defer b.Close()

			bal, err := b.Balance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), bal)
			return nil
		},
	}
}

func listCmd(o *options) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := o.openBackend(cmd, false, false)
			if err != nil {
				return err
			}
			defer b.Close()

			txs, err := b.Transactions(cmd.Context(), pending)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tx := range txs {
				printSummary(out, tx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only transactions not yet executed")
	return cmd
}

func showCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <index>",
		Short: "Show one transaction with its confirmations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			b, err := o.openBackend(cmd, false, false)
			if err != nil {
				return err
			}
			defer b.Close()

			tx, err := b.Transaction(cmd.Context(), index)
			if err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), tx)
			return nil
		},
	}
}

func parseIndex(s string) (uint64, error) {
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid transaction index %q", s)
	}
	return index, nil
}

func status(tx *multisig.Transaction) string {
	if tx.Executed {
		return "executed"
	}
	return "pending"
}

func printSummary(w io.Writer, tx *multisig.Transaction) {
	fmt.Fprintf(w, "%4d  %-8s  %12d  %s  confirmations=%d\n",
		tx.Index, status(tx), tx.Value, tx.To.Hex(), tx.NumConfirmations())
}

func printDetail(w io.Writer, tx *multisig.Transaction) {
	fmt.Fprintf(w, "index:         %d\n", tx.Index)
	fmt.Fprintf(w, "status:        %s\n", status(tx))
	fmt.Fprintf(w, "to:            %s\n", tx.To.Hex())
	fmt.Fprintf(w, "value:         %d\n", tx.Value)
	if len(tx.Data) > 0 {
		fmt.Fprintf(w, "data:          %s\n", hex.EncodeToString(tx.Data))
	}
	confs := make([]string, len(tx.Confirmations))
	for i, a := range tx.Confirmations {
		confs[i] = a.Hex()
	}
	fmt.Fprintf(w, "confirmations: %d [%s]\n", len(confs), strings.Join(confs, ", "))
}
