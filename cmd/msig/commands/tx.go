package commands

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/owner"
)

func depositCmd(o *options) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Credit the treasury balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[0])
			}
			sender := owner.Zero
			if from != "" {
				if sender, err = owner.Parse(from); err != nil {
					return err
				}
			}

			b, err := o.openBackend(cmd, false, false)
			if err != nil {
				return err
			}
			defer b.Close()

			bal, err := b.Deposit(cmd.Context(), sender, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balance %d\n", bal)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "depositor address")
	return cmd
}

func submitCmd(o *options) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "submit <recipient> <value>",
		Short: "Propose a transfer to an address or paymail handle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q", args[1])
			}
			payload, err := hex.DecodeString(data)
			if err != nil {
				return fmt.Errorf("--data must be hex: %w", err)
			}

			b, err := o.openBackend(cmd, true, false)
			if err != nil {
				return err
			}
			defer b.Close()

			index, err := b.Submit(cmd.Context(), args[0], value, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d\n", index)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "hex payload carried with the transfer")
	return cmd
}

type transitionFunc func(b backend, cmd *cobra.Command, index uint64) (*multisig.Transaction, error)

func transitionCmd(o *options, use, short string, settle *bool, op transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <index>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			b, err := o.openBackend(cmd, true, settle != nil && *settle)
			if err != nil {
				return err
			}
			defer b.Close()

			tx, err := op(b, cmd, index)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), tx)
			return nil
		},
	}
}

func confirmCmd(o *options) *cobra.Command {
	return transitionCmd(o, "confirm", "Confirm a pending transaction", nil,
		func(b backend, cmd *cobra.Command, index uint64) (*multisig.Transaction, error) {
			return b.Confirm(cmd.Context(), index)
		})
}

func revokeCmd(o *options) *cobra.Command {
	return transitionCmd(o, "revoke", "Withdraw your confirmation", nil,
		func(b backend, cmd *cobra.Command, index uint64) (*multisig.Transaction, error) {
			return b.Revoke(cmd.Context(), index)
		})
}

func executeCmd(o *options) *cobra.Command {
	var settle bool
	cmd := transitionCmd(o, "execute", "Execute a transaction that reached its threshold", &settle,
		func(b backend, cmd *cobra.Command, index uint64) (*multisig.Transaction, error) {
			return b.Execute(cmd.Context(), index)
		})
	cmd.Flags().BoolVar(&settle, "settle", false, "broadcast the transfer from the wallet treasury key")
	return cmd
}
