package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmultisig-go/wallet"
)

func keygenCmd(o *options) *cobra.Command {
	var (
		words    int
		mnemonic string
		count    uint32
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create an encrypted wallet and print its owner and treasury addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.password == "" {
				return fmt.Errorf("wallet password required (--password or $%s)", EnvPassword)
			}
			out := cmd.OutOrStdout()

			restored := mnemonic != ""
			if !restored {
				bits := wallet.Mnemonic24Words
				if words == 12 {
					bits = wallet.Mnemonic12Words
				}
				m, err := wallet.GenerateMnemonic(bits)
				if err != nil {
					return err
				}
				mnemonic = m
			}
			seed, err := wallet.SeedFromMnemonic(mnemonic, "")
			if err != nil {
				return err
			}
			w, err := wallet.NewWallet(seed, o.cfg.Network)
			if err != nil {
				return err
			}
			if err := wallet.SaveWallet(o.walletPath(), seed, o.password); err != nil {
				return err
			}

			if !restored {
				fmt.Fprintf(out, "Mnemonic (write it down, it is not stored in clear):\n  %s\n\n", mnemonic)
			}
			for i := uint32(0); i < count; i++ {
				k, err := w.OwnerKey(i)
				if err != nil {
					return err
				}
				enc, err := k.Address.Encode(w.Mainnet())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "owner[%d]     %s  %s  %s\n", i, k.Address.Hex(), enc, k.Path)
			}
			t, err := w.TreasuryKey(0)
			if err != nil {
				return err
			}
			enc, err := t.Address.Encode(w.Mainnet())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "treasury     %s  %s  %s\n", t.Address.Hex(), enc, t.Path)
			return nil
		},
	}
	cmd.Flags().IntVar(&words, "words", 24, "mnemonic length (12 or 24)")
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "restore from an existing mnemonic")
	cmd.Flags().Uint32Var(&count, "owners", 1, "number of owner addresses to print")
	return cmd
}
