package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmultisig-go/config"
	"github.com/bitfsorg/libmultisig-go/ledger"
	"github.com/bitfsorg/libmultisig-go/multisig"
)

func initCmd(o *options) *cobra.Command {
	var (
		owners    []string
		threshold int
		network   string
		listen    string
		rpcURL    string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the config and create the ledger with its owner policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := o.cfg
			cfg.Owners = owners
			cfg.Threshold = threshold
			if network != "" {
				cfg.Network = network
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}
			if rpcURL != "" {
				cfg.RPCURL = rpcURL
			}
			if len(cfg.Owners) == 0 {
				return fmt.Errorf("%w: --owners is required", config.ErrInvalidOwners)
			}
			if err := config.ValidateConfig(cfg); err != nil {
				return err
			}
			addrs, err := cfg.OwnerAddresses()
			if err != nil {
				return err
			}

			store, err := ledger.OpenBoltStore(config.LedgerPath(o.dataDir))
			if err != nil {
				return err
			}
			e, err := multisig.New(addrs, cfg.Threshold, multisig.WithStore(store))
			if err != nil {
				_ = store.Close()
				return err
			}
			if err := e.Close(); err != nil {
				return err
			}
			if err := config.SaveConfig(config.ConfigPath(o.dataDir), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %d-of-%d treasury in %s\n", cfg.Threshold, len(addrs), o.dataDir)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&owners, "owners", nil, "owner addresses in registry order (hex or base58)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "confirmations required to execute")
	cmd.Flags().StringVar(&network, "network", "", "mainnet, testnet or regtest")
	cmd.Flags().StringVar(&listen, "listen", "", "API listen address")
	cmd.Flags().StringVar(&rpcURL, "rpc-url", "", "node JSON-RPC URL")
	return cmd
}
