// Package commands implements the msig command tree.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmultisig-go/config"
	"github.com/bitfsorg/libmultisig-go/ledger"
	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/network"
	"github.com/bitfsorg/libmultisig-go/paymail"
	"github.com/bitfsorg/libmultisig-go/payout"
	"github.com/bitfsorg/libmultisig-go/wallet"
)

var log = logging.MustGetLogger("CLI")

// EnvPassword supplies the wallet password when --password is not given.
const EnvPassword = "MSIG_PASSWORD"

// options holds the persistent flags shared by every command.
type options struct {
	dataDir    string
	password   string
	ownerIndex uint32
	server     string
	dnssec     string

	cfg config.Config
}

// Execute runs the root command against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "msig",
		Short:         "Threshold-approval treasury",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.dataDir, "datadir", "", "data directory (default ~/.msig)")
	pf.StringVarP(&o.password, "password", "p", "", "wallet password (default $"+EnvPassword+")")
	pf.Uint32Var(&o.ownerIndex, "owner-index", 0, "owner key index in the wallet")
	pf.StringVar(&o.server, "server", "", "operate on a remote msig API instead of the local ledger")
	pf.StringVar(&o.dnssec, "dnssec", "", "resolve paymail SRV records through this DNSSEC resolver (host:port)")

	root.AddCommand(
		initCmd(o),
		keygenCmd(o),
		ownersCmd(o),
		balanceCmd(o),
		listCmd(o),
		showCmd(o),
		depositCmd(o),
		submitCmd(o),
		confirmCmd(o),
		revokeCmd(o),
		executeCmd(o),
		serveCmd(o),
	)
	return root
}

// load resolves the data directory and reads the config file if present.
func (o *options) load() error {
	if o.dataDir == "" {
		o.dataDir = config.DefaultDataDir()
	}
	if o.password == "" {
		o.password = os.Getenv(EnvPassword)
	}

	cfg, err := config.LoadConfig(config.ConfigPath(o.dataDir))
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		cfg = config.DefaultConfig()
	case err != nil:
		return err
	}
	cfg.DataDir = o.dataDir
	o.cfg = cfg
	config.SetupLogging(cfg)
	return nil
}

func (o *options) walletPath() string {
	return filepath.Join(o.dataDir, wallet.FileName)
}

func (o *options) openWallet() (*wallet.Wallet, error) {
	if o.password == "" {
		return nil, fmt.Errorf("wallet password required (--password or $%s)", EnvPassword)
	}
	return wallet.LoadWallet(o.walletPath(), o.password, o.cfg.Network)
}

func (o *options) resolver() *paymail.Resolver {
	r := paymail.NewResolver()
	if o.dnssec != "" {
		r.DNS = paymail.NewDNSSECResolver(o.dnssec)
	}
	return r
}

// openEngine opens the local ledger. With settle set, approved transfers
// are broadcast from the wallet's treasury key through the node RPC.
func (o *options) openEngine(cmd *cobra.Command, settle bool) (*multisig.Engine, error) {
	store, err := ledger.OpenBoltStore(config.LedgerPath(o.dataDir))
	if err != nil {
		return nil, err
	}
	var opts []multisig.Option
	if settle {
		exec, err := o.chainExecutor(cmd)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, multisig.WithExecutor(exec))
	}
	e, err := multisig.Open(store, opts...)
	if err != nil {
		_ = store.Close()
		if errors.Is(err, ledger.ErrNoPolicy) {
			return nil, fmt.Errorf("%w (run msig init)", err)
		}
		return nil, err
	}
	return e, nil
}

func (o *options) chainExecutor(cmd *cobra.Command) (*payout.ChainExecutor, error) {
	w, err := o.openWallet()
	if err != nil {
		return nil, err
	}
	treasury, err := w.TreasuryKey(0)
	if err != nil {
		return nil, err
	}
	rc, err := network.ResolveConfig(&network.RPCConfig{
		URL:      o.cfg.RPCURL,
		User:     o.cfg.RPCUser,
		Password: o.cfg.RPCPassword,
	}, network.Environ(), o.cfg.Network)
	if err != nil {
		return nil, err
	}
	client := network.NewRPCClient(*rc)

	exec, err := payout.NewChainExecutor(client, treasury.PrivateKey, w.Mainnet(), payout.WithFeeRate(o.cfg.FeeRate))
	if err != nil {
		return nil, err
	}
	addr, err := exec.Address().Encode(w.Mainnet())
	if err != nil {
		return nil, err
	}
	if err := client.ImportAddress(cmd.Context(), addr); err != nil {
		return nil, err
	}
	log.Infof("settling on %s from treasury %s", rc.Network, addr)
	return exec, nil
}
