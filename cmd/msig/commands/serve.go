package commands

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmultisig-go/api"
)

func serveCmd(o *options) *cobra.Command {
	var (
		listen string
		settle bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for the local ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = o.cfg.ListenAddr
			}
			e, err := o.openEngine(cmd, settle)
			if err != nil {
				return err
			}
			defer e.Close()

			g, err := api.NewGateway(e, api.GatewayConfig{Resolver: o.resolver()})
			if err != nil {
				return err
			}
			l, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return g.Serve(ctx, l)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&settle, "settle", false, "broadcast executed transfers from the wallet treasury key")
	return cmd
}
