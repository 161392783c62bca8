package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/alvesdmateus/appsvc-deployer/internal/tunnel"
)

type remoteConnectionOptions struct {
	resourceGroup string
	name          string
	slot          string
	port          int
}

func newRemoteConnectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote-connection",
		Short: "Manage remote connections to Linux web apps",
	}

	cmd.AddCommand(newRemoteConnectionCreateCmd(a))

	return cmd
}

func newRemoteConnectionCreateCmd(a *app) *cobra.Command {
	opts := &remoteConnectionOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a local tunnel to the SSH or remote debugging port of a web app",
		Long: `Open a TCP listener on localhost that forwards every connection over a
websocket to the app's container. The command waits until the container is
ready and runs until interrupted.`,
		Example: `  appsvc webapp remote-connection create -g myrg -n myapp --port 9000
  ssh root@127.0.0.1 -p 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := a.controlPlane(ctx)
			if err != nil {
				return err
			}

			session := tunnel.NewSession(client, tunnel.Config{
				ResourceGroup:     opts.resourceGroup,
				Name:              opts.name,
				Slot:              opts.slot,
				Port:              opts.port,
				SCMDomain:         a.cfg.Azure.SCMDomain,
				WaitInterval:      a.cfg.Tunnel.WaitInterval,
				KeepaliveInterval: a.cfg.Tunnel.KeepAliveInterval,
				IdleTimeout:       a.cfg.Tunnel.IdleTimeout,
			}, a.logger)

			err = session.Run(ctx)
			if errors.Is(err, tunnel.ErrNotLinux) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.resourceGroup, "resource-group", "g", "", "resource group of the web app")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "name of the web app")
	cmd.Flags().StringVarP(&opts.slot, "slot", "s", "", "deployment slot, defaults to production")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "local port, a free port is picked when 0")
	_ = cmd.MarkFlagRequired("resource-group")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
