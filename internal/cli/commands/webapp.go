package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alvesdmateus/appsvc-deployer/internal/deployer"
	"github.com/alvesdmateus/appsvc-deployer/internal/provisioner"
	"github.com/alvesdmateus/appsvc-deployer/internal/scm"
)

func newWebappCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webapp",
		Short: "Manage web apps",
	}

	cmd.AddCommand(newQuickstartCmd(a))
	cmd.AddCommand(newContainerCmd(a))
	cmd.AddCommand(newDeploymentCmd(a))
	cmd.AddCommand(newRemoteConnectionCmd(a))

	return cmd
}

func (a *app) provisioner(client provisioner.ControlPlane) *provisioner.Provisioner {
	return provisioner.NewProvisioner(client, provisioner.Defaults{
		Group:        a.cfg.Defaults.Group,
		Location:     a.cfg.Defaults.Location,
		LocationName: a.cfg.Defaults.LocationName,
		Sku:          a.cfg.Defaults.SKU,
	}, a.logger)
}

func (a *app) zipDeployer(sites scm.SiteSource) deployer.Deployer {
	return deployer.NewZipDeployer(sites, deployer.ZipDeployerConfig{
		SCMDomain: a.cfg.Azure.SCMDomain,
		Poll: deployer.PollerConfig{
			Interval: a.cfg.Deploy.PollInterval,
			Retries:  a.cfg.Deploy.PollRetries,
		},
	}, a.logger)
}

// precondition reports whether err is a precondition failure that was
// already logged and ends the command without an error
func precondition(err error) bool {
	return errors.Is(err, provisioner.ErrPlanNotLinux)
}

// deploymentError maps a finished zip deployment to the command result
func deploymentError(result *deployer.Result) error {
	if err := result.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}
	return nil
}
