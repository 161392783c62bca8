package commands

import (
	"github.com/spf13/cobra"

	"github.com/alvesdmateus/appsvc-deployer/internal/deployer"
)

type zipDeployOptions struct {
	resourceGroup string
	name          string
	slot          string
	src           string
}

func newDeploymentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployment",
		Short: "Manage web app deployments",
	}

	cmd.AddCommand(newZipDeployCmd(a))

	return cmd
}

func newZipDeployCmd(a *app) *cobra.Command {
	opts := &zipDeployOptions{}

	cmd := &cobra.Command{
		Use:   "zip",
		Short: "Deploy a zip archive or a directory to a web app",
		Long: `Upload a zip archive (or a directory, zipped on the fly) to the zip deployment
endpoint of the app and wait for the deployment to finish. A deployment that is
still running when the retry budget is spent is reported with its status URL.`,
		Example: `  appsvc webapp deployment zip --resource-group myrg --name myapp --src app.zip
  appsvc webapp deployment zip -g myrg -n myapp --src ./dist --slot staging`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := a.controlPlane(ctx)
			if err != nil {
				return err
			}

			result, err := a.zipDeployer(client).Deploy(ctx, &deployer.DeployRequest{
				ResourceGroup: opts.resourceGroup,
				AppName:       opts.name,
				Slot:          opts.slot,
				Source:        opts.src,
			})
			if err != nil {
				return err
			}

			if result.Status != nil {
				if err := writeOutput(a.out, outputJSON, result.Status); err != nil {
					return err
				}
			}

			return deploymentError(result)
		},
	}

	cmd.Flags().StringVarP(&opts.resourceGroup, "resource-group", "g", "", "resource group of the web app")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "name of the web app")
	cmd.Flags().StringVarP(&opts.slot, "slot", "s", "", "deployment slot, defaults to production")
	cmd.Flags().StringVar(&opts.src, "src", "", "zip archive or directory to deploy")
	_ = cmd.MarkFlagRequired("resource-group")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("src")

	return cmd
}
