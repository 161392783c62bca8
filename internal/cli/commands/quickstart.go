package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alvesdmateus/appsvc-deployer/internal/analyzer"
	"github.com/alvesdmateus/appsvc-deployer/internal/deployer"
	"github.com/alvesdmateus/appsvc-deployer/internal/provisioner"
	"github.com/alvesdmateus/appsvc-deployer/internal/source"
)

type quickstartOptions struct {
	name   string
	source string
	output string
	dryRun bool
}

func newQuickstartCmd(a *app) *cobra.Command {
	opts := &quickstartOptions{}

	cmd := &cobra.Command{
		Use:   "quickstart",
		Short: "Create a web app for the current directory and zip-deploy it",
		Long: `Create a resource group, a Linux app service plan and a web app, then zip-deploy
the source directory to it. Existing resources are reused.`,
		Example: `  appsvc webapp quickstart --name myapp --dryrun
  appsvc webapp quickstart --name myapp --source ./site --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuickstart(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "name of the web app")
	cmd.Flags().StringVar(&opts.source, "source", ".", "directory or git URL to deploy")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputJSON, "output format: json or yaml")
	cmd.Flags().BoolVar(&opts.dryRun, "dryrun", false, "show what would be created without creating anything")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runQuickstart(cmd *cobra.Command, a *app, opts *quickstartOptions) error {
	if err := validateOutput(opts.output); err != nil {
		return err
	}

	ctx := cmd.Context()

	if opts.dryRun {
		result, err := a.provisioner(nil).Provision(ctx, &provisioner.ProvisionRequest{Name: opts.name, DryRun: true})
		if err != nil {
			return err
		}
		return writeOutput(a.out, opts.output, result.Summary)
	}

	dir, cleanup, err := source.NewResolver(a.logger).Resolve(ctx, opts.source)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis, err := analyzer.New().Analyze(dir)
	if err != nil {
		return fmt.Errorf("failed to analyze source: %w", err)
	}
	if !analysis.Supported() {
		a.logger.Error().Str("source", dir).Msg("Could not detect a supported runtime for the source directory")
		return ErrCommandFailed
	}

	a.logger.Info().
		Str("language", string(analysis.Language)).
		Str("runtime", analysis.RuntimeStack).
		Float64("confidence", analysis.Confidence).
		Msg("Detected runtime")

	client, err := a.controlPlane(ctx)
	if err != nil {
		return err
	}

	provisioned, err := a.provisioner(client).Provision(ctx, &provisioner.ProvisionRequest{
		Name:         opts.name,
		RuntimeStack: analysis.RuntimeStack,
	})
	if err != nil {
		if precondition(err) {
			return nil
		}
		return err
	}

	result, err := a.zipDeployer(client).Deploy(ctx, &deployer.DeployRequest{
		ResourceGroup: provisioned.Summary.ResourceGroup,
		AppName:       opts.name,
		Source:        dir,
	})
	if err != nil {
		return err
	}

	if err := writeOutput(a.out, opts.output, provisioned.Summary); err != nil {
		return err
	}

	return deploymentError(result)
}
