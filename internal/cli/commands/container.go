package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
	"github.com/alvesdmateus/appsvc-deployer/internal/builder"
	"github.com/alvesdmateus/appsvc-deployer/internal/builder/registry"
	"github.com/alvesdmateus/appsvc-deployer/internal/builder/strategies"
	"github.com/alvesdmateus/appsvc-deployer/internal/provisioner"
	"github.com/alvesdmateus/appsvc-deployer/internal/source"
)

type containerUpOptions struct {
	name          string
	source        string
	customImage   string
	registryGroup string
	registryName  string
	output        string
	dryRun        bool
}

func newContainerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Manage container web apps",
	}

	cmd.AddCommand(newContainerUpCmd(a))

	return cmd
}

func newContainerUpCmd(a *app) *cobra.Command {
	opts := &containerUpOptions{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Build an image in a container registry and run it on a web app",
		Long: `Build the Dockerfile of the source with the local Docker daemon, push it to an
Azure container registry and create a Linux web app running it. With
--docker-custom-image-name the build is skipped and the given image is used.`,
		Example: `  appsvc webapp container up --name myapp --registry-rg myrg --registry-name myreg
  appsvc webapp container up --name myapp --source https://github.com/org/app.git#main --registry-rg myrg --registry-name myreg
  appsvc webapp container up --name myapp --docker-custom-image-name nginx:latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContainerUp(cmd.Context(), a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "name of the web app")
	cmd.Flags().StringVar(&opts.source, "source", ".", "directory or git URL holding the Dockerfile")
	cmd.Flags().StringVar(&opts.customImage, "docker-custom-image-name", "", "run this image instead of building one")
	cmd.Flags().StringVar(&opts.registryGroup, "registry-rg", "", "resource group of the container registry")
	cmd.Flags().StringVar(&opts.registryName, "registry-name", "", "name of the container registry")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputJSON, "output format: json or yaml")
	cmd.Flags().BoolVar(&opts.dryRun, "dryrun", false, "show what would be created without creating anything")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runContainerUp(ctx context.Context, a *app, opts *containerUpOptions) error {
	if err := validateOutput(opts.output); err != nil {
		return err
	}

	if opts.customImage == "" && (opts.registryGroup == "" || opts.registryName == "") {
		return errors.New("--registry-rg and --registry-name are required unless --docker-custom-image-name is set")
	}

	if opts.dryRun {
		result, err := a.provisioner(nil).Provision(ctx, &provisioner.ProvisionRequest{Name: opts.name, DryRun: true})
		if err != nil {
			return err
		}
		return writeOutput(a.out, opts.output, result.Summary)
	}

	client, err := a.controlPlane(ctx)
	if err != nil {
		return err
	}

	image := &provisioner.ContainerImage{Image: opts.customImage}
	if opts.customImage == "" {
		image, err = a.buildImage(ctx, client, opts)
		if err != nil {
			return err
		}
	}

	provisioned, err := a.provisioner(client).Provision(ctx, &provisioner.ProvisionRequest{
		Name:      opts.name,
		Container: image,
	})
	if err != nil {
		if precondition(err) {
			return nil
		}
		return err
	}

	a.logger.Info().
		Str("app", opts.name).
		Str("image", image.FullName()).
		Msg("Container web app is ready")

	return writeOutput(a.out, opts.output, provisioned.Summary)
}

// buildImage builds the source and pushes it to the registry
func (a *app) buildImage(ctx context.Context, client *azure.Client, opts *containerUpOptions) (*provisioner.ContainerImage, error) {
	service, err := builder.NewService(builder.ServiceConfig{
		RegistryConfig: registry.Config{
			Type:          string(registry.RegistryTypeACR),
			Name:          opts.registryName,
			ResourceGroup: opts.registryGroup,
			Domain:        a.cfg.Registry.Domain,
		},
		StrategyType: strategies.StrategyTypeDocker,
		BuildTimeout: a.cfg.Registry.BuildTimeout,
	}, client, a.logger)
	if err != nil {
		return nil, err
	}
	defer service.Close()

	// Registry credentials are checked before cloning a possibly large source
	if err := service.VerifyRegistryAccess(ctx); err != nil {
		return nil, err
	}

	dir, cleanup, err := source.NewResolver(a.logger).Resolve(ctx, opts.source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	built, err := service.BuildImage(ctx, &builder.BuildContext{
		SourcePath: dir,
		ImageName:  builder.GenerateImageName(source.Name(opts.source, dir), time.Now()),
		Labels: map[string]string{
			"appsvc.webapp": opts.name,
		},
	})
	if err != nil {
		return nil, err
	}

	return &provisioner.ContainerImage{
		Image:            built.Name,
		RegistryServer:   built.Registry.Server,
		RegistryUsername: built.Registry.Username,
		RegistryPassword: built.Registry.Password,
	}, nil
}
