package provisioner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
)

// Provisioner creates the resource group, hosting plan and web app of a
// quickstart deployment. Every step is skipped when its resource exists.
type Provisioner struct {
	client   ControlPlane
	defaults Defaults
	logger   zerolog.Logger
}

// NewProvisioner creates a new provisioner
func NewProvisioner(client ControlPlane, defaults Defaults, logger zerolog.Logger) *Provisioner {
	return &Provisioner{
		client:   client,
		defaults: defaults.withFallbacks(),
		logger:   logger.With().Str("component", "provisioner").Logger(),
	}
}

// Plan returns the summary for an app without touching the control plane
func (p *Provisioner) Plan(name string) Summary {
	return p.defaults.Plan(name)
}

// Provision runs the existence chain: group, plan, app, container settings.
// The first error aborts the chain; nothing is rolled back.
func (p *Provisioner) Provision(ctx context.Context, req *ProvisionRequest) (*ProvisionResult, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("app name is required")
	}

	summary := p.Plan(req.Name)
	result := &ProvisionResult{Summary: summary, DryRun: req.DryRun}

	if req.DryRun {
		p.logger.Warn().Msg("Web app will be created with the below configuration, re-run command without the --dryrun flag to create & deploy a new app")
		return result, nil
	}

	groupExists, err := p.groupExists(ctx, summary.ResourceGroup)
	if err != nil {
		return nil, err
	}

	if groupExists {
		p.logger.Warn().Msgf("Resource group '%s' already exists.", summary.ResourceGroup)
	} else {
		p.logger.Warn().Msgf("Creating Resource group '%s' ...", summary.ResourceGroup)
		if _, err := p.client.CreateResourceGroup(ctx, summary.ResourceGroup, summary.Location); err != nil {
			return nil, err
		}
		result.CreatedGroup = true
		p.logger.Warn().Msg("Resource group creation complete")
	}

	// A new group cannot contain the plan
	planExists := false
	if groupExists {
		planExists, err = p.linuxPlanExists(ctx, summary.ResourceGroup, summary.ServerFarm)
		if err != nil {
			return nil, err
		}
	}

	if planExists {
		p.logger.Warn().Msgf("App service plan '%s' already exists.", summary.ServerFarm)
	} else {
		p.logger.Warn().Msgf("Creating App service plan '%s' ...", summary.ServerFarm)
		plan := &azure.AppServicePlan{
			Location: p.defaults.LocationName,
			Kind:     "linux",
			Sku: &azure.SkuDescription{
				Name:     p.defaults.Sku,
				Tier:     summary.Sku,
				Capacity: 1,
			},
			Properties: azure.AppServicePlanProperties{Reserved: true},
		}
		if _, err := p.client.CreateOrUpdateAppServicePlan(ctx, summary.ResourceGroup, summary.ServerFarm, plan); err != nil {
			return nil, err
		}
		result.CreatedPlan = true
		p.logger.Warn().Msg("App service plan creation complete")
	}

	var site *azure.Site
	if planExists {
		site, err = p.findSite(ctx, summary.ResourceGroup, req.Name)
		if err != nil {
			return nil, err
		}
	}

	if site != nil {
		p.logger.Warn().Msgf("App '%s' already exists", req.Name)
	} else {
		p.logger.Warn().Msgf("Creating app '%s' ....", req.Name)
		site, err = p.client.CreateOrUpdateSite(ctx, summary.ResourceGroup, req.Name, p.newSite(summary, req))
		if err != nil {
			return nil, err
		}
		result.CreatedApp = true
		p.logger.Warn().Msg("Webapp creation complete")
	}
	result.Site = site

	if req.Container != nil && req.Container.FromRegistry() {
		if err := p.configureContainer(ctx, summary.ResourceGroup, req.Name, req.Container); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (p *Provisioner) newSite(summary Summary, req *ProvisionRequest) *azure.Site {
	site := &azure.Site{
		Location: p.defaults.LocationName,
		Kind:     "app,linux",
		Properties: azure.SiteProperties{
			ServerFarmID: p.client.PlanID(summary.ResourceGroup, summary.ServerFarm),
			Reserved:     true,
			SiteConfig:   &azure.SiteConfig{},
		},
	}

	switch {
	case req.Container != nil:
		site.Kind = "app,linux,container"
		site.Properties.SiteConfig.LinuxFxVersion = "DOCKER|" + req.Container.FullName()
	case req.RuntimeStack != "":
		site.Properties.SiteConfig.LinuxFxVersion = req.RuntimeStack
	}

	return site
}

// configureContainer points the app at a private registry image
func (p *Provisioner) configureContainer(ctx context.Context, resourceGroup, name string, image *ContainerImage) error {
	p.logger.Warn().Msg("Configuring ACR container settings.")

	settings := map[string]string{
		"DOCKER_REGISTRY_SERVER_URL":      "https://" + image.RegistryServer,
		"DOCKER_REGISTRY_SERVER_USERNAME": image.RegistryUsername,
		"DOCKER_REGISTRY_SERVER_PASSWORD": image.RegistryPassword,
	}
	if err := p.client.UpdateAppSettings(ctx, resourceGroup, name, "", settings); err != nil {
		return fmt.Errorf("failed to update container settings: %w", err)
	}

	config := &azure.SiteConfig{LinuxFxVersion: "DOCKER|" + image.FullName()}
	if err := p.client.UpdateSiteConfig(ctx, resourceGroup, name, "", config); err != nil {
		return fmt.Errorf("failed to update container image: %w", err)
	}

	return nil
}

func (p *Provisioner) groupExists(ctx context.Context, name string) (bool, error) {
	_, err := p.client.GetResourceGroup(ctx, name)
	if err == nil {
		return true, nil
	}
	if azure.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// linuxPlanExists reports whether a usable plan exists. A plan of the same
// name that cannot host Linux apps is a precondition failure.
func (p *Provisioner) linuxPlanExists(ctx context.Context, resourceGroup, name string) (bool, error) {
	plan, err := p.client.GetAppServicePlan(ctx, resourceGroup, name)
	if err != nil {
		if azure.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if !plan.IsLinux() {
		p.logger.Error().
			Str("plan", name).
			Str("resourceGroup", resourceGroup).
			Msg("App service plan exists but is not a linux plan")
		return false, fmt.Errorf("%w: %s", ErrPlanNotLinux, name)
	}

	return true, nil
}

func (p *Provisioner) findSite(ctx context.Context, resourceGroup, name string) (*azure.Site, error) {
	site, err := p.client.GetSite(ctx, resourceGroup, name, "")
	if err != nil {
		if azure.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return site, nil
}
