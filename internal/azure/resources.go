package azure

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// GetResourceGroup retrieves a resource group
func (c *Client) GetResourceGroup(ctx context.Context, name string) (*ResourceGroup, error) {
	var group ResourceGroup
	if err := c.do(ctx, http.MethodGet, c.groupPath(name), resourcesAPIVersion, nil, &group); err != nil {
		return nil, fmt.Errorf("failed to get resource group %s: %w", name, err)
	}
	return &group, nil
}

// CreateResourceGroup creates or updates a resource group
func (c *Client) CreateResourceGroup(ctx context.Context, name, location string) (*ResourceGroup, error) {
	c.logger.Info().Str("resourceGroup", name).Str("location", location).Msg("Creating resource group")

	group := ResourceGroup{Location: location}
	if err := c.do(ctx, http.MethodPut, c.groupPath(name), resourcesAPIVersion, group, &group); err != nil {
		return nil, fmt.Errorf("failed to create resource group %s: %w", name, err)
	}
	return &group, nil
}

// GetAppServicePlan retrieves a hosting plan
func (c *Client) GetAppServicePlan(ctx context.Context, resourceGroup, name string) (*AppServicePlan, error) {
	var plan AppServicePlan
	if err := c.do(ctx, http.MethodGet, c.planPath(resourceGroup, name), c.webAPIVersion, nil, &plan); err != nil {
		return nil, fmt.Errorf("failed to get app service plan %s: %w", name, err)
	}
	return &plan, nil
}

// CreateOrUpdateAppServicePlan creates or updates a hosting plan
func (c *Client) CreateOrUpdateAppServicePlan(ctx context.Context, resourceGroup, name string, plan *AppServicePlan) (*AppServicePlan, error) {
	c.logger.Info().Str("resourceGroup", resourceGroup).Str("plan", name).Msg("Creating app service plan")

	var created AppServicePlan
	if err := c.do(ctx, http.MethodPut, c.planPath(resourceGroup, name), c.webAPIVersion, plan, &created); err != nil {
		return nil, fmt.Errorf("failed to create app service plan %s: %w", name, err)
	}
	return &created, nil
}

// GetSite retrieves a web app or one of its slots
func (c *Client) GetSite(ctx context.Context, resourceGroup, name, slot string) (*Site, error) {
	var site Site
	if err := c.do(ctx, http.MethodGet, c.sitePath(resourceGroup, name, slot), c.webAPIVersion, nil, &site); err != nil {
		return nil, fmt.Errorf("failed to get app %s: %w", name, err)
	}
	return &site, nil
}

// CreateOrUpdateSite creates or updates a web app
func (c *Client) CreateOrUpdateSite(ctx context.Context, resourceGroup, name string, site *Site) (*Site, error) {
	c.logger.Info().Str("resourceGroup", resourceGroup).Str("app", name).Msg("Creating app")

	var created Site
	if err := c.do(ctx, http.MethodPut, c.sitePath(resourceGroup, name, ""), c.webAPIVersion, site, &created); err != nil {
		return nil, fmt.Errorf("failed to create app %s: %w", name, err)
	}
	return &created, nil
}

// GetSiteConfig retrieves the configuration of a web app
func (c *Client) GetSiteConfig(ctx context.Context, resourceGroup, name, slot string) (*SiteConfig, error) {
	var config envelope[SiteConfig]
	path := c.sitePath(resourceGroup, name, slot) + "/config/web"
	if err := c.do(ctx, http.MethodGet, path, c.webAPIVersion, nil, &config); err != nil {
		return nil, fmt.Errorf("failed to get site config of %s: %w", name, err)
	}
	return &config.Properties, nil
}

// UpdateSiteConfig patches the configuration of a web app
func (c *Client) UpdateSiteConfig(ctx context.Context, resourceGroup, name, slot string, config *SiteConfig) error {
	path := c.sitePath(resourceGroup, name, slot) + "/config/web"
	if err := c.do(ctx, http.MethodPatch, path, c.webAPIVersion, envelope[*SiteConfig]{Properties: config}, nil); err != nil {
		return fmt.Errorf("failed to update site config of %s: %w", name, err)
	}
	return nil
}

// ListAppSettings retrieves the app settings of a web app
func (c *Client) ListAppSettings(ctx context.Context, resourceGroup, name, slot string) (map[string]string, error) {
	var settings envelope[map[string]string]
	path := c.sitePath(resourceGroup, name, slot) + "/config/appsettings/list"
	if err := c.do(ctx, http.MethodPost, path, c.webAPIVersion, nil, &settings); err != nil {
		return nil, fmt.Errorf("failed to list app settings of %s: %w", name, err)
	}
	if settings.Properties == nil {
		settings.Properties = map[string]string{}
	}
	return settings.Properties, nil
}

// UpdateAppSettings merges the given settings into the app settings of a web app
func (c *Client) UpdateAppSettings(ctx context.Context, resourceGroup, name, slot string, updates map[string]string) error {
	settings, err := c.ListAppSettings(ctx, resourceGroup, name, slot)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(updates))
	for key, value := range updates {
		settings[key] = value
		keys = append(keys, key)
	}
	sort.Strings(keys)

	c.logger.Info().Str("app", name).Strs("settings", keys).Msg("Updating app settings")

	path := c.sitePath(resourceGroup, name, slot) + "/config/appsettings"
	if err := c.do(ctx, http.MethodPut, path, c.webAPIVersion, envelope[map[string]string]{Properties: settings}, nil); err != nil {
		return fmt.Errorf("failed to update app settings of %s: %w", name, err)
	}
	return nil
}

// ListPublishingCredentials retrieves the SCM credentials of a web app
func (c *Client) ListPublishingCredentials(ctx context.Context, resourceGroup, name, slot string) (*PublishingCredentials, error) {
	var creds envelope[PublishingCredentials]
	path := c.sitePath(resourceGroup, name, slot) + "/config/publishingcredentials/list"
	if err := c.do(ctx, http.MethodPost, path, c.webAPIVersion, nil, &creds); err != nil {
		return nil, fmt.Errorf("failed to get publishing credentials of %s: %w", name, err)
	}
	return &creds.Properties, nil
}

// ListRegistryCredentials retrieves the admin credentials of a container registry
func (c *Client) ListRegistryCredentials(ctx context.Context, resourceGroup, registry string) (*RegistryCredentials, error) {
	var creds RegistryCredentials
	path := c.registryPath(resourceGroup, registry) + "/listCredentials"
	if err := c.do(ctx, http.MethodPost, path, registryAPIVersion, nil, &creds); err != nil {
		return nil, fmt.Errorf("failed to get credentials of registry %s: %w", registry, err)
	}
	return &creds, nil
}
