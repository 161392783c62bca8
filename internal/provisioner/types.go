package provisioner

import (
	"context"
	"errors"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
)

// ErrPlanNotLinux is returned when an existing hosting plan cannot host Linux apps
var ErrPlanNotLinux = errors.New("existing app service plan is not a linux plan")

// ControlPlane is the subset of the resource-management API used to provision apps
type ControlPlane interface {
	GetResourceGroup(ctx context.Context, name string) (*azure.ResourceGroup, error)
	CreateResourceGroup(ctx context.Context, name, location string) (*azure.ResourceGroup, error)
	GetAppServicePlan(ctx context.Context, resourceGroup, name string) (*azure.AppServicePlan, error)
	CreateOrUpdateAppServicePlan(ctx context.Context, resourceGroup, name string, plan *azure.AppServicePlan) (*azure.AppServicePlan, error)
	GetSite(ctx context.Context, resourceGroup, name, slot string) (*azure.Site, error)
	CreateOrUpdateSite(ctx context.Context, resourceGroup, name string, site *azure.Site) (*azure.Site, error)
	UpdateSiteConfig(ctx context.Context, resourceGroup, name, slot string, config *azure.SiteConfig) error
	UpdateAppSettings(ctx context.Context, resourceGroup, name, slot string, updates map[string]string) error
	PlanID(resourceGroup, name string) string
}

// Defaults are the fixed provisioning parameters
type Defaults struct {
	// Group replaces the generated resource group name when set
	Group        string
	Location     string
	LocationName string
	Sku          string
}

// Summary is the record of what will be (or was) provisioned
type Summary struct {
	Name          string `json:"name" yaml:"name"`
	ServerFarm    string `json:"serverfarm" yaml:"serverfarm"`
	ResourceGroup string `json:"resourcegroup" yaml:"resourcegroup"`
	Sku           string `json:"sku" yaml:"sku"`
	Location      string `json:"location" yaml:"location"`
}

// ContainerImage describes the image a container app runs
type ContainerImage struct {
	// Image is the repository:tag name, without registry host
	Image string

	// Registry credentials, only set when the image was built in a managed registry
	RegistryServer   string
	RegistryUsername string
	RegistryPassword string
}

// FullName returns the image reference including the registry host
func (i *ContainerImage) FullName() string {
	if i.RegistryServer == "" {
		return i.Image
	}
	return i.RegistryServer + "/" + i.Image
}

// FromRegistry reports whether the image lives in a managed registry
func (i *ContainerImage) FromRegistry() bool {
	return i.RegistryServer != ""
}

// ProvisionRequest contains all info needed to provision a web app
type ProvisionRequest struct {
	Name   string
	DryRun bool

	// Container is set for container apps
	Container *ContainerImage

	// RuntimeStack is the linuxFxVersion of code apps, e.g. "NODE|18-lts"
	RuntimeStack string
}

// ProvisionResult contains the result of provisioning
type ProvisionResult struct {
	Summary Summary
	DryRun  bool

	CreatedGroup bool
	CreatedPlan  bool
	CreatedApp   bool

	// Site is nil on dry runs
	Site *azure.Site
}
