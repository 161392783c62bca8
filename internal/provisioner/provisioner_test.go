package provisioner

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
)

var errNotFound = &azure.APIError{Status: http.StatusNotFound, Code: "ResourceNotFound"}

// mockControlPlane implements ControlPlane for testing
type mockControlPlane struct {
	groups map[string]bool
	plans  map[string]*azure.AppServicePlan
	sites  map[string]*azure.Site

	calls       []string
	createdPlan *azure.AppServicePlan
	createdSite *azure.Site
	settings    map[string]string
	siteConfig  *azure.SiteConfig
	getErr      error
}

func newMockControlPlane() *mockControlPlane {
	return &mockControlPlane{
		groups: map[string]bool{},
		plans:  map[string]*azure.AppServicePlan{},
		sites:  map[string]*azure.Site{},
	}
}

func (m *mockControlPlane) GetResourceGroup(ctx context.Context, name string) (*azure.ResourceGroup, error) {
	m.calls = append(m.calls, "GetResourceGroup")
	if m.getErr != nil {
		return nil, m.getErr
	}
	if !m.groups[name] {
		return nil, errNotFound
	}
	return &azure.ResourceGroup{Name: name}, nil
}

func (m *mockControlPlane) CreateResourceGroup(ctx context.Context, name, location string) (*azure.ResourceGroup, error) {
	m.calls = append(m.calls, "CreateResourceGroup")
	m.groups[name] = true
	return &azure.ResourceGroup{Name: name, Location: location}, nil
}

func (m *mockControlPlane) GetAppServicePlan(ctx context.Context, resourceGroup, name string) (*azure.AppServicePlan, error) {
	m.calls = append(m.calls, "GetAppServicePlan")
	plan, ok := m.plans[name]
	if !ok {
		return nil, errNotFound
	}
	return plan, nil
}

func (m *mockControlPlane) CreateOrUpdateAppServicePlan(ctx context.Context, resourceGroup, name string, plan *azure.AppServicePlan) (*azure.AppServicePlan, error) {
	m.calls = append(m.calls, "CreateOrUpdateAppServicePlan")
	m.createdPlan = plan
	m.plans[name] = plan
	return plan, nil
}

func (m *mockControlPlane) GetSite(ctx context.Context, resourceGroup, name, slot string) (*azure.Site, error) {
	m.calls = append(m.calls, "GetSite")
	site, ok := m.sites[name]
	if !ok {
		return nil, errNotFound
	}
	return site, nil
}

func (m *mockControlPlane) CreateOrUpdateSite(ctx context.Context, resourceGroup, name string, site *azure.Site) (*azure.Site, error) {
	m.calls = append(m.calls, "CreateOrUpdateSite")
	m.createdSite = site
	created := *site
	created.Name = name
	m.sites[name] = &created
	return &created, nil
}

func (m *mockControlPlane) UpdateSiteConfig(ctx context.Context, resourceGroup, name, slot string, config *azure.SiteConfig) error {
	m.calls = append(m.calls, "UpdateSiteConfig")
	m.siteConfig = config
	return nil
}

func (m *mockControlPlane) UpdateAppSettings(ctx context.Context, resourceGroup, name, slot string, updates map[string]string) error {
	m.calls = append(m.calls, "UpdateAppSettings")
	m.settings = updates
	return nil
}

func (m *mockControlPlane) PlanID(resourceGroup, name string) string {
	return "/subscriptions/sub/resourceGroups/" + resourceGroup + "/providers/Microsoft.Web/serverfarms/" + name
}

func TestProvision_DryRun(t *testing.T) {
	client := newMockControlPlane()
	p := NewProvisioner(client, Defaults{}, zerolog.Nop())

	result, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Name:          "myapp",
		ServerFarm:    "appsvc_asp_linux_centralus",
		ResourceGroup: "appsvc_rg_linux_centralus",
		Sku:           "Premium_V2",
		Location:      "Central US",
	}, result.Summary)
	assert.True(t, result.DryRun)
	assert.Nil(t, result.Site)
	assert.Empty(t, client.calls, "dry run must not reach the control plane")
}

func TestProvision_CreatesEverything(t *testing.T) {
	client := newMockControlPlane()
	p := NewProvisioner(client, Defaults{}, zerolog.Nop())

	result, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp", RuntimeStack: "NODE|18-lts"})
	require.NoError(t, err)

	assert.True(t, result.CreatedGroup)
	assert.True(t, result.CreatedPlan)
	assert.True(t, result.CreatedApp)
	assert.Equal(t, []string{
		"GetResourceGroup",
		"CreateResourceGroup",
		"CreateOrUpdateAppServicePlan",
		"CreateOrUpdateSite",
	}, client.calls, "plan and app are not looked up in a new group")

	require.NotNil(t, client.createdPlan)
	assert.True(t, client.createdPlan.Properties.Reserved)
	assert.Equal(t, "P1V2", client.createdPlan.Sku.Name)
	assert.Equal(t, "Premium_V2", client.createdPlan.Sku.Tier)
	assert.Equal(t, 1, client.createdPlan.Sku.Capacity)
	assert.Equal(t, "centralus", client.createdPlan.Location)

	require.NotNil(t, client.createdSite)
	assert.Equal(t, "NODE|18-lts", client.createdSite.Properties.SiteConfig.LinuxFxVersion)
	assert.Contains(t, client.createdSite.Properties.ServerFarmID, "appsvc_asp_linux_centralus")
}

func TestProvision_ReusesExisting(t *testing.T) {
	client := newMockControlPlane()
	client.groups["appsvc_rg_linux_centralus"] = true
	client.plans["appsvc_asp_linux_centralus"] = &azure.AppServicePlan{Properties: azure.AppServicePlanProperties{Reserved: true}}
	client.sites["myapp"] = &azure.Site{Name: "myapp", Properties: azure.SiteProperties{Reserved: true}}

	p := NewProvisioner(client, Defaults{}, zerolog.Nop())
	result, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp"})
	require.NoError(t, err)

	assert.False(t, result.CreatedGroup)
	assert.False(t, result.CreatedPlan)
	assert.False(t, result.CreatedApp)
	assert.Equal(t, "myapp", result.Site.Name)
	assert.Equal(t, []string{"GetResourceGroup", "GetAppServicePlan", "GetSite"}, client.calls)
}

func TestProvision_ExistingGroupNewPlan(t *testing.T) {
	client := newMockControlPlane()
	client.groups["appsvc_rg_linux_centralus"] = true

	p := NewProvisioner(client, Defaults{}, zerolog.Nop())
	result, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp"})
	require.NoError(t, err)

	assert.False(t, result.CreatedGroup)
	assert.True(t, result.CreatedPlan)
	assert.True(t, result.CreatedApp)
	assert.Equal(t, []string{
		"GetResourceGroup",
		"GetAppServicePlan",
		"CreateOrUpdateAppServicePlan",
		"CreateOrUpdateSite",
	}, client.calls)
}

func TestProvision_PlanNotLinux(t *testing.T) {
	client := newMockControlPlane()
	client.groups["appsvc_rg_linux_centralus"] = true
	client.plans["appsvc_asp_linux_centralus"] = &azure.AppServicePlan{Kind: "app"}

	p := NewProvisioner(client, Defaults{}, zerolog.Nop())
	_, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp"})

	assert.ErrorIs(t, err, ErrPlanNotLinux)
	assert.NotContains(t, client.calls, "CreateOrUpdateSite")
	assert.NotContains(t, client.calls, "CreateOrUpdateAppServicePlan")
}

func TestProvision_ContainerFromRegistry(t *testing.T) {
	client := newMockControlPlane()
	p := NewProvisioner(client, Defaults{}, zerolog.Nop())

	image := &ContainerImage{
		Image:            "myapp:20240101120000",
		RegistryServer:   "myreg.azurecr.io",
		RegistryUsername: "myreg",
		RegistryPassword: "secret",
	}
	_, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp", Container: image})
	require.NoError(t, err)

	assert.Equal(t, "app,linux,container", client.createdSite.Kind)
	assert.Equal(t, "DOCKER|myreg.azurecr.io/myapp:20240101120000", client.createdSite.Properties.SiteConfig.LinuxFxVersion)

	assert.Equal(t, map[string]string{
		"DOCKER_REGISTRY_SERVER_URL":      "https://myreg.azurecr.io",
		"DOCKER_REGISTRY_SERVER_USERNAME": "myreg",
		"DOCKER_REGISTRY_SERVER_PASSWORD": "secret",
	}, client.settings)
	require.NotNil(t, client.siteConfig)
	assert.Equal(t, "DOCKER|myreg.azurecr.io/myapp:20240101120000", client.siteConfig.LinuxFxVersion)
}

func TestProvision_CustomImageSkipsRegistrySettings(t *testing.T) {
	client := newMockControlPlane()
	p := NewProvisioner(client, Defaults{}, zerolog.Nop())

	_, err := p.Provision(context.Background(), &ProvisionRequest{
		Name:      "myapp",
		Container: &ContainerImage{Image: "nginx:latest"},
	})
	require.NoError(t, err)

	assert.Equal(t, "DOCKER|nginx:latest", client.createdSite.Properties.SiteConfig.LinuxFxVersion)
	assert.NotContains(t, client.calls, "UpdateAppSettings")
	assert.NotContains(t, client.calls, "UpdateSiteConfig")
}

func TestProvision_DefaultGroupOverride(t *testing.T) {
	client := newMockControlPlane()
	p := NewProvisioner(client, Defaults{Group: "my-rg"}, zerolog.Nop())

	result, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, "my-rg", result.Summary.ResourceGroup)
}

func TestProvision_LookupErrorAborts(t *testing.T) {
	client := newMockControlPlane()
	client.getErr = errors.New("forbidden")
	p := NewProvisioner(client, Defaults{}, zerolog.Nop())

	_, err := p.Provision(context.Background(), &ProvisionRequest{Name: "myapp"})
	assert.Error(t, err)
	assert.Equal(t, []string{"GetResourceGroup"}, client.calls)
}

func TestProvision_RequiresName(t *testing.T) {
	p := NewProvisioner(newMockControlPlane(), Defaults{}, zerolog.Nop())
	_, err := p.Provision(context.Background(), &ProvisionRequest{DryRun: true})
	assert.Error(t, err)
}
