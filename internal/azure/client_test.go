package azure

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL:        server.URL,
		SubscriptionID: "sub-1",
		Tokens:         StaticToken("token-1"),
	}, zerolog.Nop())
	require.NoError(t, err)

	return client
}

func TestNewClient_RequiresSubscription(t *testing.T) {
	_, err := NewClient(Options{Tokens: StaticToken("t")}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestGetResourceGroup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/subscriptions/sub-1/resourceGroups/rg1", r.URL.Path)
		assert.Equal(t, resourcesAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("x-ms-client-request-id"))

		_, _ = io.WriteString(w, `{"name":"rg1","location":"centralus"}`)
	})

	group, err := client.GetResourceGroup(context.Background(), "rg1")
	require.NoError(t, err)
	assert.Equal(t, "rg1", group.Name)
	assert.Equal(t, "centralus", group.Location)
}

func TestGetResourceGroup_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"ResourceGroupNotFound","message":"Resource group 'rg1' could not be found."}}`)
	})

	_, err := client.GetResourceGroup(context.Background(), "rg1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "ResourceGroupNotFound")
}

func TestCreateOrUpdateAppServicePlan(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/subscriptions/sub-1/resourceGroups/rg1/providers/Microsoft.Web/serverfarms/plan1", r.URL.Path)

		var plan AppServicePlan
		require.NoError(t, json.NewDecoder(r.Body).Decode(&plan))
		assert.True(t, plan.Properties.Reserved)
		assert.Equal(t, "P1V2", plan.Sku.Name)

		w.WriteHeader(http.StatusCreated)
	})

	plan := &AppServicePlan{
		Location:   "centralus",
		Kind:       "linux",
		Sku:        &SkuDescription{Name: "P1V2", Tier: "Premium_V2", Capacity: 1},
		Properties: AppServicePlanProperties{Reserved: true},
	}

	_, err := client.CreateOrUpdateAppServicePlan(context.Background(), "rg1", "plan1", plan)
	require.NoError(t, err)
}

func TestListPublishingCredentials_Slot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/subscriptions/sub-1/resourceGroups/rg1/providers/Microsoft.Web/sites/app1/slots/staging/config/publishingcredentials/list", r.URL.Path)

		_, _ = io.WriteString(w, `{"properties":{"publishingUserName":"$app1__staging","publishingPassword":"secret"}}`)
	})

	creds, err := client.ListPublishingCredentials(context.Background(), "rg1", "app1", "staging")
	require.NoError(t, err)
	assert.Equal(t, "$app1__staging", creds.Username)
	assert.Equal(t, "secret", creds.Password)
}

func TestUpdateAppSettings_Merges(t *testing.T) {
	var stored map[string]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subscriptions/sub-1/resourceGroups/rg1/providers/Microsoft.Web/sites/app1/config/appsettings/list":
			_, _ = io.WriteString(w, `{"properties":{"EXISTING":"1"}}`)
		case "/subscriptions/sub-1/resourceGroups/rg1/providers/Microsoft.Web/sites/app1/config/appsettings":
			var body struct {
				Properties map[string]string `json:"properties"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			stored = body.Properties
			_, _ = io.WriteString(w, `{}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	err := client.UpdateAppSettings(context.Background(), "rg1", "app1", "", map[string]string{"NEW": "2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"EXISTING": "1", "NEW": "2"}, stored)
}

func TestListRegistryCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, registryAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "/subscriptions/sub-1/resourceGroups/reg-rg/providers/Microsoft.ContainerRegistry/registries/myreg/listCredentials", r.URL.Path)

		_, _ = io.WriteString(w, `{"username":"myreg","passwords":[{"name":"password","value":"p1"},{"name":"password2","value":"p2"}]}`)
	})

	creds, err := client.ListRegistryCredentials(context.Background(), "reg-rg", "myreg")
	require.NoError(t, err)
	assert.Equal(t, "myreg", creds.Username)
	assert.Equal(t, "p1", creds.Password())
}

func TestSiteHelpers(t *testing.T) {
	site := &Site{
		Properties: SiteProperties{
			Reserved:         true,
			EnabledHostNames: []string{"app1.azurewebsites.net", "app1.scm.azurewebsites.net"},
			HostNameSslStates: []HostNameSslState{
				{Name: "app1.azurewebsites.net", HostType: "Standard"},
				{Name: "app1.scm.azurewebsites.net", HostType: "Repository"},
			},
		},
	}

	assert.True(t, site.IsLinux())
	assert.Equal(t, "app1.scm.azurewebsites.net", site.SCMHost())
	assert.Equal(t, "https://app1.azurewebsites.net", site.URL())
}
