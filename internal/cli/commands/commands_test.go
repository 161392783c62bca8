package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/alvesdmateus/appsvc-deployer/internal/deployer"
)

const myappSummary = `{
	"name":          "myapp",
	"serverfarm":    "appsvc_asp_linux_centralus",
	"resourcegroup": "appsvc_rg_linux_centralus",
	"sku":           "Premium_V2",
	"location":      "Central US"
}`

// fakeManagement serves canned control plane responses keyed by
// "METHOD path-suffix" and records every request
type fakeManagement struct {
	mu        sync.Mutex
	responses map[string]string
	requests  []string
}

func newFakeManagement(t *testing.T, responses map[string]string) *fakeManagement {
	t.Helper()

	f := &fakeManagement{responses: responses}
	server := httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(server.Close)

	t.Setenv("APPSVC_AZURE_MANAGEMENT_URL", server.URL)
	t.Setenv("APPSVC_AZURE_ACCESS_TOKEN", "token")
	t.Setenv("APPSVC_AZURE_SUBSCRIPTION_ID", "sub-1")

	return f
}

func (f *fakeManagement) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	for key, body := range f.responses {
		method, suffix, _ := strings.Cut(key, " ")
		if r.Method == method && strings.HasSuffix(r.URL.Path, suffix) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"code":"ResourceNotFound","message":"not found"}}`))
}

func (f *fakeManagement) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestQuickstart_DryRunJSON(t *testing.T) {
	management := newFakeManagement(t, nil)

	stdout, stderr, err := execute(t, "webapp", "quickstart", "--name", "myapp", "--dryrun")
	require.NoError(t, err)

	assert.JSONEq(t, myappSummary, stdout)
	assert.Contains(t, stderr, "re-run command without the --dryrun flag")
	assert.Empty(t, management.calls(), "dry run must not reach the control plane")
}

func TestQuickstart_DryRunYAML(t *testing.T) {
	stdout, _, err := execute(t, "webapp", "quickstart", "--name", "myapp", "--dryrun", "--output", "yaml")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, map[string]string{
		"name":          "myapp",
		"serverfarm":    "appsvc_asp_linux_centralus",
		"resourcegroup": "appsvc_rg_linux_centralus",
		"sku":           "Premium_V2",
		"location":      "Central US",
	}, got)
}

func TestQuickstart_DefaultGroupFromEnvironment(t *testing.T) {
	t.Setenv("APPSVC_DEFAULTS_GROUP", "team-rg")

	stdout, _, err := execute(t, "webapp", "quickstart", "--name", "myapp", "--dryrun")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"resourcegroup": "team-rg"`)
}

func TestQuickstart_UnknownOutput(t *testing.T) {
	_, _, err := execute(t, "webapp", "quickstart", "--name", "myapp", "--dryrun", "--output", "table")

	var unknown ErrUnknownOutput
	assert.ErrorAs(t, err, &unknown)
}

func TestQuickstart_RequiresName(t *testing.T) {
	_, _, err := execute(t, "webapp", "quickstart", "--dryrun")
	assert.ErrorContains(t, err, "name")
}

func TestQuickstart_PlanNotLinuxStopsQuietly(t *testing.T) {
	management := newFakeManagement(t, map[string]string{
		"GET /resourceGroups/appsvc_rg_linux_centralus":                       `{"name":"appsvc_rg_linux_centralus","location":"centralus"}`,
		"GET /providers/Microsoft.Web/serverfarms/appsvc_asp_linux_centralus": `{"name":"appsvc_asp_linux_centralus","kind":"app","location":"centralus","properties":{"reserved":false}}`,
	})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"web"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.js"), []byte(`console.log("hi")`), 0o644))

	stdout, stderr, err := execute(t, "webapp", "quickstart", "--name", "myapp", "--source", dir)
	require.NoError(t, err)

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "not a linux plan")
	for _, call := range management.calls() {
		assert.NotContains(t, call, "/sites/", "no app may be created on a windows plan")
	}
}

func TestQuickstart_UnsupportedSource(t *testing.T) {
	management := newFakeManagement(t, nil)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.bin"), []byte{0x1}, 0o644))

	_, _, err := execute(t, "webapp", "quickstart", "--name", "myapp", "--source", dir)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Empty(t, management.calls())
}

func TestContainerUp_RequiresRegistry(t *testing.T) {
	_, _, err := execute(t, "webapp", "container", "up", "--name", "myapp")
	assert.ErrorContains(t, err, "--registry-name")
}

func TestContainerUp_DryRun(t *testing.T) {
	management := newFakeManagement(t, nil)

	stdout, _, err := execute(t, "webapp", "container", "up", "--name", "myapp", "--docker-custom-image-name", "nginx:latest", "--dryrun")
	require.NoError(t, err)

	assert.JSONEq(t, myappSummary, stdout)
	assert.Empty(t, management.calls())
}

func TestContainerUp_CustomImage(t *testing.T) {
	management := newFakeManagement(t, map[string]string{
		"GET /resourceGroups/appsvc_rg_linux_centralus":                       `{"name":"appsvc_rg_linux_centralus","location":"centralus"}`,
		"GET /providers/Microsoft.Web/serverfarms/appsvc_asp_linux_centralus": `{"name":"appsvc_asp_linux_centralus","kind":"linux","location":"centralus","properties":{"reserved":true}}`,
		"PUT /providers/Microsoft.Web/sites/myapp":                            `{"name":"myapp","kind":"app,linux,container","properties":{"reserved":true}}`,
	})

	stdout, _, err := execute(t, "webapp", "container", "up", "--name", "myapp", "--docker-custom-image-name", "nginx:latest")
	require.NoError(t, err)

	assert.JSONEq(t, myappSummary, stdout)

	calls := management.calls()
	require.NotEmpty(t, calls)
	assert.True(t, strings.HasPrefix(calls[len(calls)-1], "PUT "), "the app is created last, got %v", calls)
	for _, call := range calls {
		assert.NotContains(t, call, "/config/appsettings", "custom images need no registry settings")
	}
}

func TestDeploymentZip_RequiresFlags(t *testing.T) {
	_, _, err := execute(t, "webapp", "deployment", "zip", "--name", "myapp")
	assert.ErrorContains(t, err, "resource-group")
}

func TestRemoteConnection_WindowsAppStopsQuietly(t *testing.T) {
	newFakeManagement(t, map[string]string{
		"GET /providers/Microsoft.Web/sites/myapp":                                    `{"name":"myapp","kind":"app","properties":{"reserved":false}}`,
		"POST /providers/Microsoft.Web/sites/myapp/config/publishingcredentials/list": `{"properties":{"publishingUserName":"$myapp","publishingPassword":"secret"}}`,
	})

	_, stderr, err := execute(t, "webapp", "remote-connection", "create", "-g", "myrg", "-n", "myapp")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Only Linux App Service Plans supported")
}

func TestDeploymentError(t *testing.T) {
	err := deploymentError(&deployer.Result{Outcome: deployer.OutcomeFailed})
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.ErrorIs(t, err, deployer.ErrDeploymentFailed)

	assert.NoError(t, deploymentError(&deployer.Result{Outcome: deployer.OutcomeSucceeded}))
	assert.NoError(t, deploymentError(&deployer.Result{Outcome: deployer.OutcomeInconclusive}))
	assert.NoError(t, deploymentError(&deployer.Result{Outcome: deployer.OutcomeUnparseable}))
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputYAML, map[string]int{"status": 4}))
	assert.Equal(t, "status: 4\n", buf.String())

	assert.Error(t, writeOutput(&buf, "xml", nil))
}
