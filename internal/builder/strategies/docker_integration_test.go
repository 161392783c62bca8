//go:build integration

package strategies

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types/image"

	"github.com/alvesdmateus/appsvc-deployer/internal/builder/buildtypes"
)

func TestDockerStrategy_BuildNodeJS(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("SKIP_BUILDER_TESTS") == "true" {
		t.Skip("Builder tests are disabled")
	}

	strategy, err := NewDockerStrategy()
	if err != nil {
		t.Skipf("Docker client unavailable: %v", err)
	}
	defer strategy.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := strategy.verifyDockerAccess(ctx); err != nil {
		t.Skipf("Docker is not available, skipping test: %v", err)
	}

	tempDir := t.TempDir()

	packageJSON := `{
	"name": "test-nodejs-app",
	"version": "1.0.0",
	"main": "index.js",
	"scripts": {
		"start": "node index.js"
	}
}`
	if err := os.WriteFile(filepath.Join(tempDir, "package.json"), []byte(packageJSON), 0644); err != nil {
		t.Fatalf("Failed to create package.json: %v", err)
	}

	indexJS := `require('http').createServer((req, res) => res.end('ok')).listen(process.env.PORT || 8080);
`
	if err := os.WriteFile(filepath.Join(tempDir, "index.js"), []byte(indexJS), 0644); err != nil {
		t.Fatalf("Failed to create index.js: %v", err)
	}

	dockerfile := `FROM node:18-alpine
WORKDIR /app
COPY . .
EXPOSE 8080
CMD ["node", "index.js"]
`
	if err := os.WriteFile(filepath.Join(tempDir, "Dockerfile"), []byte(dockerfile), 0644); err != nil {
		t.Fatalf("Failed to create Dockerfile: %v", err)
	}

	imageName := "appsvc-test-nodejs:integration-test"
	result, err := strategy.Build(ctx, &buildtypes.BuildContext{
		SourcePath: tempDir,
		ImageName:  imageName,
	})
	if err != nil {
		t.Fatalf("Docker build failed: %v\nOutput: %s", err, result.BuildLog)
	}

	if result.ImageDigest == "" {
		t.Error("Expected the image id in the build output")
	}

	if cli, ok := strategy.client.(interface {
		ImageRemove(ctx context.Context, image string, options image.RemoveOptions) ([]image.DeleteResponse, error)
	}); ok {
		_, _ = cli.ImageRemove(context.Background(), imageName, image.RemoveOptions{Force: true})
	}

	t.Logf("Docker build succeeded in %v", result.BuildDuration)
}
