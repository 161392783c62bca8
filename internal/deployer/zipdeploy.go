package deployer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/alvesdmateus/appsvc-deployer/internal/scm"
)

// ZipDeployer pushes archives to the zip-deployment endpoint of a web app
type ZipDeployer struct {
	sites      scm.SiteSource
	scmDomain  string
	poll       PollerConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ Deployer = (*ZipDeployer)(nil)

// ZipDeployerConfig contains configuration for the zip deployer
type ZipDeployerConfig struct {
	SCMDomain  string
	Poll       PollerConfig
	HTTPClient *http.Client
}

// NewZipDeployer creates a new zip deployer
func NewZipDeployer(sites scm.SiteSource, config ZipDeployerConfig, logger zerolog.Logger) *ZipDeployer {
	return &ZipDeployer{
		sites:      sites,
		scmDomain:  config.SCMDomain,
		poll:       config.Poll,
		httpClient: config.HTTPClient,
		logger:     logger.With().Str("component", "zip-deployer").Logger(),
	}
}

// Deploy uploads the request source and polls the deployment status
func (d *ZipDeployer) Deploy(ctx context.Context, req *DeployRequest) (*Result, error) {
	d.logger.Info().
		Str("app", req.AppName).
		Str("slot", req.Slot).
		Str("source", req.Source).
		Msg("Starting zip deployment")

	client, _, err := scm.Connect(ctx, d.sites, req.Target(), d.scmDomain, scm.WithHTTPClient(d.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to reach scm site: %w", err)
	}

	archive, cleanup, err := OpenSource(req.Source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	code, err := client.ZipDeploy(ctx, archive)
	if err != nil {
		return nil, fmt.Errorf("failed to upload archive: %w", err)
	}

	d.logger.Debug().Int("statusCode", code).Msg("Zip upload accepted")

	first, err := client.LatestDeploymentRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deployment status: %w", err)
	}

	poller := NewPoller(client, d.poll, d.logger)
	result, err := poller.Wait(ctx, client.DeploymentStatusURL(), first)
	if err != nil {
		return nil, err
	}

	d.logger.Info().
		Str("app", req.AppName).
		Str("outcome", string(result.Outcome)).
		Int("attempts", result.Attempts).
		Dur("duration", result.Duration).
		Msg("Zip deployment finished")

	return result, nil
}
