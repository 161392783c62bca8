package deployer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/alvesdmateus/appsvc-deployer/internal/scm"
)

const (
	// DefaultPollInterval is the fixed wait between status fetches
	DefaultPollInterval = 15 * time.Second

	// DefaultPollRetries is the number of fetches after the first observation
	DefaultPollRetries = 9
)

// StatusFetcher returns the raw body of the latest-deployment endpoint
type StatusFetcher interface {
	LatestDeploymentRaw(ctx context.Context) ([]byte, error)
}

// PollerConfig contains configuration for the status poller. Zero values are
// taken literally: a zero Interval polls without waiting and zero Retries stops
// after the first observation. Negative values select the defaults.
type PollerConfig struct {
	Interval time.Duration
	Retries  int
}

// Poller polls the deployment status endpoint until a terminal status or the
// retry budget is spent
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	retries  int
	sleep    func(ctx context.Context, d time.Duration) error
	logger   zerolog.Logger
}

// NewPoller creates a new status poller
func NewPoller(fetcher StatusFetcher, config PollerConfig, logger zerolog.Logger) *Poller {
	interval := config.Interval
	if interval < 0 {
		interval = DefaultPollInterval
	}

	retries := config.Retries
	if retries < 0 {
		retries = DefaultPollRetries
	}

	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		retries:  retries,
		sleep:    sleepContext,
		logger:   logger.With().Str("component", "status-poller").Logger(),
	}
}

// Wait evaluates the first status body and keeps fetching until the deployment
// succeeds, fails, or the budget is exhausted. It only returns an error when
// ctx is cancelled.
func (p *Poller) Wait(ctx context.Context, statusURL string, first []byte) (*Result, error) {
	started := time.Now()
	result := &Result{StatusURL: statusURL, Attempts: 1}

	status, err := scm.ParseDeploymentStatus(first)
	if err != nil {
		p.logger.Warn().
			Str("statusURL", statusURL).
			Msgf("Unable to fetch status of deployment. Please check status manually using link '%s'", statusURL)
		result.Outcome = OutcomeUnparseable
		result.Duration = time.Since(started)
		return result, nil
	}
	result.Status = status

	if outcome, done := p.evaluate(status); done {
		result.Outcome = outcome
		result.Duration = time.Since(started)
		return result, nil
	}

	if status.Progress != nil {
		p.logger.Debug().Msg(*status.Progress)
	}

	for i := 0; i < p.retries; i++ {
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}

		body, err := p.fetcher.LatestDeploymentRaw(ctx)
		result.Attempts++
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn().Err(err).Int("attempt", result.Attempts).Msg("Deployment status fetch failed")
			continue
		}

		next, err := scm.ParseDeploymentStatus(body)
		if err != nil {
			p.logger.Debug().Err(err).Int("attempt", result.Attempts).Msg("Ignoring unparseable deployment status")
			continue
		}
		result.Status = next

		if outcome, done := p.evaluate(next); done {
			result.Outcome = outcome
			result.Duration = time.Since(started)
			return result, nil
		}

		if next.Progress != nil {
			// Progress text is noisy, keep it at debug
			p.logger.Debug().Int("attempt", result.Attempts).Msg(*next.Progress)
		}
	}

	p.logger.Warn().
		Str("statusURL", statusURL).
		Int("attempts", result.Attempts).
		Msgf("Deployment is taking longer than expected. Please verify status at '%s' before launching the app", statusURL)

	result.Outcome = OutcomeInconclusive
	result.Duration = time.Since(started)
	return result, nil
}

// evaluate maps a terminal status to its outcome
func (p *Poller) evaluate(status *scm.DeploymentStatus) (Outcome, bool) {
	if !status.Status.Terminal() {
		return "", false
	}
	if status.Status == scm.StatusFailed {
		p.logger.Warn().
			Str("deploymentID", status.ID).
			Msgf("Zip deployment failed status %s", status.StatusText)
		return OutcomeFailed, true
	}
	return OutcomeSucceeded, true
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
