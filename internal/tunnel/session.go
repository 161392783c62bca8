package tunnel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/alvesdmateus/appsvc-deployer/internal/scm"
)

// Session opens a local tunnel to the SSH or remote-debug port of a Linux web app
type Session struct {
	sites      SiteSource
	config     Config
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     zerolog.Logger

	mu        sync.RWMutex
	state     State
	listening chan string
}

// Option customises session instantiation
type Option func(*Session)

// WithHTTPClient overrides the HTTP client used against the SCM site
func WithHTTPClient(h *http.Client) Option {
	return func(s *Session) {
		s.httpClient = h
	}
}

// WithDialer overrides the websocket dialer used for the tunnel
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

// NewSession creates a new tunnel session
func NewSession(sites SiteSource, config Config, logger zerolog.Logger, opts ...Option) *Session {
	config.setDefaults()

	s := &Session{
		sites:     sites,
		config:    config,
		state:     StateWaiting,
		listening: make(chan string, 1),
		logger:    logger.With().Str("component", "tunnel").Str("app", config.Name).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current session state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Listening delivers the local address once the tunnel server is bound
func (s *Session) Listening() <-chan string {
	return s.listening
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run checks the app, waits for the tunnel endpoint and serves local
// connections until ctx is cancelled. Waiting for readiness has no time bound.
func (s *Session) Run(ctx context.Context) error {
	target := scm.Target{ResourceGroup: s.config.ResourceGroup, Name: s.config.Name, Slot: s.config.Slot}

	client, site, err := scm.Connect(ctx, s.sites, target, s.config.SCMDomain, scm.WithHTTPClient(s.httpClient))
	if err != nil {
		return fmt.Errorf("failed to reach scm site: %w", err)
	}

	if !site.IsLinux() {
		s.logger.Error().Msg("Only Linux App Service Plans supported, Found a Windows App Service Plan")
		return ErrNotLinux
	}

	if s.config.Port == 0 {
		s.logger.Info().Msg("No port defined, creating on random free port")
	}

	siteConfig, err := s.sites.GetSiteConfig(ctx, s.config.ResourceGroup, s.config.Name, s.config.Slot)
	if err != nil {
		return fmt.Errorf("failed to get site config: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("SCM ping failed")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.start(ctx, client, siteConfig.RemoteDebuggingEnabled)
	}()

	ticker := time.NewTicker(s.config.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := <-errCh; err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		case err := <-errCh:
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		case <-ticker.C:
			s.logger.Debug().Str("state", string(s.State())).Msg("Tunnel alive")
		}
	}
}

// start waits for readiness and serves the tunnel
func (s *Session) start(ctx context.Context, client *scm.Client, remoteDebugging bool) error {
	if err := s.waitUntilReady(ctx, client, remoteDebugging); err != nil {
		return err
	}

	if !remoteDebugging {
		s.logger.Warn().Msg("SSH is available { username: root, password: Docker! }")
	}

	server, err := NewServer(ServerConfig{
		Port:        s.config.Port,
		RemoteURL:   client.TunnelURL(),
		Header:      client.AuthHeader(),
		Dialer:      s.dialer,
		IdleTimeout: s.config.IdleTimeout,
	}, s.logger)
	if err != nil {
		return err
	}

	s.setState(StateConnected)
	s.logger.Warn().Msgf("Opening tunnel on port: %d", server.Port())
	s.listening <- server.Addr()

	return server.Serve(ctx)
}

func (s *Session) waitUntilReady(ctx context.Context, prober StatusProber, remoteDebugging bool) error {
	ready, err := s.probe(ctx, prober, remoteDebugging)
	if err != nil {
		return err
	}
	if ready {
		return nil
	}

	s.logger.Warn().Msg("Tunnel is not ready yet, please wait (may take up to 1 minute)")

	timer := time.NewTimer(s.config.WaitInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		s.logger.Warn().Msg(".")

		ready, err := s.probe(ctx, prober, remoteDebugging)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		timer.Reset(s.config.WaitInterval)
	}
}

// probe reports readiness. Failed status checks count as not ready, except
// rejected credentials which no amount of waiting fixes.
func (s *Session) probe(ctx context.Context, prober StatusProber, remoteDebugging bool) (bool, error) {
	portIsDefault, err := PortIsDefault(ctx, prober, s.logger)
	if err != nil {
		var statusErr *scm.StatusError
		if errors.As(err, &statusErr) && statusErr.Unauthorized() {
			return false, fmt.Errorf("failed to check tunnel status: %w", err)
		}
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("Tunnel status check failed")
		}
		return false, nil
	}
	return Ready(portIsDefault, remoteDebugging), nil
}
