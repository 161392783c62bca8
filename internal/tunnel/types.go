package tunnel

import (
	"context"
	"errors"
	"time"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
)

const (
	// DefaultWaitInterval is the sleep between readiness probes
	DefaultWaitInterval = time.Second

	// DefaultKeepaliveInterval is how often the foreground loop wakes up
	DefaultKeepaliveInterval = 5 * time.Second

	// DefaultIdleTimeout closes client connections with no traffic
	DefaultIdleTimeout = time.Hour

	// defaultSSHPort is reported by the tunnel endpoint while the container
	// still listens on its default SSH port
	defaultSSHPort = "2222"
)

// ErrNotLinux is returned when the target web app is not a Linux app
var ErrNotLinux = errors.New("remote connection is only supported for linux web apps")

// State is the lifecycle state of a tunnel session
type State string

const (
	StateWaiting   State = "waiting"
	StateConnected State = "connected"
)

// SiteSource is the subset of the control plane the bootstrap needs
type SiteSource interface {
	GetSite(ctx context.Context, resourceGroup, name, slot string) (*azure.Site, error)
	GetSiteConfig(ctx context.Context, resourceGroup, name, slot string) (*azure.SiteConfig, error)
	ListPublishingCredentials(ctx context.Context, resourceGroup, name, slot string) (*azure.PublishingCredentials, error)
}

// Config contains configuration for a tunnel session
type Config struct {
	ResourceGroup     string
	Name              string
	Slot              string
	Port              int
	SCMDomain         string
	WaitInterval      time.Duration
	KeepaliveInterval time.Duration
	IdleTimeout       time.Duration
}

func (c *Config) setDefaults() {
	if c.WaitInterval <= 0 {
		c.WaitInterval = DefaultWaitInterval
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
}
