package scm

import (
	"context"
	"fmt"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
)

// SiteSource is the part of the control plane needed to reach an app's SCM site
type SiteSource interface {
	GetSite(ctx context.Context, resourceGroup, name, slot string) (*azure.Site, error)
	ListPublishingCredentials(ctx context.Context, resourceGroup, name, slot string) (*azure.PublishingCredentials, error)
}

// Target identifies a web app or one of its slots
type Target struct {
	ResourceGroup string
	Name          string
	Slot          string
}

// HostName returns the app host label, "name" or "name-slot"
func (t Target) HostName() string {
	if t.Slot == "" {
		return t.Name
	}
	return t.Name + "-" + t.Slot
}

// Connect looks up the site and its publishing credentials and returns an SCM
// client for it. scmDomain is used when the site does not report a repository host.
func Connect(ctx context.Context, src SiteSource, target Target, scmDomain string, opts ...Option) (*Client, *azure.Site, error) {
	site, err := src.GetSite(ctx, target.ResourceGroup, target.Name, target.Slot)
	if err != nil {
		return nil, nil, err
	}

	creds, err := src.ListPublishingCredentials(ctx, target.ResourceGroup, target.Name, target.Slot)
	if err != nil {
		return nil, nil, err
	}

	host := site.SCMHost()
	if host == "" {
		host = fmt.Sprintf("%s.%s", target.HostName(), scmDomain)
	}

	client, err := New(host, Credentials{Username: creds.Username, Password: creds.Password}, opts...)
	if err != nil {
		return nil, nil, err
	}

	return client, site, nil
}
