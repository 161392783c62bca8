package azure

import "strings"

// ResourceGroup is a resource-management resource group
type ResourceGroup struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location"`
}

// SkuDescription describes the pricing tier of a hosting plan
type SkuDescription struct {
	Name     string `json:"name"`
	Tier     string `json:"tier,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

// AppServicePlan is the billable compute tier backing one or more apps
type AppServicePlan struct {
	ID         string                   `json:"id,omitempty"`
	Name       string                   `json:"name,omitempty"`
	Location   string                   `json:"location"`
	Kind       string                   `json:"kind,omitempty"`
	Sku        *SkuDescription          `json:"sku,omitempty"`
	Properties AppServicePlanProperties `json:"properties"`
}

// AppServicePlanProperties holds hosting plan properties
type AppServicePlanProperties struct {
	// Reserved is true for Linux plans
	Reserved bool `json:"reserved"`
}

// IsLinux reports whether the plan hosts Linux workers
func (p *AppServicePlan) IsLinux() bool {
	return p.Properties.Reserved || strings.Contains(strings.ToLower(p.Kind), "linux")
}

// Site is a web app
type Site struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Location   string         `json:"location"`
	Kind       string         `json:"kind,omitempty"`
	Properties SiteProperties `json:"properties"`
}

// SiteProperties holds web app properties
type SiteProperties struct {
	ServerFarmID      string             `json:"serverFarmId,omitempty"`
	Reserved          bool               `json:"reserved"`
	State             string             `json:"state,omitempty"`
	DefaultHostName   string             `json:"defaultHostName,omitempty"`
	EnabledHostNames  []string           `json:"enabledHostNames,omitempty"`
	HostNameSslStates []HostNameSslState `json:"hostNameSslStates,omitempty"`
	SiteConfig        *SiteConfig        `json:"siteConfig,omitempty"`
}

// HostNameSslState describes one host name bound to a site
type HostNameSslState struct {
	Name     string `json:"name"`
	HostType string `json:"hostType"`
}

// IsLinux reports whether the site runs on a Linux plan
func (s *Site) IsLinux() bool {
	return s.Properties.Reserved
}

// SCMHost returns the repository (SCM) host name of the site, if the control plane reported one
func (s *Site) SCMHost() string {
	for _, state := range s.Properties.HostNameSslStates {
		if strings.EqualFold(state.HostType, "Repository") {
			return state.Name
		}
	}
	return ""
}

// URL returns the public URL of the site
func (s *Site) URL() string {
	if len(s.Properties.EnabledHostNames) > 0 {
		return "https://" + s.Properties.EnabledHostNames[0]
	}
	if s.Properties.DefaultHostName != "" {
		return "https://" + s.Properties.DefaultHostName
	}
	return ""
}

// SiteConfig holds the configuration of a web app
type SiteConfig struct {
	LinuxFxVersion         string          `json:"linuxFxVersion,omitempty"`
	RemoteDebuggingEnabled bool            `json:"remoteDebuggingEnabled"`
	AlwaysOn               bool            `json:"alwaysOn,omitempty"`
	AppSettings            []NameValuePair `json:"appSettings,omitempty"`
}

// NameValuePair is a single app setting
type NameValuePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PublishingCredentials are the basic-auth credentials of the SCM site.
// They are short-lived secrets and must never be persisted or logged.
type PublishingCredentials struct {
	Username string `json:"publishingUserName"`
	Password string `json:"publishingPassword"`
	SCMURI   string `json:"scmUri,omitempty"`
}

// RegistryCredentials are the admin credentials of a container registry
type RegistryCredentials struct {
	Username  string             `json:"username"`
	Passwords []RegistryPassword `json:"passwords"`
}

// RegistryPassword is one of the registry admin passwords
type RegistryPassword struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Password returns the first registry password
func (c *RegistryCredentials) Password() string {
	if len(c.Passwords) == 0 {
		return ""
	}
	return c.Passwords[0].Value
}

// envelope wraps ARM payloads that nest their data under "properties"
type envelope[T any] struct {
	Properties T `json:"properties"`
}
