package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the CLI
type Config struct {
	Log      LogConfig
	Azure    AzureConfig
	Defaults DefaultsConfig
	Deploy   DeployConfig
	Tunnel   TunnelConfig
	Registry RegistryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // console or json
}

// AzureConfig holds control plane settings
type AzureConfig struct {
	SubscriptionID string
	ManagementURL  string
	APIVersion     string
	AccessToken    string // skips the az CLI token lookup when set
	SCMDomain      string
	RequestTimeout time.Duration
}

// DefaultsConfig holds the provisioning defaults
type DefaultsConfig struct {
	Group        string
	Location     string
	LocationName string
	SKU          string
}

// DeployConfig holds zip deployment settings
type DeployConfig struct {
	PollInterval time.Duration
	PollRetries  int
}

// TunnelConfig holds remote connection settings
type TunnelConfig struct {
	WaitInterval      time.Duration
	KeepAliveInterval time.Duration
	IdleTimeout       time.Duration
}

// RegistryConfig holds container registry settings
type RegistryConfig struct {
	Domain       string
	BuildTimeout time.Duration
}

// Load loads configuration from environment variables and config files.
// An explicit path takes precedence over the search paths.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.appsvc")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// APPSVC_DEPLOY_POLL_INTERVAL overrides deploy.poll_interval
	v.SetEnvPrefix("appsvc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Azure: AzureConfig{
			SubscriptionID: v.GetString("azure.subscription_id"),
			ManagementURL:  v.GetString("azure.management_url"),
			APIVersion:     v.GetString("azure.api_version"),
			AccessToken:    v.GetString("azure.access_token"),
			SCMDomain:      v.GetString("azure.scm_domain"),
			RequestTimeout: v.GetDuration("azure.request_timeout"),
		},
		Defaults: DefaultsConfig{
			Group:        v.GetString("defaults.group"),
			Location:     v.GetString("defaults.location"),
			LocationName: v.GetString("defaults.location_name"),
			SKU:          v.GetString("defaults.sku"),
		},
		Deploy: DeployConfig{
			PollInterval: v.GetDuration("deploy.poll_interval"),
			PollRetries:  v.GetInt("deploy.poll_retries"),
		},
		Tunnel: TunnelConfig{
			WaitInterval:      v.GetDuration("tunnel.wait_interval"),
			KeepAliveInterval: v.GetDuration("tunnel.keepalive_interval"),
			IdleTimeout:       v.GetDuration("tunnel.idle_timeout"),
		},
		Registry: RegistryConfig{
			Domain:       v.GetString("registry.domain"),
			BuildTimeout: v.GetDuration("registry.build_timeout"),
		},
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// Azure defaults
	v.SetDefault("azure.subscription_id", "")
	v.SetDefault("azure.management_url", "https://management.azure.com")
	v.SetDefault("azure.api_version", "2022-03-01")
	v.SetDefault("azure.access_token", "")
	v.SetDefault("azure.scm_domain", "scm.azurewebsites.net")
	v.SetDefault("azure.request_timeout", 2*time.Minute)

	// Provisioning defaults
	v.SetDefault("defaults.group", "")
	v.SetDefault("defaults.location", "Central US")
	v.SetDefault("defaults.location_name", "centralus")
	v.SetDefault("defaults.sku", "P1V2")

	// Deploy defaults
	v.SetDefault("deploy.poll_interval", 15*time.Second)
	v.SetDefault("deploy.poll_retries", 9)

	// Tunnel defaults
	v.SetDefault("tunnel.wait_interval", 1*time.Second)
	v.SetDefault("tunnel.keepalive_interval", 5*time.Second)
	v.SetDefault("tunnel.idle_timeout", 1*time.Hour)

	// Registry defaults
	v.SetDefault("registry.domain", "azurecr.io")
	v.SetDefault("registry.build_timeout", 30*time.Minute)
}
