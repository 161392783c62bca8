package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
	"github.com/alvesdmateus/appsvc-deployer/pkg/config"
)

// ErrCommandFailed is returned when a command already logged why it failed
var ErrCommandFailed = errors.New("command failed")

// app holds what every command needs. It is built once in the root command's
// PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	out    io.Writer

	client *azure.Client
}

// controlPlane returns the control plane client, creating it on first use so
// dry runs never need credentials
func (a *app) controlPlane(ctx context.Context) (*azure.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	subscription := a.cfg.Azure.SubscriptionID
	if subscription == "" {
		id, err := azure.DefaultSubscription(ctx)
		if err != nil {
			return nil, err
		}
		subscription = id
	}

	var tokens azure.TokenSource = azure.NewCLITokenSource()
	if a.cfg.Azure.AccessToken != "" {
		tokens = azure.StaticToken(a.cfg.Azure.AccessToken)
	}

	client, err := azure.NewClient(azure.Options{
		BaseURL:        a.cfg.Azure.ManagementURL,
		SubscriptionID: subscription,
		WebAPIVersion:  a.cfg.Azure.APIVersion,
		Timeout:        a.cfg.Azure.RequestTimeout,
		Tokens:         tokens,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create control plane client: %w", err)
	}

	a.client = client
	return client, nil
}

// NewRootCmd creates the appsvc command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	var (
		configFile   string
		logLevel     string
		subscription string
	)

	rootCmd := &cobra.Command{
		Use:   "appsvc",
		Short: "appsvc - Create, deploy and connect to App Service web apps",
		Long: `appsvc provisions App Service web apps and deploys to them.

Core Flow:
  Source → Resource group → App service plan → Web app → Zip or container deployment`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("subscription") {
				cfg.Azure.SubscriptionID = subscription
			}

			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
			log.Logger = a.logger

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml or $HOME/.appsvc/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&subscription, "subscription", "", "subscription id (default: the az CLI default)")

	rootCmd.AddCommand(newWebappCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrCommandFailed) {
			log.Error().Err(err).Msg("Command failed")
		}
		stop()
		os.Exit(1)
	}
}

// newLogger creates the process logger writing to w
func newLogger(w io.Writer, cfg config.LogConfig) zerolog.Logger {
	setLogLevel(cfg.Level)

	if cfg.Format == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
