// Package commands implements the licence-admin command line.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaborage/licence-admin/apiclient"
	"github.com/gaborage/licence-admin/applications"
	"github.com/gaborage/licence-admin/config"
	"github.com/gaborage/licence-admin/logger"
	"github.com/gaborage/licence-admin/observability"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// Options holds settings shared by every command
type Options struct {
	ConfigFile string
	// Environ replaces os.Environ when loading configuration
	Environ func() []string
}

// session is what a command needs to talk to the backend
type session struct {
	cfg      *config.Config
	log      logger.Logger
	provider observability.Provider
	service  *applications.Service
}

// NewRootCommand creates the licence-admin command tree
func NewRootCommand(version string, opts *Options) *cobra.Command {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}

	rootCmd := &cobra.Command{
		Use:   "licence-admin",
		Short: "Administer driving-licence applications",
		Long: `Command line for the driving-licence applications backend.

Lists and searches applications, shows the status counters and edits
individual applications. The backend address comes from api.baseurl in
config.yaml or the API_BASEURL environment variable.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (default ./config.yaml when present)")

	rootCmd.AddCommand(
		NewListCommand(opts),
		NewStatsCommand(opts),
		NewDashboardCommand(opts),
		NewUpdateCommand(opts),
		NewVersionCommand(version),
	)
	return rootCmd
}

// openSession loads configuration and wires logging, telemetry and the
// applications service. Logs and telemetry go to stderr so stdout carries
// only command output.
func openSession(opts *Options, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(config.WithFile(opts.ConfigFile), config.WithEnviron(opts.Environ))
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(stderr, cfg.Log.Level, cfg.Log.Pretty)

	provider, err := observability.NewProvider(cfg.Observability, cfg.App,
		observability.WithWriter(stderr),
		observability.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	client, err := apiclient.NewFromConfig(&cfg.API, log)
	if err != nil {
		_ = observability.Shutdown(provider, cfg.Server.Timeout.Shutdown)
		return nil, err
	}

	return &session{
		cfg:      cfg,
		log:      log,
		provider: provider,
		service:  applications.NewService(client, log),
	}, nil
}

func (s *session) Close() {
	if err := observability.Shutdown(s.provider, s.cfg.Server.Timeout.Shutdown); err != nil {
		s.log.Warn().Err(err).Msg("Failed to flush telemetry")
	}
}

func validateOutput(output string) error {
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("unsupported output %q (use %s or %s)", output, outputTable, outputJSON)
	}
	return nil
}
