// Package cli provides the sorta command line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/config"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
	"github.com/custodia-labs/sorta/internal/logger"
)

// version is set at build time.
var version = "dev"

// SetVersion sets the version reported by `sorta version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Services holds the driving ports the commands operate on.
type Services struct {
	Organiser  driving.OrganiserService
	Classify   driving.ClassifyService
	Cascade    driving.CascadeService
	Relocation driving.RelocationService
	Watch      driving.WatchService
	Browse     driving.BrowseService
	History    driving.HistoryService
	Credential driving.CredentialService

	// Background runs long-lived workers such as the retry queue. Optional.
	Background func(ctx context.Context)

	Config *config.Config
	Close  func() error
}

// BootOptions are the global flags relevant to wiring.
type BootOptions struct {
	ConfigPath string
	Ephemeral  bool
	Verbose    bool
}

// Bootstrap builds the services for one invocation.
type Bootstrap func(opts BootOptions) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	flagConfig    string
	flagVerbose   bool
	flagEphemeral bool
)

// SetBootstrap registers the wiring function used before each command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "sorta",
	Short: "Sort downloaded course files into folders",
	Long: `sorta watches a downloads folder, classifies each new file into one of
your course folders with an AI model, and moves it there. Every move is
recorded and can be undone, and every correction you make teaches the
classifier.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.sorta/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "use an in-memory ledger")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// skipsServices lists commands, by path, that run without wiring.
var skipsServices = map[string]bool{
	"sorta version":     true,
	"sorta help":        true,
	"sorta config init": true,
	"sorta config show": true,
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)
	if services != nil || skipsServices[cmd.CommandPath()] {
		return nil
	}
	if bootstrap == nil {
		return errors.New("services not configured")
	}
	s, err := bootstrap(BootOptions{ConfigPath: flagConfig, Ephemeral: flagEphemeral, Verbose: flagVerbose})
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	services = s
	return nil
}

func teardown() error {
	if services == nil || services.Close == nil {
		return nil
	}
	err := services.Close()
	services = nil
	return err
}

// errNotConfigured reports a service missing from the wiring.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

func organiser() (driving.OrganiserService, error) {
	if services == nil || services.Organiser == nil {
		return nil, errNotConfigured("organiser")
	}
	return services.Organiser, nil
}

func classifier() (driving.ClassifyService, error) {
	if services == nil || services.Classify == nil {
		return nil, errNotConfigured("classify")
	}
	return services.Classify, nil
}

func cascade() (driving.CascadeService, error) {
	if services == nil || services.Cascade == nil {
		return nil, errNotConfigured("cascade")
	}
	return services.Cascade, nil
}

func relocation() (driving.RelocationService, error) {
	if services == nil || services.Relocation == nil {
		return nil, errNotConfigured("relocation")
	}
	return services.Relocation, nil
}

func watcher() (driving.WatchService, error) {
	if services == nil || services.Watch == nil {
		return nil, errNotConfigured("watch")
	}
	return services.Watch, nil
}

func browser() (driving.BrowseService, error) {
	if services == nil || services.Browse == nil {
		return nil, errNotConfigured("browse")
	}
	return services.Browse, nil
}

func history() (driving.HistoryService, error) {
	if services == nil || services.History == nil {
		return nil, errNotConfigured("history")
	}
	return services.History, nil
}

func credential() (driving.CredentialService, error) {
	if services == nil || services.Credential == nil {
		return nil, errNotConfigured("credential")
	}
	return services.Credential, nil
}

// cfg returns the loaded configuration, or defaults.
func cfg() config.Config {
	if services != nil && services.Config != nil {
		return *services.Config
	}
	return config.Default()
}

// folderList returns the flag value when given, else the configured folders.
func folderList(flagValue []string) []string {
	if len(flagValue) > 0 {
		return flagValue
	}
	return cfg().Library.Folders
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
