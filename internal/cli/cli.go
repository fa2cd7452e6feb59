// Package cli implements the vulnpack command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vulnpack/pkg/buildinfo"
	"github.com/matzehuels/vulnpack/pkg/config"
	"github.com/matzehuels/vulnpack/pkg/integrations/npm"
	"github.com/matzehuels/vulnpack/pkg/npmcli"
	"github.com/matzehuels/vulnpack/pkg/pipeline"
	"github.com/matzehuels/vulnpack/pkg/resolve"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "vulnpack"

	// configEnv names the environment variable holding a default config path.
	configEnv = "VULNPACK_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string

	// registry and toolchain override the configured backends in tests.
	registry  resolve.Registry
	toolchain pipeline.ToolchainFunc
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		configPath: os.Getenv(configEnv),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "vulnpack audits the JavaScript libraries detected on a website",
		Long: `vulnpack turns a technology-detection report into an npm manifest of the
libraries and UI frameworks it found, installs them and runs npm audit, so
known vulnerabilities in the detected versions surface in one report.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath,
		"path to a TOML config file (env "+configEnv+")")

	// Register all subcommands
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.technologiesCommand())
	root.AddCommand(c.findingsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// newRegistry returns the configured registry backend.
func (c *CLI) newRegistry(cfg *config.Config, dir string) resolve.Registry {
	if c.registry != nil {
		return c.registry
	}
	if cfg.Registry.Backend == config.BackendNPM {
		n := npmcli.New(dir, cfg.Registry.Timeout.Duration, c.Logger)
		n.Bin = cfg.NPM.Bin
		return n
	}
	return npm.NewClient(cfg.Registry.URL, cfg.Registry.Timeout.Duration)
}

// newToolchain returns a factory for npm subprocesses in a directory.
func (c *CLI) newToolchain(cfg *config.Config) pipeline.ToolchainFunc {
	if c.toolchain != nil {
		return c.toolchain
	}
	return func(dir string) pipeline.Toolchain {
		n := npmcli.New(dir, cfg.NPM.Timeout.Duration, c.Logger)
		n.Bin = cfg.NPM.Bin
		return n
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cfg *config.Config) *pipeline.Runner {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return pipeline.NewRunner(c.newRegistry(cfg, dir), c.newToolchain(cfg), c.Logger)
}
