// cmd/kaspi-parser/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dst88/kaspi-parser/internal/browser"
	"github.com/Dst88/kaspi-parser/internal/config"
	"github.com/Dst88/kaspi-parser/internal/errors"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cli holds the global flags shared by every command
type cli struct {
	configFile string
	logLevel   string
	verbose    bool

	errorService *errors.Service
	stdout       io.Writer
	stderr       io.Writer
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *cli) {
	c := &cli{
		errorService: errors.NewService(),
		stdout:       stdout,
		stderr:       stderr,
	}

	root := &cobra.Command{
		Use:   "kaspi-parser",
		Short: "Extract the product catalog of kaspi.kz into spreadsheets and data files",
		Long: `kaspi-parser walks a kaspi.kz catalog in a headless Chrome session, visits
every product page for its characteristics and seller offers, and exports
the records as xlsx, csv, json, yaml or sqlite.

Examples:
  kaspi-parser run --url https://kaspi.kz/shop/c/smartphones/ --format xlsx
  kaspi-parser serve --config kaspi.yaml --watch
  kaspi-parser template > kaspi.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.errorService = c.errorService.WithVerbose(c.verbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(versionString())

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "configuration file (YAML)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output and technical error details")

	root.AddCommand(
		newRunCmd(c),
		newServeCmd(c),
		newValidateCmd(c),
		newTemplateCmd(c),
		newVersionCmd(c),
	)
	return root, c
}

// loadConfig reads --config, or the defaults when no file is given, and
// initializes logging from it.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if c.configFile != "" {
		loaded, err := config.LoadFromFile(c.configFile)
		if err != nil {
			if _, ok := utils.CodeOf(err); ok {
				return nil, err
			}
			return nil, utils.WrapError(err, utils.ErrCodeInvalidConfig, "failed to load configuration")
		}
		cfg = loaded
	}

	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.verbose {
		cfg.Log.Level = "debug"
	}
	if err := utils.InitLogger(cfg.Log); err != nil {
		return nil, utils.WrapError(err, utils.ErrCodeInvalidConfig, "failed to initialize logging")
	}
	return cfg, nil
}

// sessionFactory starts a Chrome session per run. Start-up failures are
// retried load_retries times.
func (c *cli) sessionFactory(current func() *config.Config) func(ctx context.Context) (browser.Session, error) {
	return func(ctx context.Context) (browser.Session, error) {
		cfg := current()
		retry := errors.DefaultRetryConfig()
		retry.MaxRetries = cfg.LoadRetries
		retry.BaseDelay = cfg.RetryDelay

		var session browser.Session
		err := c.errorService.WithRetry(retry).ExecuteWithRetry(ctx, func() error {
			bc := cfg.Browser
			client, err := browser.NewChromeClient(ctx, &bc)
			if err != nil {
				return err
			}
			session = client
			return nil
		}, "browser start")
		return session, err
	}
}

func versionString() string {
	return fmt.Sprintf("kaspi-parser %s\nBuild time: %s\nGit commit: %s\n", version, buildTime, gitCommit)
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(c.stdout, versionString())
		},
	}
}

func main() {
	root, c := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprint(os.Stderr, c.errorService.FormatErrorForCLI(err))
		os.Exit(c.errorService.GetExitCode(err))
	}
}
