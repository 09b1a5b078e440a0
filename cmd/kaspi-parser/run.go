// cmd/kaspi-parser/run.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Dst88/kaspi-parser/internal/config"
	"github.com/Dst88/kaspi-parser/internal/output"
	"github.com/Dst88/kaspi-parser/internal/runner"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

type runFlags struct {
	url        string
	format     string
	outputFile string
	outputDir  string
	locale     string
	maxPages   int
	showWindow bool
	noProgress bool
}

func newRunCmd(c *cli) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Walk a catalog once and export the collected products",
		Long: `Walk a catalog once and export the collected products.

Press Ctrl+C to stop after the current product; the records collected so far
are still saved. A second Ctrl+C aborts the page in progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runOnce(cmd.Context(), cfg, !f.noProgress)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.url, "url", "u", "", "catalog start URL (overrides start_url)")
	flags.StringVarP(&f.format, "format", "f", "", "output format: xlsx, csv, json, yaml, sqlite")
	flags.StringVarP(&f.outputFile, "output", "o", "", "output file (default <dir>/<prefix>-<run id>.<ext>)")
	flags.StringVar(&f.outputDir, "output-dir", "", "directory for generated output files")
	flags.StringVar(&f.locale, "locale", "", "column labels: ru or en")
	flags.IntVar(&f.maxPages, "max-pages", 0, "stop after this many listing pages (0 = unlimited)")
	flags.BoolVar(&f.showWindow, "show-browser", false, "run Chrome with a visible window")
	flags.BoolVar(&f.noProgress, "no-progress", false, "disable the progress spinner")
	return cmd
}

// apply lets explicitly set flags override the configuration.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.StartURL = f.url
	}
	if flags.Changed("format") {
		cfg.Output.Format = f.format
	}
	if flags.Changed("output") {
		cfg.Output.File = f.outputFile
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if flags.Changed("locale") {
		cfg.Locale = f.locale
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = f.maxPages
	}
	if flags.Changed("show-browser") {
		cfg.Browser.Headless = !f.showWindow
	}
}

// destination picks the fixed output file when configured, else a
// per-run name in the output directory.
func destination(cfg *config.Config) runner.Destination {
	if cfg.Output.File != "" {
		return runner.FixedDestination(cfg.Output.File)
	}
	return runner.DirDestination(cfg.Output.Dir, cfg.Output.Prefix)
}

func (c *cli) runOnce(ctx context.Context, cfg *config.Config, progress bool) error {
	if cfg.StartURL == "" {
		return utils.NewError(utils.ErrCodeValidation, "a start URL is required (--url or start_url)").Build()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := utils.NewComponentLogger("run")

	catalogOpts, err := cfg.CatalogOptions()
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeInvalidConfig, "invalid catalog settings")
	}

	transform, err := cfg.Pipeline(logger)
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeInvalidConfig, "invalid transforms")
	}

	var bar *progressbar.ProgressBar
	if progress {
		bar = newSpinner()
		defer bar.Finish()
	}

	ctrl, err := runner.New(runner.Options{
		Catalog:     catalogOpts,
		Sessions:    c.sessionFactory(func() *config.Config { return cfg }),
		Destination: destination(cfg),
		Exporter:    output.NewManager(cfg.OutputOptions(), logger),
		Transform:   transform,
		Logger:      logger,
		Sink: func(line string) {
			if bar != nil {
				bar.Describe(truncate(line, 60))
				bar.Add(1)
			}
		},
	})
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeInternal, "failed to create run controller")
	}

	if _, err := ctrl.Start(cfg.StartURL, cfg.Output.Format); err != nil {
		return utils.WrapError(err, utils.ErrCodeValidation, "run rejected")
	}

	stopSignals := handleSignals(ctrl)
	defer stopSignals()

	res, err := ctrl.Wait(ctx)
	if err != nil {
		ctrl.Abort()
		if res, err = ctrl.Wait(context.Background()); err != nil {
			return err
		}
	}
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(c.stderr)
	}

	return c.report(res)
}

// report prints the outcome and turns it into the command error.
func (c *cli) report(res *runner.Result) error {
	fmt.Fprintf(c.stdout, "%s: %d records from %d pages", res.Status, res.Records, res.Pages)
	if res.Reason != "" {
		fmt.Fprintf(c.stdout, " (%s)", res.Reason)
	}
	fmt.Fprintln(c.stdout)
	if res.Saved {
		abs, err := filepath.Abs(res.Path)
		if err != nil {
			abs = res.Path
		}
		fmt.Fprintf(c.stdout, "saved to %s\n", abs)
	}

	switch {
	case res.SaveErr != nil:
		return res.SaveErr
	case res.Records == 0 && res.Err != nil:
		return res.Err
	}
	return nil
}

// handleSignals stops the run on the first interrupt and aborts it on the
// second. The returned func releases the signal handler.
func handleSignals(ctrl *runner.Controller) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		stopped := false
		for {
			select {
			case <-sigCh:
				if !stopped {
					stopped = true
					ctrl.Stop()
					continue
				}
				ctrl.Abort()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func newSpinner() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("starting browser"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
