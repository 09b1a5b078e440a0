// cmd/kaspi-parser/config_cmds.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dst88/kaspi-parser/internal/config"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config.yaml]",
		Short: "Validate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := c.configFile
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				return utils.NewError(utils.ErrCodeValidation, "a configuration file is required").Build()
			}

			cfg, err := config.LoadFromFile(file)
			if err != nil {
				if _, ok := utils.CodeOf(err); ok {
					return err
				}
				return utils.WrapError(err, utils.ErrCodeInvalidConfig, "failed to load configuration")
			}

			result := cfg.Check()
			for _, warning := range result.Warnings {
				fmt.Fprintf(c.stdout, "⚠ %s\n", warning)
			}
			fmt.Fprintf(c.stdout, "✓ Configuration file '%s' is valid\n", file)

			if c.verbose {
				fmt.Fprintf(c.stdout, "Configuration details:\n")
				fmt.Fprintf(c.stdout, "  Start URL: %s\n", cfg.StartURL)
				fmt.Fprintf(c.stdout, "  Locale: %s\n", cfg.Locale)
				fmt.Fprintf(c.stdout, "  Max pages: %d\n", cfg.MaxPages)
				fmt.Fprintf(c.stdout, "  Output format: %s\n", cfg.Output.Format)
			}
			return nil
		},
	}
}

func newTemplateCmd(c *cli) *cobra.Command {
	var (
		locale string
		file   string
	)
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print a complete configuration template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			template := config.GenerateTemplate(locale)
			if file != "" {
				if err := config.SaveToFile(&template, file); err != nil {
					return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write template")
				}
				fmt.Fprintf(c.stdout, "Template written to %s\n", file)
				return nil
			}
			return config.SaveToWriter(&template, c.stdout)
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "ru", "column labels of the template: ru or en")
	cmd.Flags().StringVarP(&file, "output", "o", "", "write the template to a file instead of stdout")
	return cmd
}
