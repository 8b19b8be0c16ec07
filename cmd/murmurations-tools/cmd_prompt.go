package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/murmurations/go-murmurations/internal/prompt"
	"github.com/murmurations/go-murmurations/pkg/profile"
)

func (c *cli) promptCmd() *cobra.Command {
	var (
		flags schemaFlags
		check bool
	)
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Enter a profile interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			merged, names, err := c.merge(cmd.Context(), flags)
			if err != nil {
				return err
			}
			collector := prompt.NewCollector(c.newDriver(c.stderr))
			form, err := collector.Collect(cmd.Context(), profile.FormFields(merged))
			if err != nil {
				return err
			}
			form.Set("linked_schemas", strings.Join(names, ","))

			result := profile.NewBuilder(profile.WithLogger(c.logger)).Build(merged, form)
			if err := c.printJSON(result.Profile); err != nil {
				return err
			}
			if !check {
				return nil
			}
			return c.check(merged, result.Profile)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&check, "check", true, "validate the entered profile against the merged schema")
	return cmd
}
