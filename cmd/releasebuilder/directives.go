// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	//go:embed directives.md
	directivesGuide string

	render = glamour.Render
)

func newDirectivesCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "directives",
		Short: "Describe the ReleaseConfig.xml directives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := directivesGuide
			if !raw {
				rendered, err := render(directivesGuide, "auto")
				if err != nil {
					return failure(err, false)
				}
				out = rendered
			}
			_, err := io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source")
	return cmd
}
