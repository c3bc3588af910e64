package commands

import (
	"github.com/spf13/cobra"
)

// NewSchemasCommand creates the schemas command.
func NewSchemasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List schemas of the current database",
		Long: `List the schemas of the current database on engines that have them.

Schemas matching a hidden_schemas pattern are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := cc.Session.Schemas(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Renderer.Render(nameTable("Schema", names))
		},
	}
}
