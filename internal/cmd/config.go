package cmd

import (
	"fmt"

	"github.com/harrison/nextaudit/internal/config"
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the 'nextaudit config' parent command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration schema or init a config",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigSchemaCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .nextaudit.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("path")
			force, _ := cmd.Flags().GetBool("force")

			path, err := config.InitFile(dir, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringP("path", "p", ".", "Directory to write the config into")
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")

	return cmd
}

func newConfigSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.SchemaYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
