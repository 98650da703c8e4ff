package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage profiles, one catalog and configuration each",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.manager.List()
			if err != nil {
				return err
			}
			current := a.manager.Current()
			for _, name := range names {
				if name == current {
					fmt.Fprintf(cmd.OutOrStdout(), "* %s\n", styles.title.Render(name))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create a profile with default weights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Create(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a profile and its catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Rename(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use NAME",
		Short: "Make a profile the default for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.SetCurrent(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now using profile %s\n", a.manager.Current())
			return nil
		},
	})

	return cmd
}
