package cmd

import (
	"fmt"
	"strings"

	"github.com/fabula-rasa/fabula/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the scoring weights of a profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			data, err := yaml.Marshal(svc.Config())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.muted.Render("# "+svc.ConfigPath()))
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting and rescore the catalog",
		Long: "Changes one setting and rescores the catalog. An invalid value is rejected\n" +
			"and the previous configuration is kept.\n\nKeys:\n  " + strings.Join(config.Keys(), "\n  "),
		Example: `  fabula config set length.target 90000
  fabula config set member_penalties.last_selection -20
  fabula config set tag_adjustments on`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			if _, err := svc.UpdateConfig(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("configuration unchanged: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", styles.success.Render("Set"), args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default weights and rescore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			if _, err := svc.ResetConfig(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	})

	return cmd
}
