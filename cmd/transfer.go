package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fabula-rasa/fabula/internal/query"
	"github.com/fabula-rasa/fabula/internal/transfer"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var where, output string

	cmd := &cobra.Command{
		Use:       "export csv|jsonl|markdown|parquet",
		Short:     "Export the catalog",
		Long:      "Exports the catalog. Markdown writes a reading log of the selected books only.",
		ValidArgs: []string{string(transfer.CSV), string(transfer.JSONL), string(transfer.Markdown), string(transfer.Parquet)},
		Example: `  fabula export csv -o books.csv
  fabula export markdown --where 'read_date >= "2024-01-01"'
  fabula export parquet -o books.parquet`,
		Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := transfer.Format(args[0])
			if format == transfer.Parquet && output == "" {
				return fmt.Errorf("parquet export needs --output")
			}
			filter, err := query.Compile(where)
			if err != nil {
				return err
			}

			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			books, err := svc.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if books, err = filter.Apply(books); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := transfer.Export(w, format, books); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d books to %s\n", len(books), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "CEL filter expression")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Append books from a CSV, JSONL or Parquet file",
		Long: `Appends books from a file. The format follows the extension.

Missing authors default to Unknown and missing dates to today. Scores are
recomputed, and titles already waiting in the catalog are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := transfer.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}

			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			added, err := svc.Import(cmd.Context(), books)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d books\n", added, len(books))
			return nil
		},
	}
}
