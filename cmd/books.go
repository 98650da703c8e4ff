package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fabula-rasa/fabula/internal/club"
	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/fabula-rasa/fabula/internal/query"
	"github.com/fabula-rasa/fabula/internal/selection"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var n club.NewBook

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Propose a book",
		Long: `Adds a book to the catalog and scores it.

The word count accepts forms such as 85000, 85,000 or 85k. When only the
page count is known, pass --pages and the word count is estimated.`,
		Example: `  fabula add "The Dispossessed" --author "Ursula K. Le Guin" --length 106k --rating 4.2 --member Alice
  fabula add "Piranesi" --pages 272 --rating 4.1 --member Bob --tag fantasy --tag mystery`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n.Title = args[0]

			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			book, err := svc.AddBook(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ", styles.success.Render("Added"))
			describeBook(cmd.OutOrStdout(), book)
			return nil
		},
	}

	cmd.Flags().StringVar(&n.Author, "author", "", "Author (defaults to Unknown)")
	cmd.Flags().StringVar(&n.ISBN, "isbn", "", "ISBN-10 or ISBN-13")
	cmd.Flags().StringSliceVar(&n.Tags, "tag", nil, "Tag (repeatable or comma separated)")
	cmd.Flags().StringVar(&n.Length, "length", "", "Word count")
	cmd.Flags().IntVar(&n.Pages, "pages", 0, "Page count, used to estimate the word count")
	cmd.Flags().Float64Var(&n.Rating, "rating", 0, "Average reader rating")
	cmd.Flags().StringVar(&n.Member, "member", "", "Member proposing the book")
	_ = cmd.MarkFlagRequired("member")

	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TITLE",
		Short: "Remove a book from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			book, ok, err := svc.RemoveBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no book titled %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", styles.title.Render(book.Title))
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var (
		author, isbn, length, member, readDate string
		tags, addTags, removeTags              []string
		pages                                  int
		rating                                 float64
	)

	cmd := &cobra.Command{
		Use:   "edit TITLE",
		Short: "Change a book's details",
		Long: `Edits a book already in the catalog and rescores it. Only the flags
given are changed; the date the book was added is kept.

--tag replaces every tag, while --add-tag and --remove-tag adjust the
existing set. An empty --read-date returns a selected book to the pool.`,
		Example: `  fabula edit "Piranesi" --rating 4.3 --add-tag mystery
  fabula edit "Kindred" --read-date 2024-05-06`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u club.BookUpdate
			flags := cmd.Flags()
			if flags.Changed("author") {
				u.Author = &author
			}
			if flags.Changed("isbn") {
				u.ISBN = &isbn
			}
			if flags.Changed("tag") {
				u.Tags = &tags
			}
			u.AddTags = addTags
			u.RemoveTags = removeTags
			if flags.Changed("length") {
				u.Length = &length
			}
			if flags.Changed("pages") {
				u.Pages = &pages
			}
			if flags.Changed("rating") {
				u.Rating = &rating
			}
			if flags.Changed("member") {
				u.Member = &member
			}
			if flags.Changed("read-date") {
				u.ReadDate = &readDate
			}

			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			book, err := svc.UpdateBook(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ", styles.success.Render("Updated"))
			describeBook(cmd.OutOrStdout(), book)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN-10 or ISBN-13 (empty clears it)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Replace the tags (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&addTags, "add-tag", nil, "Add a tag")
	cmd.Flags().StringSliceVar(&removeTags, "remove-tag", nil, "Remove a tag")
	cmd.Flags().StringVar(&length, "length", "", "Word count")
	cmd.Flags().IntVar(&pages, "pages", 0, "Page count, used to estimate the word count")
	cmd.Flags().Float64Var(&rating, "rating", 0, "Average reader rating")
	cmd.Flags().StringVar(&member, "member", "", "Member proposing the book")
	cmd.Flags().StringVar(&readDate, "read-date", "", "Meeting date (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("length", "pages")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var where string
	var selectedOnly, unselectedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Example: `  fabula list --unselected
  fabula list --where 'member == "Alice" && rating >= 4.0'
  fabula list --where '"fantasy" in tags'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if selectedOnly && unselectedOnly {
				return errors.New("--selected and --unselected are mutually exclusive")
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
			books, err = filter.Apply(books)
			if err != nil {
				return err
			}

			shown := make([]models.Book, 0, len(books))
			for _, b := range books {
				if (selectedOnly && !b.Selected()) || (unselectedOnly && b.Selected()) {
					continue
				}
				shown = append(shown, b)
			}
			renderTable(cmd.OutOrStdout(), bookHeaders, bookRows(shown))
			return nil
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "CEL filter expression")
	cmd.Flags().BoolVar(&selectedOnly, "selected", false, "Only books that have been selected")
	cmd.Flags().BoolVar(&unselectedOnly, "unselected", false, "Only books still waiting")

	return cmd
}

func newScoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Recompute and save every score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			books, err := svc.Rescore(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rescored %d books\n", len(books))
			return nil
		},
	}
}

func rankRows(results []selection.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Book.Title,
			r.Book.Member,
			formatScore(r.Book.Score),
			formatScore(r.MemberPenalty),
			formatScore(r.TagAdjustment),
			formatScore(r.Adjusted),
		})
	}
	return rows
}

func newRankCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Show eligible books in selection order",
		Long: `Shows every eligible book with the member penalty and tag adjustment
applied. The first row is the book "select" would pick.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			results, err := svc.Rank(cmd.Context())
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"#", "Title", "Member", "Score", "Member penalty", "Tag adjustment", "Adjusted"},
				rankRows(results))
			return nil
		},
	}
}

func newSelectCmd(a *app) *cobra.Command {
	var date string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick the next book",
		Long: `Picks the eligible book with the highest adjusted score and schedules it
for the next meeting (or --date).`,
		Example: `  fabula select
  fabula select --date 2024-03-18
  fabula select --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			var result selection.Result
			if dryRun {
				result, err = svc.Preview(cmd.Context())
			} else {
				result, err = svc.Pick(cmd.Context(), date)
			}
			if errors.Is(err, club.ErrNoAvailableBooks) {
				fmt.Fprintln(cmd.OutOrStdout(), "no available books")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			describeBook(out, result.Book)
			fmt.Fprintf(out, "  adjusted score %s (member %s, tags %s)\n",
				formatScore(result.Adjusted), formatScore(result.MemberPenalty), formatScore(result.TagAdjustment))
			if dryRun {
				fmt.Fprintln(out, styles.muted.Render("dry run: nothing saved"))
			} else {
				fmt.Fprintf(out, "%s for %s\n", styles.success.Render("Scheduled"), result.Book.ReadDate)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Read date (YYYY-MM-DD); defaults to the next meeting")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the pick without saving it")

	return cmd
}

func newUnselectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unselect TITLE",
		Short: "Clear a book's read date and return it to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			book, ok, err := svc.Unselect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no selected book titled %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is back in the pool\n", styles.title.Render(book.Title))
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show selected books, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			history, err := svc.History(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(history))
			for _, e := range history {
				rows = append(rows, []string{e.Book.ReadDate, e.Book.Title, e.Book.Author, e.Book.Member})
			}
			renderTable(cmd.OutOrStdout(), []string{"Read", "Title", "Author", "Member"}, rows)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog per member and tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if output != "" {
				if err := stats.SaveToJSON(output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stats written to %s\n", output)
				return nil
			}
			if asJSON {
				return stats.WriteJSON(cmd.OutOrStdout())
			}
			stats.PrintSummary(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a summary")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write JSON to a file")

	return cmd
}
