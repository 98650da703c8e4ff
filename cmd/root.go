package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fabula-rasa/fabula/internal/club"
	"github.com/fabula-rasa/fabula/internal/logging"
	"github.com/fabula-rasa/fabula/internal/profiles"
	"github.com/fabula-rasa/fabula/internal/schedule"
	"github.com/fabula-rasa/fabula/internal/settings"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once settings are loaded
type app struct {
	home     string
	profile  string
	logLevel string

	settings *settings.Settings
	manager  *profiles.Manager
	meetings *schedule.Meetings
	logs     io.Closer
}

func (a *app) setup() error {
	// Load .env file if present (ignore errors)
	_ = godotenv.Load()

	s, err := settings.Load(a.home)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		s.Log.Level = a.logLevel
	}
	_, a.logs = logging.Setup(logging.Options{
		Level:      s.Log.Level,
		File:       s.Log.File,
		MaxSizeMB:  s.Log.MaxSizeMB,
		MaxBackups: s.Log.MaxBackups,
	})

	meetings, err := schedule.Parse(s.MeetingSchedule)
	if err != nil {
		return err
	}

	a.settings = s
	a.meetings = meetings
	a.manager = profiles.NewManager(s.Home, s.Database)
	return nil
}

func (a *app) close() {
	if a.logs != nil {
		_ = a.logs.Close()
	}
}

// profileName is the --profile flag, falling back to settings
func (a *app) profileName() string {
	if a.profile != "" {
		return a.profile
	}
	return a.settings.Profile
}

// open opens the selected profile and reports a configuration that had to
// be replaced by defaults
func (a *app) open(ctx context.Context, cmd *cobra.Command) (*club.Service, error) {
	svc, err := club.Open(ctx, a.manager, a.profileName(), club.WithMeetings(a.meetings))
	if err != nil {
		return nil, err
	}
	if svc.ConfigWarning != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v (using defaults)\n", styles.warning.Render("warning:"), svc.ConfigWarning)
	}
	return svc, nil
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "fabula",
		Short: "Book club picks, scored and scheduled",
		Long: `Fabula keeps a book club's catalog of proposed books and picks the next read.

Each proposal is scored from its rating and how close it is to the target
length. When picking, members and tags chosen in the last few meetings are
penalized so that every member gets a turn.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.profile, "profile", "p", "", "Profile to use (defaults to the last used profile)")
	cmd.PersistentFlags().StringVar(&a.home, "home", "", "Data directory (default ~/.fabula, or $FABULA_HOME)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newRemoveCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newScoreCmd(a))
	cmd.AddCommand(newRankCmd(a))
	cmd.AddCommand(newSelectCmd(a))
	cmd.AddCommand(newUnselectCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newProfileCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}
