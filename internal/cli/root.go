// Package cli implements progressctl, the on-device client backed by a local SQLite file.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"example.com/progression/internal/catalog"
	"example.com/progression/internal/logging"
	"example.com/progression/internal/progress"
	"example.com/progression/internal/storage/sqlite"
)

const (
	defaultDBPath = "progression.db"
	defaultUserID = "local"
)

type app struct {
	dbPath      string
	userID      string
	logLevel    string
	consecutive bool

	catalog *catalog.Catalog
	now     func() time.Time
}

// NewRootCommand builds the progressctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(time.Now)
}

func newRootCommand(now func() time.Time) *cobra.Command {
	a := &app{catalog: catalog.Default(), now: now}

	root := &cobra.Command{
		Use:           "progressctl",
		Short:         "Track workout progression on this device",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", envOr("PROGRESSCTL_DB", defaultDBPath), "Path to SQLite database file (overrides PROGRESSCTL_DB)")
	root.PersistentFlags().StringVar(&a.userID, "user", defaultUserID, "Profile to operate on")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level for storage diagnostics")
	root.PersistentFlags().BoolVar(&a.consecutive, "consecutive-streaks", false, "Restart the streak when a day is skipped")

	root.AddCommand(
		a.statusCmd(),
		a.workoutsCmd(),
		a.completeCmd(),
		a.setCmd(),
		a.awardCmd(),
		a.resetCmd(),
		a.duelsCmd(),
	)
	return root
}

// withEngine opens the database, runs fn against an initialized engine and drains every
// queued write before the database is closed.
func (a *app) withEngine(cmd *cobra.Command, fn func(engine *progress.Engine) error) (err error) {
	store, err := sqlite.Open(a.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(logging.GetLevel(a.logLevel))

	opts := []progress.Option{
		progress.WithUserID(a.userID),
		progress.WithClock(a.now),
		progress.WithLogger(logger.WithField("component", "progress")),
	}
	if a.consecutive {
		opts = append(opts, progress.WithConsecutiveStreaks())
	}
	engine := progress.NewEngine(a.catalog, store.ForUser(a.userID), opts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	engine.Initialize(ctx)
	if loadErr := engine.LoadErr(); loadErr != nil {
		// writing now would overwrite a record we could not read
		return multierr.Append(loadErr, engine.Close(ctx))
	}

	runErr := fn(engine)
	return multierr.Append(runErr, engine.Close(ctx))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
