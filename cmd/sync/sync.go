package sync

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/romain325/doc-thor-confgen/cmd/util"
	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/poll"
)

// New creates a new `sync` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync cycle and exit.",
		Long: heredoc.Doc(`
			Fetch the projects from the doc-thor server once, update the
			output directory, and exit.

			The exit code is non-zero if the fetch failed, or if any project
			couldn't be synced.`),
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	components, err := util.Setup()
	if err != nil {
		return err
	}
	return checkCycle(components.Driver.RunOnce(context.Background()))
}

func checkCycle(cycle poll.Cycle) error {
	if cycle.Err != nil {
		return errors.WithContext(cycle.Err, "sync")
	}

	if cycle.Result.Failed() {
		return errors.New("%d project(s) failed to sync, see the log above for details",
			len(cycle.Result.Errors))
	}

	log.WithFields(log.Fields{
		"written": cycle.Result.Written,
		"removed": cycle.Result.Removed,
	}).Info("Sync complete")
	return nil
}
