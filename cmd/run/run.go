package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/romain325/doc-thor-confgen/cmd/util"
	"github.com/romain325/doc-thor-confgen/pkg/errors"
)

// New creates a new `run` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the generated configs in sync with the doc-thor server.",
		Long: heredoc.Doc(`
			Poll the doc-thor server for projects, and keep one generated
			config per project in the output directory.

			Configs are only written when their content changes, and configs
			for projects that no longer exist are removed. Files starting with
			the protected prefix are never touched.

			A failed cycle is logged and retried at the next interval. The
			command runs until it receives SIGINT or SIGTERM.`),
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

// Mocked out for unit testing.
var setup = util.Setup

func run(ctx context.Context) error {
	components, err := setup()
	if err != nil {
		return err
	}
	log.WithField("config", components.Config.String()).Info("Loaded configuration")

	err = components.Driver.Run(ctx)
	if err != nil && err != context.Canceled {
		return errors.WithContext(err, "poll")
	}
	log.Info("Stopped polling")
	return nil
}
