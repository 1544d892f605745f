package cmd

import (
	"os"

	"github.com/MakeNowJust/heredoc"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/romain325/doc-thor-confgen/cmd/plan"
	"github.com/romain325/doc-thor-confgen/cmd/run"
	"github.com/romain325/doc-thor-confgen/cmd/sync"
	"github.com/romain325/doc-thor-confgen/cmd/util"
	"github.com/romain325/doc-thor-confgen/cmd/version"
)

const (
	// verboseLogKey is the environment variable used to enable verbose
	// logging. When it's set to `true`, Debug events are logged, rather than
	// just Info and above.
	verboseLogKey = "CONFGEN_LOG_VERBOSE"

	// logFormatKey selects the log format. `json` logs one JSON object per
	// line, anything else uses the text format.
	logFormatKey = "CONFGEN_LOG_FORMAT"
)

// Execute runs the main CLI process.
func Execute() {
	setupLogging()

	rootCmd := &cobra.Command{
		Use:   "confgen",
		Short: "Generate Nginx configs for the projects of a doc-thor server.",
		Long: heredoc.Doc(`
			confgen renders one Nginx server-block config per doc-thor project
			and keeps the output directory in sync with the server.

			Required environment variables:
			  SERVER_URL, NGINX_TOKEN, BASE_DOMAIN, STORAGE_URL, STORAGE_BUCKET

			Optional environment variables:
			  POLL_INTERVAL     seconds between syncs (default 10)
			  FETCH_TIMEOUT     seconds before a fetch is abandoned (default 5)
			  OUTPUT_DIR        where configs are written (default /etc/nginx/conf.d)
			  TEMPLATE_PATH     template to render instead of the built-in one
			  PROTECTED_PREFIX  prefix of files confgen never touches (default 00-)
			  CONFGEN_CONFIG    YAML file providing any of the settings above`),
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		plan.New(),
		run.New(),
		sync.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func setupLogging() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	if os.Getenv(logFormatKey) == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
