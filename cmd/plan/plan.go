package plan

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/romain325/doc-thor-confgen/cmd/util"
	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/reconcile"
)

// Mocked out for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `plan` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what the next sync would change, without changing it.",
		Long: heredoc.Doc(`
			Fetch the projects from the doc-thor server and render their
			configs, then print the files that would be written or removed.
			The output directory is not modified.`),
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

	projects, err := components.Client.ListProjects(context.Background())
	if err != nil {
		return errors.WithContext(err, "fetch projects")
	}

	plan, err := components.Reconciler.Plan(projects)
	if err != nil {
		return errors.WithContext(err, "plan")
	}
	return printPlan(stdout, plan)
}

func printPlan(out io.Writer, plan reconcile.Plan) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	for _, f := range plan.ToWrite {
		fmt.Fprintf(w, "write\t%s\t%s\n", f.Name, f.Fingerprint)
	}
	for _, name := range plan.ToRemove {
		fmt.Fprintf(w, "remove\t%s\t\n", name)
	}
	for _, slug := range plan.Unchanged {
		fmt.Fprintf(w, "unchanged\t%s\t\n", reconcile.FileName(slug))
	}
	for _, failure := range plan.Failures {
		fmt.Fprintf(w, "skip\t%s\t%s\n", reconcile.FileName(failure.Slug), failure.Err)
	}
	if len(plan.ToWrite) == 0 && len(plan.ToRemove) == 0 {
		fmt.Fprintln(w, "Nothing to do.")
	}
	return w.Flush()
}
