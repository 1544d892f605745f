package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/render"
	"github.com/romain325/doc-thor-confgen/pkg/upstream"
)

// Renderer produces the contents of a project's config file.
type Renderer interface {
	Render(upstream.Project) ([]byte, error)
}

// ManagedFile is the desired state of one project's config file.
type ManagedFile struct {
	// Name is the file's name within the output directory.
	Name string

	// Slug is the project the file belongs to.
	Slug string

	Contents []byte

	// Fingerprint is a short hash of Contents, for logging.
	Fingerprint string
}

// ProjectError records a project that couldn't be reconciled.
type ProjectError struct {
	Slug string
	Err  error
}

func (err ProjectError) Error() string {
	return fmt.Sprintf("project %q: %s", err.Slug, err.Err)
}

func (err ProjectError) Unwrap() error {
	return err.Err
}

// Plan is the set of file operations needed to bring the output directory
// in line with a project listing.
type Plan struct {
	ToWrite  []ManagedFile
	ToRemove []string

	// Unchanged are the slugs whose file is already up to date.
	Unchanged []string

	// Failures are projects that were skipped. Their existing file, if any,
	// is left as is.
	Failures []ProjectError
}

// Result describes what a reconciliation did.
type Result struct {
	// Written are the slugs whose file was created or replaced.
	Written []string

	// Removed are the names of the files that were deleted.
	Removed []string

	// Unchanged are the slugs whose file was already up to date.
	Unchanged []string

	// Errors are the failures of individual projects or files. They didn't
	// stop the rest of the reconciliation.
	Errors []error
}

// Failed returns whether any part of the reconciliation failed.
func (res Result) Failed() bool {
	return len(res.Errors) != 0
}

// Changed returns whether the output directory was modified.
func (res Result) Changed() bool {
	return len(res.Written) != 0 || len(res.Removed) != 0
}

// Reconciler owns the managed files in a single directory.
type Reconciler struct {
	fs         afero.Fs
	dir        string
	renderer   Renderer
	protection Protection
}

// New creates a Reconciler for the files in `dir`. Files starting with
// `protectedPrefix` are never touched.
func New(fs afero.Fs, dir string, renderer Renderer, protectedPrefix string) *Reconciler {
	return &Reconciler{
		fs:         fs,
		dir:        dir,
		renderer:   renderer,
		protection: Protection{Prefix: protectedPrefix},
	}
}

// Reconcile writes the file of every project whose rendered config differs
// from what's on disk, and removes the files of projects that no longer
// exist.
// An error is returned, and nothing is changed, if the listing itself is
// invalid. Failures of individual projects or files are reported in the
// Result instead.
func (r *Reconciler) Reconcile(projects []upstream.Project) (Result, error) {
	plan, err := r.Plan(projects)
	if err != nil {
		return Result{}, err
	}
	return r.Apply(plan), nil
}

// Plan computes the file operations for `projects` without modifying the
// output directory.
func (r *Reconciler) Plan(projects []upstream.Project) (Plan, error) {
	if err := validate(projects); err != nil {
		return Plan{}, errors.WithContext(err, "validate projects")
	}

	var plan Plan
	active := map[string]struct{}{}
	desired := map[string]ManagedFile{}
	for _, project := range projects {
		name := FileName(project.Slug)
		active[name] = struct{}{}

		if r.protection.Protects(name) {
			plan.Failures = append(plan.Failures, ProjectError{
				Slug: project.Slug,
				Err:  errors.ProtectedNameError{Slug: project.Slug, Name: name},
			})
			continue
		}

		contents, err := r.renderer.Render(project)
		if err != nil {
			plan.Failures = append(plan.Failures, ProjectError{
				Slug: project.Slug,
				Err:  errors.WithContext(err, "render"),
			})
			continue
		}

		desired[name] = ManagedFile{
			Name:        name,
			Slug:        project.Slug,
			Contents:    contents,
			Fingerprint: render.Fingerprint(contents),
		}
	}

	snapshot, err := ReadSnapshot(r.fs, r.dir, r.protection)
	if err != nil {
		return Plan{}, errors.WithContext(err, "read output directory")
	}

	// Only the files that may be rewritten are read. A file that can't be
	// read stays active, so it's neither overwritten nor pruned.
	for _, project := range projects {
		name := FileName(project.Slug)
		if _, ok := desired[name]; !ok {
			continue
		}
		if _, ok := snapshot[name]; !ok {
			continue
		}

		if err := snapshot.Load(r.fs, r.dir, name); err != nil {
			plan.Failures = append(plan.Failures, ProjectError{Slug: project.Slug, Err: err})
			delete(desired, name)
		}
	}

	plan.ToWrite, plan.ToRemove = snapshot.Diff(desired, active)

	toWrite := map[string]struct{}{}
	for _, f := range plan.ToWrite {
		toWrite[f.Name] = struct{}{}
	}
	for _, project := range projects {
		f, ok := desired[FileName(project.Slug)]
		if !ok {
			continue
		}
		if _, changed := toWrite[f.Name]; !changed {
			plan.Unchanged = append(plan.Unchanged, f.Slug)
		}
	}
	return plan, nil
}

// Apply executes `plan`. A failed write or removal doesn't prevent the
// other operations from being attempted.
func (r *Reconciler) Apply(plan Plan) Result {
	res := Result{Unchanged: plan.Unchanged}
	for _, failure := range plan.Failures {
		res.Errors = append(res.Errors, failure)
	}

	for _, f := range plan.ToWrite {
		path := filepath.Join(r.dir, f.Name)
		if err := writeFile(r.fs, path, f.Contents); err != nil {
			res.Errors = append(res.Errors, ProjectError{
				Slug: f.Slug,
				Err:  errors.WithContext(err, "write "+f.Name),
			})
			continue
		}

		log.WithFields(log.Fields{
			"path": path,
			"hash": f.Fingerprint,
		}).Info("Wrote config")
		res.Written = append(res.Written, f.Slug)
	}

	for _, name := range plan.ToRemove {
		path := filepath.Join(r.dir, name)
		// The file may already be gone if someone else removed it.
		if err := r.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			res.Errors = append(res.Errors, errors.WithContext(err, "remove "+name))
			continue
		}

		log.WithField("path", path).Info("Removed config")
		res.Removed = append(res.Removed, name)
	}

	if len(plan.Unchanged) != 0 {
		log.WithField("projects", plan.Unchanged).Debug("Configs already up to date")
	}
	return res
}

// validate checks that every project can be mapped to its own file. If
// one can't, the listing is considered broken as a whole: skipping the
// project would cause its file to be pruned.
func validate(projects []upstream.Project) error {
	seen := map[string]struct{}{}
	for i, project := range projects {
		slug := project.Slug
		if slug == "" {
			return errors.WithContext(errors.MissingFieldError{Field: "slug"},
				fmt.Sprintf("project %d", i))
		}

		if !validSlug(slug) {
			return errors.InvalidSlugError{Slug: slug}
		}

		if _, ok := seen[slug]; ok {
			return errors.DuplicateSlugError{Slug: slug}
		}
		seen[slug] = struct{}{}
	}
	return nil
}

func validSlug(slug string) bool {
	return !strings.ContainsAny(slug, `/\`) &&
		!strings.HasPrefix(slug, ".") &&
		!strings.ContainsRune(slug, 0)
}
