// Package render turns a project into the text of its generated config file.
package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"text/template"

	// Templates are embedded into the binary.
	_ "embed"

	"github.com/spf13/afero"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/upstream"
)

//go:embed templates/server-block.conf.tmpl
var defaultTemplate string

// DefaultTemplateName is the name of the built-in template.
const DefaultTemplateName = "server-block.conf.tmpl"

// Context holds the parameters shared by every render. It's fixed for the
// lifetime of the process.
type Context struct {
	BaseDomain    string
	StorageURL    string
	StorageBucket string
}

// data is what templates are executed against.
type data struct {
	Project       upstream.Project
	BaseDomain    string
	StorageURL    string
	StorageBucket string
}

// Renderer renders projects with a single template.
type Renderer struct {
	tmpl *template.Template
	ctx  Context
}

// Load parses the template at `path`, or the built-in template if `path` is
// empty.
func Load(fs afero.Fs, path string, ctx Context) (*Renderer, error) {
	name, text := DefaultTemplateName, defaultTemplate
	if path != "" {
		contents, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, errors.WithContext(err, "read template")
		}
		name, text = path, string(contents)
	}
	return Parse(name, text, ctx)
}

// Parse creates a Renderer from template source text.
func Parse(name, text string, ctx Context) (*Renderer, error) {
	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(funcMap()).
		Parse(text)
	if err != nil {
		return nil, errors.WithContext(err, "parse template")
	}
	return &Renderer{tmpl: tmpl, ctx: ctx}, nil
}

// Render returns the config for `project`. The output only depends on the
// project and the renderer's Context.
func (r *Renderer) Render(project upstream.Project) ([]byte, error) {
	if project.Slug == "" {
		return nil, errors.MissingFieldError{Field: "slug"}
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, data{
		Project:       project,
		BaseDomain:    r.ctx.BaseDomain,
		StorageURL:    r.ctx.StorageURL,
		StorageBucket: r.ctx.StorageBucket,
	})
	if err != nil {
		return nil, errors.WithContext(err, "execute template")
	}
	return buf.Bytes(), nil
}

// Fingerprint returns a short hash of `contents`. It's only meant for
// correlating log lines, not for comparing files.
func Fingerprint(contents []byte) string {
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:])[:16]
}
