package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/upstream"
)

var testContext = Context{
	BaseDomain:    "docs.example.com",
	StorageURL:    "http://minio:9000",
	StorageBucket: "docs",
}

func TestRenderDefaultTemplate(t *testing.T) {
	r, err := Load(afero.NewMemMapFs(), "", testContext)
	require.NoError(t, err)

	out, err := r.Render(upstream.Project{
		Slug:     "alpha",
		Versions: []string{"v1.0", "v1.10"},
		Latest:   "v1.10",
	})
	require.NoError(t, err)

	exp := `# Generated by confgen for project "alpha". Do not edit.

server {
    listen 80;
    server_name alpha-v1-10.docs.example.com;

    set $doc_project "alpha";
    set $doc_version "v1.10";

    location / {
        proxy_pass http://minio:9000/docs/alpha/v1.10/;
        proxy_set_header Host minio:9000;
    }
}

server {
    listen 80;
    server_name alpha-v1-0.docs.example.com;

    set $doc_project "alpha";
    set $doc_version "v1.0";

    location / {
        proxy_pass http://minio:9000/docs/alpha/v1.0/;
        proxy_set_header Host minio:9000;
    }
}

server {
    listen 80;
    server_name alpha.docs.example.com;

    set $doc_project "alpha";
    set $doc_version "v1.10";

    location / {
        proxy_pass http://minio:9000/docs/alpha/v1.10/;
        proxy_set_header Host minio:9000;
    }
}
`
	if diff := cmp.Diff(exp, string(out)); diff != "" {
		t.Errorf("unexpected render (-want +got):\n%s", diff)
	}
}

func TestRenderNoVersions(t *testing.T) {
	r, err := Load(afero.NewMemMapFs(), "", testContext)
	require.NoError(t, err)

	out, err := r.Render(upstream.Project{Slug: "empty"})
	require.NoError(t, err)
	assert.Equal(t, "# Generated by confgen for project \"empty\". Do not edit.\n", string(out))
}

func TestRenderSkipsUnusableHostLabels(t *testing.T) {
	r, err := Load(afero.NewMemMapFs(), "", testContext)
	require.NoError(t, err)

	out, err := r.Render(upstream.Project{
		Slug:     "alpha",
		Versions: []string{"v1_0", "..", "v1.0"},
	})
	require.NoError(t, err)

	conf := string(out)
	assert.Equal(t, 1, strings.Count(conf, "server {"))
	assert.Contains(t, conf, "server_name alpha-v1-0.docs.example.com;")
	assert.Contains(t, conf, `set $doc_version "v1.0";`)
	assert.NotContains(t, conf, "alpha-.")
	assert.NotContains(t, conf, `"v1_0"`)
}

func TestRenderDeterministic(t *testing.T) {
	r, err := Parse("fields", `{{ .Project.Slug }} {{ range $k, $v := .Project.Fields }}{{ $k }}={{ $v }};{{ end }}`, testContext)
	require.NoError(t, err)

	project := upstream.Project{
		Slug: "alpha",
		Fields: map[string]interface{}{
			"slug": "alpha", "name": "Alpha", "id": float64(3), "source_url": "https://git",
		},
	}
	first, err := r.Render(project)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := r.Render(project)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "alpha id=3;name=Alpha;slug=alpha;source_url=https://git;", string(first))
}

func TestRenderMissingSlug(t *testing.T) {
	r, err := Load(afero.NewMemMapFs(), "", testContext)
	require.NoError(t, err)

	_, err = r.Render(upstream.Project{Versions: []string{"v1"}})
	assert.Equal(t, errors.MissingFieldError{Field: "slug"}, err)
}

func TestRenderMissingFieldIsEmpty(t *testing.T) {
	r, err := Parse("missing", `[{{ .Project.Fields.nope }}]`, testContext)
	require.NoError(t, err)

	out, err := r.Render(upstream.Project{Slug: "alpha", Fields: map[string]interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, "[<no value>]", string(out))
}

func TestLoadFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/templates/custom.tmpl",
		[]byte(`{{ .Project.Slug }}@{{ .BaseDomain }} {{ .Project.Latest | upper }}`), 0644))

	r, err := Load(fs, "/templates/custom.tmpl", testContext)
	require.NoError(t, err)

	out, err := r.Render(upstream.Project{Slug: "alpha", Latest: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "alpha@docs.example.com V2", string(out))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/missing.tmpl", testContext)
	assert.Error(t, err)

	_, err = Parse("broken", "{{ .Project.Slug ", testContext)
	assert.Error(t, err)
}

func TestSortVersions(t *testing.T) {
	tests := []struct {
		in  []string
		exp []string
	}{
		{nil, []string{}},
		{[]string{"v1.0", "v1.10", "v1.9"}, []string{"v1.10", "v1.9", "v1.0"}},
		{[]string{"main", "v2", "latest", "1.0.0"}, []string{"v2", "1.0.0", "latest", "main"}},
		{[]string{"1.0", "v1.0.0"}, []string{"1.0", "v1.0.0"}},
	}
	for _, test := range tests {
		in := append([]string(nil), test.in...)
		assert.Equal(t, test.exp, sortVersions(test.in))
		assert.Equal(t, in, test.in, "input must not be modified")
	}
}

func TestHostLabel(t *testing.T) {
	assert.Equal(t, "v1-2-0", hostLabel("v1.2.0"))
	assert.Equal(t, "release-2024", hostLabel("Release_2024"))
	assert.Equal(t, "feature-x", hostLabel("/feature/x/"))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "minio:9000", hostOf("http://minio:9000/prefix"))
	assert.Equal(t, "not a url", hostOf("not a url"))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c14", Fingerprint(nil))
	assert.Len(t, Fingerprint([]byte("server {}")), 16)
}
