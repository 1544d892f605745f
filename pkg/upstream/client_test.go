package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "confgen/"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "slug": "alpha", "name": "Alpha", "versions": ["v1.0", "v1.1"], "latest": "v1.1"},
			{"id": 2, "slug": "beta", "versions": [], "latest": ""}
		]`))
	}))
	defer server.Close()

	client := New(server.URL+"/", "secret", time.Second)
	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "alpha", projects[0].Slug)
	assert.Equal(t, []string{"v1.0", "v1.1"}, projects[0].Versions)
	assert.Equal(t, "v1.1", projects[0].Latest)
	assert.Equal(t, "Alpha", projects[0].Fields["name"])
	assert.Equal(t, float64(1), projects[0].Fields["id"])

	assert.Equal(t, "beta", projects[1].Slug)
	assert.Empty(t, projects[1].Versions)
	assert.Equal(t, "", projects[1].Latest)
}

func TestListProjectsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		expErr string
	}{
		{
			name:   "ServerError",
			status: http.StatusInternalServerError,
			body:   `{"error": "database error"}`,
			expErr: `unexpected status 500: {"error": "database error"}`,
		},
		{
			name:   "Unauthorized",
			status: http.StatusUnauthorized,
			expErr: "unexpected status 401",
		},
		{
			name:   "NullBody",
			status: http.StatusOK,
			body:   "null",
			expErr: "malformed response: expected a JSON array",
		},
		{
			name:   "Object",
			status: http.StatusOK,
			body:   `{"projects": []}`,
			expErr: "malformed response: expected a JSON array",
		},
		{
			name:   "NonStringSlug",
			status: http.StatusOK,
			body:   `[{"slug": 42}]`,
			expErr: "decode projects",
		},
		{
			name:   "Truncated",
			status: http.StatusOK,
			body:   `[{"slug": "alpha"`,
			expErr: "decode projects",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer server.Close()

			_, err := New(server.URL, "secret", time.Second).ListProjects(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.expErr)
		})
	}
}

func TestListProjectsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(server.URL, "secret", 50*time.Millisecond).ListProjects(context.Background())
	assert.Error(t, err)
}

func TestStatusErrorSummarizesBody(t *testing.T) {
	err := StatusError{Code: http.StatusBadGateway, Body: summarize([]byte(strings.Repeat("x", 500)))}
	assert.Len(t, err.Body, 203)
	assert.True(t, strings.HasSuffix(err.Body, "..."))
}
