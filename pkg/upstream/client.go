package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodySize bounds how much of a response is read.
const maxBodySize = 8 << 20

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (err StatusError) Error() string {
	if err.Body == "" {
		return fmt.Sprintf("unexpected status %d", err.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", err.Code, err.Body)
}

// Client talks to the doc-thor server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the server at `baseURL`. Every request is bounded
// by `timeout`.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListProjects fetches every project along with its published versions.
// Anything other than a 2xx response carrying a JSON array is an error, so
// that a broken response is never mistaken for an empty listing.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/projects", nil)
	if err != nil {
		return nil, errors.WithContext(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WithContext(err, "send request")
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.WithContext(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, StatusError{Code: resp.StatusCode, Body: summarize(body)}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, errors.New("malformed response: expected a JSON array")
	}

	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, errors.WithContext(err, "decode projects")
	}
	return projects, nil
}

// summarize shortens an error response body for inclusion in logs.
func summarize(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
