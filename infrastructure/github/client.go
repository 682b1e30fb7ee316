// Package github fetches repository metadata and documentation files over
// the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	domainservice "github.com/docvecdev/docvec/domain/service"
)

const (
	apiBaseURL = "https://api.github.com"
	rawBaseURL = "https://raw.githubusercontent.com"
)

// StatusError carries the HTTP status of a failed API call.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("github API returned %d for %s", e.StatusCode, e.URL)
}

// Client talks to the GitHub REST API. The token is optional; without one
// requests count against the unauthenticated rate limit.
type Client struct {
	httpClient *http.Client
	apiURL     string
	rawURL     string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBaseURLs overrides the API and raw-content endpoints, for tests and
// GitHub Enterprise installs.
func WithBaseURLs(apiURL, rawURL string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimSuffix(apiURL, "/")
		c.rawURL = strings.TrimSuffix(rawURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates a GitHub client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiBaseURL,
		rawURL:     rawBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type repoResponse struct {
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
}

type commitResponse struct {
	SHA string `json:"sha"`
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// Resolve returns the commit SHA for the ref (or the default branch) and the
// repository description.
func (c *Client) Resolve(ctx context.Context, ref domainservice.RepoRef) (string, string, error) {
	var repo repoResponse
	repoURL := fmt.Sprintf("%s/repos/%s/%s", c.apiURL, ref.Owner(), ref.Repo())
	if err := c.getJSON(ctx, repoURL, &repo); err != nil {
		return "", "", fmt.Errorf("failed to resolve %s/%s: %w", ref.Owner(), ref.Repo(), err)
	}

	branch := ref.Ref()
	if branch == "" {
		branch = repo.DefaultBranch
	}

	var commit commitResponse
	commitURL := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.apiURL, ref.Owner(), ref.Repo(), branch)
	if err := c.getJSON(ctx, commitURL, &commit); err != nil {
		return "", "", fmt.Errorf("failed to resolve ref %q in %s/%s: %w", branch, ref.Owner(), ref.Repo(), err)
	}

	return commit.SHA, repo.Description, nil
}

// ListDocFiles lists .md and .mdx blobs at the resolved commit, restricted
// to the given folder scope. Empty folders means the whole tree.
func (c *Client) ListDocFiles(ctx context.Context, ref domainservice.RepoRef, sha string, folders []string) ([]domainservice.FileRef, error) {
	var tree treeResponse
	treeURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.apiURL, ref.Owner(), ref.Repo(), sha)
	if err := c.getJSON(ctx, treeURL, &tree); err != nil {
		return nil, fmt.Errorf("failed to list tree for %s/%s: %w", ref.Owner(), ref.Repo(), err)
	}

	var files []domainservice.FileRef
	for _, entry := range tree.Tree {
		if entry.Type != "blob" || !isDocFile(entry.Path) {
			continue
		}
		if !inScope(entry.Path, folders) {
			continue
		}
		files = append(files, domainservice.NewFileRef(entry.Path, entry.SHA))
	}

	return files, nil
}

// Content downloads one file's raw text.
func (c *Client) Content(ctx context.Context, ref domainservice.RepoRef, filePath string) (string, error) {
	branch := ref.Ref()
	if branch == "" {
		branch = "HEAD"
	}
	url := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawURL, ref.Owner(), ref.Repo(), branch, filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", filePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func isDocFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

func inScope(p string, folders []string) bool {
	if len(folders) == 0 {
		return true
	}
	for _, folder := range folders {
		prefix := strings.Trim(folder, "/")
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

var _ domainservice.Fetcher = (*Client)(nil)
