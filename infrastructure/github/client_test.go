package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainservice "github.com/docvecdev/docvec/domain/service"
)

// newAPIServer serves the repo, commit and tree endpoints for acme/widgets.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"description": "A library for widgets", "default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/acme/widgets/commits/main", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sha": "mainsha111"}`)
	})
	mux.HandleFunc("/repos/acme/widgets/commits/v2.0.0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sha": "tagsha222"}`)
	})
	mux.HandleFunc("/repos/acme/widgets/git/trees/mainsha111", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tree": [
			{"path": "README.md", "type": "blob", "sha": "b1"},
			{"path": "docs/intro.md", "type": "blob", "sha": "b2"},
			{"path": "docs/api.mdx", "type": "blob", "sha": "b3"},
			{"path": "docs", "type": "tree", "sha": "t1"},
			{"path": "main.go", "type": "blob", "sha": "b4"},
			{"path": "examples/demo.MD", "type": "blob", "sha": "b5"}
		], "truncated": false}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Resolve(t *testing.T) {
	api := newAPIServer(t)
	client := NewClient(WithBaseURLs(api.URL, api.URL))

	sha, description, err := client.Resolve(context.Background(), domainservice.NewRepoRef("acme", "widgets", ""))
	require.NoError(t, err)
	assert.Equal(t, "mainsha111", sha, "empty ref must resolve the default branch")
	assert.Equal(t, "A library for widgets", description)
}

func TestClient_ResolvePinnedRef(t *testing.T) {
	api := newAPIServer(t)
	client := NewClient(WithBaseURLs(api.URL, api.URL))

	sha, _, err := client.Resolve(context.Background(), domainservice.NewRepoRef("acme", "widgets", "v2.0.0"))
	require.NoError(t, err)
	assert.Equal(t, "tagsha222", sha)
}

func TestClient_ResolveUnknownRepo(t *testing.T) {
	api := newAPIServer(t)
	client := NewClient(WithBaseURLs(api.URL, api.URL))

	_, _, err := client.Resolve(context.Background(), domainservice.NewRepoRef("nobody", "nothing", ""))
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClient_ListDocFiles(t *testing.T) {
	api := newAPIServer(t)
	client := NewClient(WithBaseURLs(api.URL, api.URL))
	ref := domainservice.NewRepoRef("acme", "widgets", "")

	files, err := client.ListDocFiles(context.Background(), ref, "mainsha111", nil)
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path()
	}
	// Non-blob entries and non-markdown files are skipped; the extension
	// check is case-insensitive.
	assert.Equal(t, []string{"README.md", "docs/intro.md", "docs/api.mdx", "examples/demo.MD"}, paths)
}

func TestClient_ListDocFilesScopedToFolders(t *testing.T) {
	api := newAPIServer(t)
	client := NewClient(WithBaseURLs(api.URL, api.URL))
	ref := domainservice.NewRepoRef("acme", "widgets", "")

	files, err := client.ListDocFiles(context.Background(), ref, "mainsha111", []string{"docs/"})
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path()
	}
	assert.Equal(t, []string{"docs/intro.md", "docs/api.mdx"}, paths)
}

func TestClient_Content(t *testing.T) {
	var requestedPath string
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		fmt.Fprint(w, "# Intro\n\nSome docs.")
	}))
	t.Cleanup(raw.Close)

	client := NewClient(WithBaseURLs(raw.URL, raw.URL))
	ref := domainservice.NewRepoRef("acme", "widgets", "")

	content, err := client.Content(context.Background(), ref, "docs/intro.md")
	require.NoError(t, err)
	assert.Equal(t, "# Intro\n\nSome docs.", content)
	assert.Equal(t, "/acme/widgets/HEAD/docs/intro.md", requestedPath, "empty ref must fetch from HEAD")
}

func TestClient_ContentMissingFile(t *testing.T) {
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(raw.Close)

	client := NewClient(WithBaseURLs(raw.URL, raw.URL))
	ref := domainservice.NewRepoRef("acme", "widgets", "main")

	_, err := client.Content(context.Background(), ref, "docs/missing.md")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClient_SendsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"description": "", "default_branch": "main"}`)
	}))
	t.Cleanup(api.Close)

	client := NewClient(WithBaseURLs(api.URL, api.URL), WithToken("ghp_secret"))
	// The first Resolve call hits the repo endpoint; the second hits the
	// commit endpoint and reuses the same handler here.
	_, _, err := client.Resolve(context.Background(), domainservice.NewRepoRef("acme", "widgets", ""))
	require.NoError(t, err)
	assert.Equal(t, "Bearer ghp_secret", gotAuth)
}
