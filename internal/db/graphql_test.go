package db

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/internal/models"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

const remotePostJSON = `{
	"author": {"name": "Ann"},
	"slug": "first-post",
	"title": "First post",
	"excerpt": "first",
	"contentInRichText": {"html": "<p>First</p>"},
	"comments": [{"author": "Bob", "comment": "Nice", "createdAt": "2023-01-02T10:00:00.000Z"}],
	"tags": ["go"],
	"language": "en",
	"date": "2023-01-01",
	"coverImage": {"alternateText": "one", "image": {"url": "https://cdn/1.png"}}
}`

// fakeContentAPI answers the queries issued by the GraphQL backend.
type fakeContentAPI struct {
	mu       sync.Mutex
	requests []graphQLRequest
	auth     []string
}

func (f *fakeContentAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(req.Query, "query AllPosts"), strings.HasPrefix(req.Query, "query PostsByTag"):
		if req.Variables["lang"] == "en" {
			_, _ = w.Write([]byte(`{"data": {"posts": [` + remotePostJSON + `]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": {"posts": []}}`))
	case strings.HasPrefix(req.Query, "query Post("):
		if req.Variables["slug"] == "first-post" {
			_, _ = w.Write([]byte(`{"data": {"post": ` + remotePostJSON + `}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": {"post": null}}`))
	case strings.HasPrefix(req.Query, "query Page("):
		if req.Variables["slug"] == "about" {
			_, _ = w.Write([]byte(`{"data": {"page": {"title": "About", "contentInMarkdown": "About us", "coverImage": {"url": "https://cdn/a.png"}}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": {"page": null}}`))
	case strings.HasPrefix(req.Query, "query MenuItems"):
		_, _ = w.Write([]byte(`{"data": {"menuItems": [{"name": "Home", "url": "/"}]}}`))
	case strings.HasPrefix(req.Query, "mutation AddComment"):
		_, _ = w.Write([]byte(`{"data": {"createComment": {"id": "c1"}}}`))
	default:
		_, _ = w.Write([]byte(`{"errors": [{"message": "unknown query"}]}`))
	}
}

func newFakeGraphQL(t *testing.T) (*GraphQL, *fakeContentAPI) {
	t.Helper()
	api := &fakeContentAPI{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	repo, err := NewGraphQL(server.URL, "secret-token")
	require.NoError(t, err)
	return repo, api
}

func TestGraphQLStandardizesPosts(t *testing.T) {
	repo, api := newFakeGraphQL(t)

	posts, err := repo.GetAllPosts("en")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	post := posts[0]
	assert.Equal(t, "Ann", post.Author)
	assert.Equal(t, "<p>First</p>", post.ContentInMarkdown)
	assert.Equal(t, "https://cdn/1.png", post.CoverImage.URL)
	assert.Equal(t, []models.Comment{{Author: "Bob", Comment: "Nice", Date: "2023-01-02T10:00:00.000Z"}}, post.Comments)

	empty, err := repo.GetAllPosts("pl")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NotEmpty(t, api.auth)
	assert.Equal(t, "Bearer secret-token", api.auth[0])
}

func TestGraphQLNullResultIsNotFound(t *testing.T) {
	repo, _ := newFakeGraphQL(t)

	_, err := repo.GetPost("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetPage("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := repo.GetPage("about")
	require.NoError(t, err)
	assert.Equal(t, "about", page.Slug)
	assert.Equal(t, "https://cdn/a.png", page.CoverImage.URL)
}

func TestGraphQLAddCommentChecksPostFirst(t *testing.T) {
	repo, api := newFakeGraphQL(t)

	assert.ErrorIs(t, repo.AddComment("Ann", "hi", "missing"), ErrNotFound)
	for _, req := range api.requests {
		assert.False(t, strings.HasPrefix(req.Query, "mutation"), "mutation sent for unknown post")
	}

	require.NoError(t, repo.AddComment("Ann", "hi", "first-post"))
	last := api.requests[len(api.requests)-1]
	assert.True(t, strings.HasPrefix(last.Query, "mutation AddComment"))
	assert.Equal(t, map[string]any{"author": "Ann", "comment": "hi", "slug": "first-post"}, last.Variables)
}

func TestGraphQLDefaultsAndMenu(t *testing.T) {
	repo, _ := newFakeGraphQL(t)

	items, err := repo.GetMenuItems("en")
	require.NoError(t, err)
	assert.Equal(t, []models.MenuItem{{Name: "Home", URL: "/"}}, items)

	primary, err := repo.GetPrimaryColor()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPrimaryColor, primary)

	secondary, err := repo.GetSecondaryColor()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSecondaryColor, secondary)

	decls, err := repo.GetPluginsData()
	require.NoError(t, err)
	assert.Empty(t, decls)
}

func TestGraphQLErrorsArrayIsReturned(t *testing.T) {
	repo, _ := newFakeGraphQL(t)

	var out map[string]any
	err := repo.Client.Execute("query Unknown { x }", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown query")
}

func TestGraphQLRequiresEndpoint(t *testing.T) {
	_, err := NewGraphQL(" ", "token")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
