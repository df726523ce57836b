package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quillcms/internal/models"
)

const graphQLTimeout = 15 * time.Second

// GraphQLClient posts queries to a remote content API. It holds no per-request
// state and is safe for concurrent use.
type GraphQLClient struct {
	endpoint string
	http     *resty.Client
}

// GraphQLError is one entry of the "errors" array of a response.
type GraphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// NewGraphQLClient authenticates every request with a bearer token.
func NewGraphQLClient(endpoint, token string) *GraphQLClient {
	client := resty.New().
		SetTimeout(graphQLTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &GraphQLClient{endpoint: endpoint, http: client}
}

// Execute runs query with vars and decodes the "data" member into out.
func (c *GraphQLClient) Execute(query string, vars map[string]any, out any) error {
	var envelope graphQLResponse
	resp, err := c.http.R().
		SetBody(map[string]any{"query": query, "variables": vars}).
		SetResult(&envelope).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("graphql request: unexpected status %d", resp.StatusCode())
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("graphql: %s", strings.Join(messages, "; "))
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

const (
	allPostsQuery = `query AllPosts($lang: Lang!) {
  posts(where: {language: $lang}, orderBy: date_DESC, stage: PUBLISHED) {
    author { name }
    contentInRichText { html }
    comments { comment author createdAt }
    date title excerpt slug tags language
    coverImage { alternateText image { url } }
  }
}`
	postQuery = `query Post($slug: String!) {
  post(where: {slug: $slug}, stage: PUBLISHED) {
    author { name }
    contentInRichText { html }
    comments { comment author createdAt }
    date title excerpt slug tags language
    coverImage { alternateText image { url } }
  }
}`
	pageQuery = `query Page($slug: String!) {
  page(where: {slug: $slug}, stage: PUBLISHED) {
    title slug language contentInMarkdown
    coverImage { url }
  }
}`
	postsByTagQuery = `query PostsByTag($tag: String!, $lang: Lang!) {
  posts(where: {tags_contains_some: [$tag], language: $lang}, stage: PUBLISHED) {
    author { name }
    contentInRichText { html }
    comments { comment author createdAt }
    date title excerpt slug tags language
    coverImage { alternateText image { url } }
  }
}`
	menuItemsQuery = `query MenuItems($lang: Lang!) {
  menuItems(where: {language: $lang}, stage: PUBLISHED) { name url }
}`
	addCommentMutation = `mutation AddComment($author: String!, $comment: String!, $slug: String!) {
  createComment(data: {author: $author, comment: $comment, post: {connect: {slug: $slug}}}) { id }
}`
)

type remoteComment struct {
	Author    string `json:"author"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

type remotePost struct {
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
	Slug              string `json:"slug"`
	Title             string `json:"title"`
	Excerpt           string `json:"excerpt"`
	ContentInRichText struct {
		HTML string `json:"html"`
	} `json:"contentInRichText"`
	Comments   []remoteComment `json:"comments"`
	Tags       []string        `json:"tags"`
	Language   string          `json:"language"`
	Date       string          `json:"date"`
	CoverImage *struct {
		AlternateText string `json:"alternateText"`
		Image         *struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"coverImage"`
}

func (r remotePost) standardize() (models.Post, error) {
	post := models.Post{
		Author:            r.Author.Name,
		Slug:              r.Slug,
		Title:             r.Title,
		Excerpt:           r.Excerpt,
		ContentInMarkdown: r.ContentInRichText.HTML,
		Tags:              r.Tags,
		Language:          r.Language,
		Date:              r.Date,
		Comments:          make([]models.Comment, 0, len(r.Comments)),
	}
	if r.CoverImage != nil {
		post.CoverImage.AlternateText = r.CoverImage.AlternateText
		if r.CoverImage.Image != nil {
			post.CoverImage.URL = r.CoverImage.Image.URL
		}
	}
	for _, c := range r.Comments {
		post.Comments = append(post.Comments, models.Comment{Author: c.Author, Comment: c.Comment, Date: c.CreatedAt})
	}
	if err := models.Validate(post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

type remotePage struct {
	Title             string `json:"title"`
	Slug              string `json:"slug"`
	Language          string `json:"language"`
	ContentInMarkdown string `json:"contentInMarkdown"`
	CoverImage        *struct {
		URL string `json:"url"`
	} `json:"coverImage"`
}

// GraphQL reads content from a remote GraphQL content API, one request per operation.
type GraphQL struct {
	Client *GraphQLClient

	ext extensionSet
}

// NewGraphQL connects to endpoint lazily; no request is made here.
func NewGraphQL(endpoint, token string) (*GraphQL, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("%w: graphql database needs an endpoint", ErrInvalidArgument)
	}
	return &GraphQL{Client: NewGraphQLClient(endpoint, token)}, nil
}

func (g *GraphQL) Name() string { return "graph_ql_db" }

func (g *GraphQL) queryPosts(query string, vars map[string]any) ([]models.Post, error) {
	var data struct {
		Posts []remotePost `json:"posts"`
	}
	if err := g.Client.Execute(query, vars, &data); err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(data.Posts))
	for i, raw := range data.Posts {
		post, err := raw.standardize()
		if err != nil {
			return nil, fmt.Errorf("posts[%d]: %w", i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (g *GraphQL) GetAllPosts(lang string) ([]models.Post, error) {
	return g.queryPosts(allPostsQuery, map[string]any{"lang": lang})
}

func (g *GraphQL) GetPost(slug string) (models.Post, error) {
	var data struct {
		Post *remotePost `json:"post"`
	}
	if err := g.Client.Execute(postQuery, map[string]any{"slug": slug}, &data); err != nil {
		return models.Post{}, err
	}
	if data.Post == nil {
		return models.Post{}, fmt.Errorf("%w: post %q", ErrNotFound, slug)
	}
	return data.Post.standardize()
}

func (g *GraphQL) GetPage(slug string) (models.Page, error) {
	var data struct {
		Page *remotePage `json:"page"`
	}
	if err := g.Client.Execute(pageQuery, map[string]any{"slug": slug}, &data); err != nil {
		return models.Page{}, err
	}
	if data.Page == nil {
		return models.Page{}, fmt.Errorf("%w: page %q", ErrNotFound, slug)
	}
	page := models.Page{
		Slug:              data.Page.Slug,
		Title:             data.Page.Title,
		Language:          data.Page.Language,
		ContentInMarkdown: data.Page.ContentInMarkdown,
		Comments:          []models.Comment{},
	}
	if page.Slug == "" {
		page.Slug = slug
	}
	if data.Page.CoverImage != nil {
		page.CoverImage.URL = data.Page.CoverImage.URL
	}
	return page, nil
}

func (g *GraphQL) GetPostsByTag(tag, lang string) ([]models.Post, error) {
	return g.queryPosts(postsByTagQuery, map[string]any{"tag": tag, "lang": lang})
}

func (g *GraphQL) AddComment(author, comment, postSlug string) error {
	if err := validateComment(author, comment, postSlug); err != nil {
		return err
	}
	if _, err := g.GetPost(postSlug); err != nil {
		return err
	}
	vars := map[string]any{"author": author, "comment": comment, "slug": postSlug}
	return g.Client.Execute(addCommentMutation, vars, nil)
}

func (g *GraphQL) GetMenuItems(lang string) ([]models.MenuItem, error) {
	var data struct {
		MenuItems []models.MenuItem `json:"menuItems"`
	}
	if err := g.Client.Execute(menuItemsQuery, map[string]any{"lang": lang}, &data); err != nil {
		return nil, err
	}
	if data.MenuItems == nil {
		return []models.MenuItem{}, nil
	}
	return data.MenuItems, nil
}

// The remote schema carries no site settings; theming falls back to defaults.

func (g *GraphQL) GetAppDescription(string) (string, error) { return "", nil }
func (g *GraphQL) GetLogoURL() (string, error)              { return "", nil }
func (g *GraphQL) GetFaviconURL() (string, error)           { return "", nil }
func (g *GraphQL) GetFont() (string, error)                 { return "", nil }

func (g *GraphQL) GetPrimaryColor() (models.Color, error) {
	return models.DefaultPrimaryColor, nil
}

func (g *GraphQL) GetSecondaryColor() (models.Color, error) {
	return models.DefaultSecondaryColor, nil
}

func (g *GraphQL) GetPluginsData() ([]models.PluginDeclaration, error) {
	return []models.PluginDeclaration{}, nil
}

func (g *GraphQL) Extend(name string, fn any) error {
	return g.ext.extend(name, fn)
}

func (g *GraphQL) Invoke(name string, args ...any) (any, error) {
	return g.ext.invoke(g, name, args)
}
