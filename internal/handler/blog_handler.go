package handler

import (
	"encoding/xml"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/models"
)

// commentView is a comment with its age rendered for display.
type commentView struct {
	Author string
	Body   string
	Date   string
	Age    string
}

// ShowBlog lists the posts of the request language, newest first.
func (a *API) ShowBlog(c *gin.Context) {
	lang := a.engine.GetLocale(c)
	posts, err := a.engine.Repository().GetAllPosts(lang)
	if err != nil {
		a.renderError(c, err)
		return
	}
	models.SortByDateDesc(posts)

	a.renderHTML(c, http.StatusOK, "blog.html", gin.H{
		"posts": posts,
	})
}

// ShowTag lists the posts of the request language carrying a tag.
func (a *API) ShowTag(c *gin.Context) {
	tag := strings.TrimSpace(c.Param("tag"))
	lang := a.engine.GetLocale(c)
	posts, err := a.engine.Repository().GetPostsByTag(tag, lang)
	if err != nil {
		a.renderError(c, err)
		return
	}
	models.SortByDateDesc(posts)

	a.renderHTML(c, http.StatusOK, "blog.html", gin.H{
		"title": tag,
		"tag":   tag,
		"posts": posts,
	})
}

// ShowPost renders a single post with its comments.
func (a *API) ShowPost(c *gin.Context) {
	post, err := a.engine.Repository().GetPost(c.Param("slug"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.renderPost(c, http.StatusOK, post, gin.H{
		"comment_sent": c.Query("comment_sent") == "true",
	})
}

// AddComment stores a reader comment and redirects back to the post.
func (a *API) AddComment(c *gin.Context) {
	slug := c.Param("slug")
	author := strings.TrimSpace(c.PostForm("author_name"))
	body := strings.TrimSpace(c.PostForm("comment"))

	err := a.engine.Repository().AddComment(author, body, slug)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrInvalidArgument):
		post, getErr := a.engine.Repository().GetPost(slug)
		if getErr != nil {
			a.renderError(c, getErr)
			return
		}
		a.renderPost(c, http.StatusBadRequest, post, gin.H{
			"comment_error": a.engine.Translate(c, "blog.comment_invalid"),
		})
		return
	default:
		a.renderError(c, err)
		return
	}

	query := url.Values{}
	query.Set("comment_sent", "true")
	query.Set("language", a.engine.GetLocale(c))
	c.Redirect(http.StatusSeeOther, a.BlogBase()+url.PathEscape(slug)+"?"+query.Encode())
}

// ShowPage renders a standalone page.
func (a *API) ShowPage(c *gin.Context) {
	page, err := a.engine.Repository().GetPage(c.Param("slug"))
	if err != nil {
		a.renderError(c, err)
		return
	}

	content, err := renderMarkdown(page.ContentInMarkdown)
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "page.html", gin.H{
		"title":   page.Title,
		"post":    page,
		"content": content,
	})
}

func (a *API) renderPost(c *gin.Context, status int, post models.Post, data gin.H) {
	content, err := renderMarkdown(post.ContentInMarkdown)
	if err != nil {
		a.renderError(c, err)
		return
	}

	now := time.Now()
	comments := make([]commentView, 0, len(post.Comments))
	for _, comment := range post.Comments {
		comments = append(comments, commentView{
			Author: comment.Author,
			Body:   comment.Comment,
			Date:   comment.Date,
			Age:    comment.TimeDelta(now),
		})
	}

	payload := gin.H{
		"title":    post.Title,
		"post":     post,
		"content":  content,
		"comments": comments,
	}
	for key, value := range data {
		payload[key] = value
	}
	a.renderHTML(c, status, "post.html", payload)
}

// renderError maps repository errors onto the 404 page or a 500.
func (a *API) renderError(c *gin.Context, err error) {
	if db.IsNotFound(err) {
		a.NotFound(c)
		return
	}
	c.Error(err)
	a.log(c).Error().Err(err).Str("path", c.Request.URL.Path).Msg("render page")
	a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{"title": "500"})
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description,omitempty"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
}

// ShowFeed serves the posts of the request language as RSS 2.0.
func (a *API) ShowFeed(c *gin.Context) {
	lang := a.engine.GetLocale(c)
	posts, err := a.engine.Repository().GetAllPosts(lang)
	if err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "feed unavailable")
		return
	}
	models.SortByDateDesc(posts)

	site := a.siteContext(c)
	description, _ := site["app_description"].(string)
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.engine.Config().AppName,
			Link:        hostBase(c) + a.BlogBase(),
			Description: description,
			Language:    lang,
		},
	}
	for _, post := range posts {
		link := a.postURL(c, post.Slug)
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       post.Title,
			Link:        link,
			GUID:        link,
			Description: post.Excerpt,
			Author:      post.Author,
			PubDate:     rssDate(post.Date),
		})
	}

	c.XML(http.StatusOK, feed)
}

var postDateLayouts = []string{time.RFC3339, models.CommentTimeLayout, time.DateOnly}

// rssDate renders a stored post date as RFC 1123, keeping it as is when it
// does not parse.
func rssDate(raw string) string {
	for _, layout := range postDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format(time.RFC1123Z)
		}
	}
	return raw
}
