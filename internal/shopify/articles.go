package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"blogsmith/internal/core"
)

// wireArticle mirrors the store's article JSON.
type wireArticle struct {
	ID          int64  `json:"id"`
	BlogID      int64  `json:"blog_id"`
	Handle      string `json:"handle"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Tags        string `json:"tags"`
	BodyHTML    string `json:"body_html"`
	PublishedAt string `json:"published_at"`
}

func (w wireArticle) toRecord() core.ArticleRecord {
	publishedAt, err := time.Parse(time.RFC3339, w.PublishedAt)
	if err != nil {
		publishedAt = time.Time{}
	}
	return core.ArticleRecord{
		ID:          w.ID,
		BlogID:      w.BlogID,
		Handle:      w.Handle,
		Title:       w.Title,
		Author:      w.Author,
		Tags:        w.Tags,
		BodyHTML:    w.BodyHTML,
		PublishedAt: publishedAt,
	}
}

// ListArticlesPage requests one page of articles bounded by the cursor's
// reference timestamp: at or before it when traversing backward, at or
// after it when traversing forward. The endpoint serves at most
// MaxPageSize records regardless of limit.
func (c *Client) ListArticlesPage(ctx context.Context, blogID int64, cursor core.FetchCursor, limit int) ([]core.ArticleRecord, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	ref := cursor.Reference.UTC().Format(time.RFC3339)
	if cursor.Direction == core.Forward {
		query.Set("published_at_min", ref)
	} else {
		query.Set("published_at_max", ref)
	}

	var envelope struct {
		Articles []wireArticle `json:"articles"`
	}
	path := fmt.Sprintf("blogs/%d/articles.json", blogID)
	if _, err := c.get(ctx, c.apiURL(path, query), &envelope); err != nil {
		return nil, err
	}

	records := make([]core.ArticleRecord, 0, len(envelope.Articles))
	for _, w := range envelope.Articles {
		records = append(records, w.toRecord())
	}
	return records, nil
}

// CreateArticle publishes a new article into the blog.
func (c *Client) CreateArticle(ctx context.Context, blogID int64, draft core.ArticleDraft) (core.ArticleRecord, error) {
	payload := map[string]any{
		"article": buildArticlePayload(draft),
	}

	var envelope struct {
		Article wireArticle `json:"article"`
	}
	path := fmt.Sprintf("blogs/%d/articles.json", blogID)
	if _, err := c.do(ctx, http.MethodPost, c.apiURL(path, nil), payload, &envelope, http.StatusCreated, true); err != nil {
		return core.ArticleRecord{}, err
	}

	c.log.Info("article created", "blog_id", blogID, "article_id", envelope.Article.ID, "title", envelope.Article.Title)
	return envelope.Article.toRecord(), nil
}

func buildArticlePayload(draft core.ArticleDraft) map[string]any {
	article := map[string]any{
		"title":     draft.Title,
		"author":    draft.Author,
		"tags":      draft.Tags,
		"body_html": draft.BodyHTML,
	}
	if draft.ImageSrc != "" {
		article["image"] = map[string]string{
			"src": draft.ImageSrc,
			"alt": draft.ImageAlt,
		}
	}
	return article
}

// GetArticle fetches a single article by its remote ID.
func (c *Client) GetArticle(ctx context.Context, blogID, articleID int64) (core.ArticleRecord, error) {
	var envelope struct {
		Article wireArticle `json:"article"`
	}
	path := fmt.Sprintf("blogs/%d/articles/%d.json", blogID, articleID)
	if _, err := c.get(ctx, c.apiURL(path, nil), &envelope); err != nil {
		return core.ArticleRecord{}, err
	}
	return envelope.Article.toRecord(), nil
}

// DeleteArticle removes an article by its remote ID.
func (c *Client) DeleteArticle(ctx context.Context, blogID, articleID int64) error {
	path := fmt.Sprintf("blogs/%d/articles/%d.json", blogID, articleID)
	if _, err := c.do(ctx, http.MethodDelete, c.apiURL(path, nil), nil, nil, http.StatusOK, true); err != nil {
		return err
	}
	c.log.Info("article deleted", "blog_id", blogID, "article_id", articleID)
	return nil
}

// CountArticles returns the number of articles in the blog.
func (c *Client) CountArticles(ctx context.Context, blogID int64) (int, error) {
	var envelope struct {
		Count int `json:"count"`
	}
	path := fmt.Sprintf("blogs/%d/articles/count.json", blogID)
	if _, err := c.get(ctx, c.apiURL(path, nil), &envelope); err != nil {
		return 0, err
	}
	return envelope.Count, nil
}

// ListBlogs returns the blogs available on the store.
func (c *Client) ListBlogs(ctx context.Context) ([]core.Blog, error) {
	var envelope struct {
		Blogs []core.Blog `json:"blogs"`
	}
	if _, err := c.get(ctx, c.apiURL("blogs.json", nil), &envelope); err != nil {
		return nil, err
	}
	return envelope.Blogs, nil
}

// Metafield is custom data attached to a blog at creation time.
type Metafield struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
}

// CreateBlog creates a blog, optionally with one metafield attached.
func (c *Client) CreateBlog(ctx context.Context, title string, metafield *Metafield) (core.Blog, error) {
	blog := map[string]any{"title": title}
	if metafield != nil {
		blog["metafields"] = []Metafield{*metafield}
	}

	var envelope struct {
		Blog core.Blog `json:"blog"`
	}
	payload := map[string]any{"blog": blog}
	if _, err := c.do(ctx, http.MethodPost, c.apiURL("blogs.json", nil), payload, &envelope, http.StatusCreated, true); err != nil {
		return core.Blog{}, err
	}
	return envelope.Blog, nil
}

// ReplaceArticleByHandle upserts a draft: when an existing article shares
// the handle, it is deleted before the replacement is created. The
// existing set is reconstructed with the bidirectional fetch because the
// store offers no lookup-by-handle operation.
func (c *Client) ReplaceArticleByHandle(ctx context.Context, blogID int64, handle string, draft core.ArticleDraft) (core.ArticleRecord, error) {
	existing, err := c.FetchAllArticles(ctx, blogID, time.Now().UTC())
	if err != nil {
		return core.ArticleRecord{}, fmt.Errorf("failed to reconcile existing articles: %w", err)
	}

	for _, article := range existing {
		if article.Handle != handle {
			continue
		}
		if err := c.DeleteArticle(ctx, blogID, article.ID); err != nil {
			return core.ArticleRecord{}, fmt.Errorf("failed to replace article %d: %w", article.ID, err)
		}
	}

	return c.CreateArticle(ctx, blogID, draft)
}
