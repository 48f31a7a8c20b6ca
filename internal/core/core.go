package core

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a model conversation. Order within a
// conversation is meaningful and must be preserved.
type Message struct {
	Role    Role   `json:"role"`    // Author of the message
	Content string `json:"content"` // Message text
}

// GenerationRequest describes one call to the generative model. It is
// built once and not mutated afterwards; retries reuse the same request.
type GenerationRequest struct {
	Messages    []Message `json:"messages"`    // Ordered conversation
	Model       string    `json:"model"`       // Model identifier
	Temperature float32   `json:"temperature"` // Sampling temperature
	JSONOutput  bool      `json:"json_output"` // Request a JSON response envelope
}

// TokenUsage records the token accounting reported by the model endpoint.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`  // Tokens consumed by the prompt
	OutputTokens int `json:"output_tokens"` // Tokens in the generated text
	TotalTokens  int `json:"total_tokens"`  // Sum reported by the endpoint
}

// GenerationResult is the raw outcome of a model call. RawText is
// untrusted until it has passed contract validation.
type GenerationResult struct {
	RawText string     `json:"raw_text"` // Generated text, expected to be JSON
	Usage   TokenUsage `json:"usage"`    // Token accounting for the call
}

// ValidatedContent maps field names to values that have passed a content
// shape contract. It is created once per successful generation attempt
// and owned by the caller that assembles the final document.
type ValidatedContent map[string]string

// Field returns the named field or the empty string when absent.
func (v ValidatedContent) Field(name string) string {
	return v[name]
}

// ArticleRecord is a blog article as stored remotely. Identity is the
// remote ID; the handle is a stable slug used as a secondary key when
// replacing an article with a regenerated version.
type ArticleRecord struct {
	ID          int64     `json:"id"`           // Remote identifier
	BlogID      int64     `json:"blog_id"`      // Owning blog
	Handle      string    `json:"handle"`       // Stable human-readable slug
	Title       string    `json:"title"`        // Article title
	Author      string    `json:"author"`       // Author name
	Tags        string    `json:"tags"`         // Comma-separated tags
	BodyHTML    string    `json:"body_html"`    // Full HTML body
	PublishedAt time.Time `json:"published_at"` // Publish timestamp, pagination key
}

// ArticleDraft holds the fields sent when creating a new remote article.
type ArticleDraft struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Tags     string `json:"tags"`
	BodyHTML string `json:"body_html"`
	ImageSrc string `json:"image_src,omitempty"` // Optional header image URL
	ImageAlt string `json:"image_alt,omitempty"` // Alt text for the header image
}

// Product is a store product as returned by the remote product listing.
type Product struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	BodyHTML string `json:"body_html"`
	Tags     string `json:"tags"`
	Status   string `json:"status"`
	Handle   string `json:"handle"`
	ImageSrc string `json:"image_src,omitempty"` // Primary product image URL
	ImageAlt string `json:"image_alt,omitempty"` // Alt text of the primary image
}

// Blog identifies a remote blog that articles are published into.
type Blog struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Shop is the subset of remote shop metadata the tool uses.
type Shop struct {
	Name            string `json:"name"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
}

// Direction selects which way a paginated traversal walks the publish
// timeline relative to its reference timestamp.
type Direction int

const (
	// Backward requests records published at or before the cursor.
	Backward Direction = iota
	// Forward requests records published at or after the cursor.
	Forward
)

// String returns the traversal direction name for logging.
func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// FetchCursor tracks the position of one directional traversal. The
// last-seen ID detects endpoints that stop making progress independently
// of how many records a page carried.
type FetchCursor struct {
	Reference  time.Time // Timestamp the next page is requested against
	Direction  Direction // Traversal direction
	LastSeenID int64     // Last record ID of the previous page, 0 before the first page
}

// Advance moves the cursor one second beyond the given record timestamp
// in the traversal direction, so the boundary record is not requested
// again on the next page.
func (c FetchCursor) Advance(last time.Time, lastID int64) FetchCursor {
	next := c
	next.LastSeenID = lastID
	if c.Direction == Forward {
		next.Reference = last.Add(time.Second)
	} else {
		next.Reference = last.Add(-time.Second)
	}
	return next
}
