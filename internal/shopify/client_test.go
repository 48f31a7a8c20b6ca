package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"blogsmith/internal/core"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(server.URL, "test-token",
		WithHTTPClient(server.Client()),
		WithRequestInterval(time.Millisecond),
	)
	return client, server
}

func articlesJSON(ids ...int64) string {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		published := base.Add(time.Duration(id) * time.Hour).Format(time.RFC3339)
		parts = append(parts, fmt.Sprintf(
			`{"id": %d, "blog_id": 7, "handle": "article-%d", "title": "Article %d", "published_at": %q}`,
			id, id, id, published))
	}
	return `{"articles": [` + strings.Join(parts, ",") + `]}`
}

func TestNormalizeStoreURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare domain", in: "shop.example", want: "https://shop.example"},
		{name: "trailing slash", in: "https://shop.example/", want: "https://shop.example"},
		{name: "already normalized", in: "https://shop.example", want: "https://shop.example"},
		{name: "http preserved", in: "http://shop.example", want: "http://shop.example"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeStoreURL(tt.in); got != tt.want {
				t.Errorf("NormalizeStoreURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFetchArticlesFromDeduplicates(t *testing.T) {
	// Three backward pages where the boundary record repeats on the
	// next page, then an empty page. Five distinct records total.
	pages := []string{
		articlesJSON(5, 4, 3),
		articlesJSON(3, 2, 1),
		articlesJSON(),
	}
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "test-token" {
			t.Errorf("access token header = %q, want %q", got, "test-token")
		}
		if r.URL.Query().Get("published_at_max") == "" {
			t.Error("backward traversal request missing published_at_max")
		}
		if calls >= len(pages) {
			t.Fatalf("unexpected request %d to %s", calls, r.URL)
		}
		fmt.Fprint(w, pages[calls])
		calls++
	}))

	ref := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	records, err := client.FetchArticlesFrom(context.Background(), 7, ref, core.Backward)
	if err != nil {
		t.Fatalf("FetchArticlesFrom returned error: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}

	seen := make(map[int64]bool)
	for _, rec := range records {
		if seen[rec.ID] {
			t.Errorf("record %d returned twice", rec.ID)
		}
		seen[rec.ID] = true
	}
	for id := int64(1); id <= 5; id++ {
		if !seen[id] {
			t.Errorf("record %d missing from result", id)
		}
	}
	if calls != 3 {
		t.Errorf("server received %d requests, want 3", calls)
	}
}

func TestFetchArticlesFromStallsOnRepeatedPage(t *testing.T) {
	// The endpoint keeps returning the same full page. The traversal
	// must notice the lack of progress instead of looping.
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, articlesJSON(9, 8, 7))
	}))

	records, err := client.FetchArticlesFrom(context.Background(), 7, time.Now(), core.Backward)
	if err != nil {
		t.Fatalf("FetchArticlesFrom returned error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
	if calls > 2 {
		t.Errorf("server received %d requests, want at most 2", calls)
	}
}

func TestFetchAllArticlesMergesBothDirections(t *testing.T) {
	// Backward serves {3,2,1}, forward serves {3,4,5,6}; record 3 sits
	// on the boundary and appears in both streams.
	var backwardCalls, forwardCalls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Query().Get("published_at_max") != "":
			backwardCalls++
			if backwardCalls == 1 {
				fmt.Fprint(w, articlesJSON(3, 2, 1))
				return
			}
			fmt.Fprint(w, articlesJSON())
		case r.URL.Query().Get("published_at_min") != "":
			forwardCalls++
			if forwardCalls == 1 {
				fmt.Fprint(w, articlesJSON(3, 4, 5, 6))
				return
			}
			fmt.Fprint(w, articlesJSON())
		default:
			t.Errorf("request %s carries no timestamp bound", r.URL)
		}
	}))

	records, err := client.FetchAllArticles(context.Background(), 7, time.Now().UTC())
	if err != nil {
		t.Fatalf("FetchAllArticles returned error: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("got %d records, want 6", len(records))
	}

	seen := make(map[int64]bool)
	for _, rec := range records {
		seen[rec.ID] = true
	}
	for id := int64(1); id <= 6; id++ {
		if !seen[id] {
			t.Errorf("record %d missing from merged result", id)
		}
	}
}

func TestFetchAllArticlesDiscardsPartialOnError(t *testing.T) {
	// Both directional requests of a round arrive concurrently.
	var mu sync.Mutex
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= 2 {
			fmt.Fprint(w, articlesJSON(int64(n*10), int64(n*10-1), int64(n*10-2)))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"errors": "boom"}`)
	}))

	records, err := client.FetchAllArticles(context.Background(), 7, time.Now().UTC())
	if err == nil {
		t.Fatal("expected error from failing endpoint")
	}
	if records != nil {
		t.Errorf("got %d partial records, want none", len(records))
	}

	var fetchErr *RemoteFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want RemoteFetchError", err)
	}
	if fetchErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", fetchErr.Status, http.StatusInternalServerError)
	}
	if !strings.Contains(fetchErr.Body, "boom") {
		t.Errorf("body %q does not preserve the response text", fetchErr.Body)
	}
}

func TestIsNetworkError(t *testing.T) {
	if IsNetworkError(&RemoteFetchError{Status: 404}) {
		t.Error("RemoteFetchError classified as network error")
	}
	if IsNetworkError(&RemoteWriteError{Status: 422}) {
		t.Error("RemoteWriteError classified as network error")
	}
	if IsNetworkError(fmt.Errorf("wrapped: %w", &RemoteFetchError{Status: 500})) {
		t.Error("wrapped RemoteFetchError classified as network error")
	}
	if !IsNetworkError(errors.New("connection refused")) {
		t.Error("plain transport error not classified as network error")
	}
	if IsNetworkError(nil) {
		t.Error("nil classified as network error")
	}
}

func TestAllProductsFollowsLinkHeader(t *testing.T) {
	var server *httptest.Server
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch {
		case r.URL.Query().Get("page_info") == "":
			next := fmt.Sprintf("%s/admin/api/%s/products.json?page_info=abc&limit=250", server.URL, apiVersion)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
			fmt.Fprint(w, `{"products": [{"id": 1, "title": "One", "handle": "one", "status": "active",
				"images": [{"src": "https://cdn.example/one.jpg", "alt": "One"}]}]}`)
		default:
			fmt.Fprint(w, `{"products": [{"id": 2, "title": "Two", "handle": "two", "status": "active"}]}`)
		}
	})
	client, srv := newTestClient(t, handler)
	server = srv

	products, err := client.AllProducts(context.Background())
	if err != nil {
		t.Fatalf("AllProducts returned error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if calls != 2 {
		t.Errorf("server received %d requests, want 2", calls)
	}
	if products[0].ImageSrc != "https://cdn.example/one.jpg" {
		t.Errorf("first product image = %q", products[0].ImageSrc)
	}
	if products[1].Handle != "two" {
		t.Errorf("second product handle = %q, want %q", products[1].Handle, "two")
	}
}

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{
			name: "next only",
			link: `<https://shop.example/products.json?page_info=abc>; rel="next"`,
			want: "https://shop.example/products.json?page_info=abc",
		},
		{
			name: "previous and next",
			link: `<https://shop.example/p.json?page_info=prev>; rel="previous", <https://shop.example/p.json?page_info=next>; rel="next"`,
			want: "https://shop.example/p.json?page_info=next",
		},
		{
			name: "previous only",
			link: `<https://shop.example/p.json?page_info=prev>; rel="previous"`,
			want: "",
		},
		{name: "empty header", link: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextPageURL(tt.link); got != tt.want {
				t.Errorf("nextPageURL(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}

func TestReplaceArticleByHandleDeletesMatch(t *testing.T) {
	var deleted []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			fmt.Fprint(w, `{}`)
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"article": {"id": 99, "blog_id": 7, "handle": "widget-guide", "title": "Replacement",
				"published_at": "2024-06-01T12:00:00Z"}}`)
		case r.URL.Query().Get("published_at_max") != "" && len(deleted) == 0:
			// Existing set: one article sharing the handle, one not.
			fmt.Fprint(w, `{"articles": [
				{"id": 11, "blog_id": 7, "handle": "widget-guide", "title": "Old", "published_at": "2024-05-01T12:00:00Z"},
				{"id": 12, "blog_id": 7, "handle": "other", "title": "Other", "published_at": "2024-05-02T12:00:00Z"}]}`)
		default:
			fmt.Fprint(w, `{"articles": []}`)
		}
	}))

	record, err := client.ReplaceArticleByHandle(context.Background(), 7, "widget-guide",
		core.ArticleDraft{Title: "Replacement", BodyHTML: "<p>x</p>"})
	if err != nil {
		t.Fatalf("ReplaceArticleByHandle returned error: %v", err)
	}
	if record.ID != 99 {
		t.Errorf("created article ID = %d, want 99", record.ID)
	}
	if len(deleted) != 1 {
		t.Fatalf("deleted %d articles, want 1", len(deleted))
	}
	if !strings.HasSuffix(deleted[0], "/articles/11.json") {
		t.Errorf("deleted wrong article: %s", deleted[0])
	}
}
