package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sitemapIndex = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap_products_1.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap_pages_1.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap_blogs_1.xml</loc></sitemap>
</sitemapindex>`

const productSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"
        xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
  <url>
    <loc>https://shop.example/collections/all</loc>
  </url>
  <url>
    <loc>https://shop.example/products/widget</loc>
    <image:image>
      <image:loc>https://cdn.example/widget.jpg</image:loc>
      <image:title>Widget</image:title>
    </image:image>
  </url>
  <url>
    <loc>https://shop.example/products/gadget</loc>
  </url>
</urlset>`

func TestAllSitemapProducts(t *testing.T) {
	var server *httptest.Server
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			fmt.Fprintf(w, sitemapIndex, server.URL, server.URL, server.URL)
		case "/sitemap_products_1.xml":
			fmt.Fprint(w, productSitemap)
		default:
			t.Errorf("unexpected request for %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
	client, srv := newTestClient(t, handler)
	server = srv

	entries, err := client.AllSitemapProducts(context.Background())
	if err != nil {
		t.Fatalf("AllSitemapProducts returned error: %v", err)
	}
	// The collection page entry at the top of the product sitemap is
	// skipped; the pages and blogs sitemaps are never requested.
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].URL != "https://shop.example/products/widget" {
		t.Errorf("first entry URL = %q", entries[0].URL)
	}
	if entries[0].ImageURL != "https://cdn.example/widget.jpg" {
		t.Errorf("first entry image = %q", entries[0].ImageURL)
	}
	if entries[0].ImageTitle != "Widget" {
		t.Errorf("first entry image title = %q", entries[0].ImageTitle)
	}
	if entries[1].URL != "https://shop.example/products/gadget" {
		t.Errorf("second entry URL = %q", entries[1].URL)
	}
	if entries[1].ImageURL != "" {
		t.Errorf("second entry image = %q, want empty", entries[1].ImageURL)
	}
}

func TestProductMapsFiltersIndex(t *testing.T) {
	var server *httptest.Server
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, sitemapIndex, server.URL, server.URL, server.URL)
	})
	client, srv := newTestClient(t, handler)
	server = srv

	maps, err := client.ProductMaps(context.Background())
	if err != nil {
		t.Fatalf("ProductMaps returned error: %v", err)
	}
	if len(maps) != 1 {
		t.Fatalf("got %d product maps, want 1", len(maps))
	}
	if maps[0] != server.URL+"/sitemap_products_1.xml" {
		t.Errorf("product map = %q", maps[0])
	}
}
