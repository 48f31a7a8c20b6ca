package shopify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SitemapEntry is one product URL from a store sitemap, with its image
// metadata when the sitemap carries any.
type SitemapEntry struct {
	URL        string
	ImageURL   string
	ImageTitle string
}

// ProductMaps returns the URLs of the store's product sub-sitemaps. The
// root sitemap.xml is an index of sub-sitemaps; product ones carry
// "products" in their location.
func (c *Client) ProductMaps(ctx context.Context) ([]string, error) {
	doc, err := c.fetchXML(ctx, c.baseURL+"/sitemap.xml")
	if err != nil {
		return nil, err
	}

	var maps []string
	doc.Find("sitemap loc").Each(func(_ int, sel *goquery.Selection) {
		loc := strings.TrimSpace(sel.Text())
		if strings.Contains(loc, "products") {
			maps = append(maps, loc)
		}
	})
	return maps, nil
}

// SitemapProducts fetches one product sub-sitemap and returns its
// entries. The first entry of a product sitemap is the collection page
// itself and is skipped.
func (c *Client) SitemapProducts(ctx context.Context, mapURL string) ([]SitemapEntry, error) {
	doc, err := c.fetchXML(ctx, mapURL)
	if err != nil {
		return nil, err
	}

	var entries []SitemapEntry
	doc.Find("url").Each(func(i int, sel *goquery.Selection) {
		if i == 0 {
			return
		}
		entries = append(entries, SitemapEntry{
			URL:        strings.TrimSpace(sel.Find("loc").First().Text()),
			ImageURL:   strings.TrimSpace(sel.Find(`image\:loc`).Text()),
			ImageTitle: strings.TrimSpace(sel.Find(`image\:title`).Text()),
		})
	})
	return entries, nil
}

// AllSitemapProducts walks every product sub-sitemap and concatenates
// their entries.
func (c *Client) AllSitemapProducts(ctx context.Context) ([]SitemapEntry, error) {
	maps, err := c.ProductMaps(ctx)
	if err != nil {
		return nil, err
	}

	var all []SitemapEntry
	for _, mapURL := range maps {
		entries, err := c.SitemapProducts(ctx, mapURL)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	c.log.Debug("read product sitemaps", "sitemaps", len(maps), "entries", len(all))
	return all, nil
}

// fetchXML performs a rate-limited GET against a storefront URL (not the
// admin API, so no token) and parses the body as a document.
func (c *Client) fetchXML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RemoteFetchError{Status: resp.StatusCode, Body: string(body)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document from %s: %w", rawURL, err)
	}
	return doc, nil
}
