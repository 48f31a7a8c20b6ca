package shopify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"blogsmith/internal/core"
)

type wireProduct struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	BodyHTML string `json:"body_html"`
	Tags     string `json:"tags"`
	Handle   string `json:"handle"`
	Status   string `json:"status"`
	Images   []struct {
		Src string `json:"src"`
		Alt string `json:"alt"`
	} `json:"images"`
}

func (w wireProduct) toCore() core.Product {
	p := core.Product{
		ID:       w.ID,
		Title:    w.Title,
		BodyHTML: w.BodyHTML,
		Tags:     w.Tags,
		Handle:   w.Handle,
		Status:   w.Status,
	}
	if len(w.Images) > 0 {
		p.ImageSrc = w.Images[0].Src
		p.ImageAlt = w.Images[0].Alt
	}
	return p
}

// ProductsPage fetches one page of products. pageURL is the full URL of
// the page to request; pass an empty string for the first page. The
// returned next URL is empty when no further page exists.
func (c *Client) ProductsPage(ctx context.Context, pageURL string) ([]core.Product, string, error) {
	if pageURL == "" {
		pageURL = c.apiURL("products.json", url.Values{"limit": {fmt.Sprintf("%d", MaxPageSize)}})
	}

	var out struct {
		Products []wireProduct `json:"products"`
	}
	headers, err := c.do(ctx, "GET", pageURL, nil, &out, 200, false)
	if err != nil {
		return nil, "", err
	}

	products := make([]core.Product, 0, len(out.Products))
	for _, w := range out.Products {
		products = append(products, w.toCore())
	}
	return products, nextPageURL(headers.Get("Link")), nil
}

// AllProducts follows the Link header chain until the store reports no
// next page.
func (c *Client) AllProducts(ctx context.Context) ([]core.Product, error) {
	var all []core.Product
	pageURL := ""
	for {
		page, next, err := c.ProductsPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		pageURL = next
	}
	c.log.Debug("fetched product catalog", "count", len(all))
	return all, nil
}

// CountProducts returns the store's total product count.
func (c *Client) CountProducts(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if _, err := c.get(ctx, c.apiURL("products/count.json", nil), &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ShopInfo fetches the store's own metadata record.
func (c *Client) ShopInfo(ctx context.Context) (core.Shop, error) {
	var out struct {
		Shop core.Shop `json:"shop"`
	}
	if _, err := c.get(ctx, c.apiURL("shop.json", nil), &out); err != nil {
		return core.Shop{}, err
	}
	return out.Shop, nil
}

// nextPageURL extracts the rel="next" target from a Link response
// header. Shopify formats it as:
//
//	<https://shop.example/admin/api/2024-01/products.json?page_info=...>; rel="next"
//
// possibly alongside a rel="previous" entry separated by a comma.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		target := strings.TrimSpace(segments[0])
		target = strings.TrimPrefix(target, "<")
		target = strings.TrimSuffix(target, ">")
		return target
	}
	return ""
}
