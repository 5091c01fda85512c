// Package shopapi implements the HTTP client for the remote shop API: the
// catalog, site configuration, coupon validation and order creation the
// storefront depends on. All pricing done upstream is authoritative; this
// client only ferries data for the local estimate.
package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/naranjashop/storefront/internal/domain/catalog"
	"github.com/naranjashop/storefront/internal/domain/coupon"
	"github.com/naranjashop/storefront/internal/domain/order"
	"github.com/naranjashop/storefront/internal/domain/site"
)

// Compile-time checks: the client is the single upstream gateway for every
// remote concern the domain declares.
var (
	_ catalog.Source   = (*Client)(nil)
	_ site.Provider    = (*Client)(nil)
	_ coupon.Validator = (*Client)(nil)
	_ order.Creator    = (*Client)(nil)
)

// maxErrorBody caps how much of an upstream error response is read.
const maxErrorBody = 64 << 10

// Client talks to the shop API over HTTPS/JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client for the API rooted at baseURL
// (e.g. https://api.example.com/api). Outbound requests are traced
// via otelhttp unless a custom HTTP client is supplied.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categories lists all catalog categories.
func (c *Client) Categories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	if err := c.getJSON(ctx, "/categories/", nil, &out); err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return out, nil
}

// Announcements lists active storefront announcements.
func (c *Client) Announcements(ctx context.Context) ([]catalog.Announcement, error) {
	var out []catalog.Announcement
	if err := c.getJSON(ctx, "/announcements/", nil, &out); err != nil {
		return nil, errors.Wrap(err, "list announcements")
	}
	return out, nil
}

// SiteConfig fetches the current store configuration.
func (c *Client) SiteConfig(ctx context.Context) (*site.Config, error) {
	var out site.Config
	if err := c.getJSON(ctx, "/config/", nil, &out); err != nil {
		return nil, errors.Wrap(err, "get site config")
	}
	return &out, nil
}

// Products lists a page of products. A 404 from the paginator is not an
// error: it means the requested page is past the end and yields an empty
// page.
func (c *Client) Products(ctx context.Context, q catalog.Query) (*catalog.Page, error) {
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Ordering != "" {
		query.Set("ordering", q.Ordering)
	}
	if q.Category > 0 {
		query.Set("category", strconv.FormatInt(q.Category, 10))
	}
	if q.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Promoted {
		query.Set("promoted", "true")
	}

	resp, err := c.get(ctx, "/products/", query)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &catalog.Page{Results: []catalog.Product{}}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "Error al cargar productos")
	}

	var page catalog.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, "decode products page")
	}
	if page.Results == nil {
		page.Results = []catalog.Product{}
	}
	return &page, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id int64) (*catalog.Product, error) {
	resp, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10)+"/", nil)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, catalog.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "Error al cargar el producto")
	}

	var p catalog.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	return &p, nil
}

// ValidateCoupon asks the shop API to resolve a coupon code. Only the six
// documented fields of the response are retained.
func (c *Client) ValidateCoupon(ctx context.Context, code string) (*coupon.Info, error) {
	resp, err := c.post(ctx, "/coupons/validate/", map[string]string{"code": code})
	if err != nil {
		return nil, errors.Wrap(err, "validate coupon")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    normalizeErrorBody(readErrorBody(resp), "No se pudo validar el cupón"),
		}
	}

	var info coupon.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "decode coupon info")
	}
	return &info, nil
}

// CreateOrder submits the draft for authoritative server-side pricing and
// creation. Upstream validation errors are normalized into a single message.
func (c *Client) CreateOrder(ctx context.Context, draft order.Draft) (*order.Order, error) {
	resp, err := c.post(ctx, "/orders/", draft)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    normalizeErrorBody(readErrorBody(resp), "No se pudo crear el pedido"),
		}
	}

	var o order.Order
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return &o, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	return c.http.Do(req)
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.http.Do(req)
}

// getJSON performs a GET and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp, "Error al cargar datos")
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readErrorBody(resp *http.Response) []byte {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil
	}
	return data
}

func statusError(resp *http.Response, fallback string) error {
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    normalizeErrorBody(readErrorBody(resp), fallback),
	}
}
