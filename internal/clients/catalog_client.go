package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"catalog-ingestion-service/internal/models"
)

// Catalog is the contract the ingestion engine consumes for duplicate checks
// and product creation. The production implementation talks to a
// WooCommerce-compatible REST API; tests substitute a mock.
type Catalog interface {
	// ExistsBySKU reports whether the catalog already holds a product with
	// the given SKU.
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// CreateProduct submits the full creation payload (base product,
	// variations and image metadata) in a single call.
	CreateProduct(ctx context.Context, payload *models.ProductPayload) (*CreatedProduct, error)
}

// CreatedProduct is the catalog's answer to a successful creation.
type CreatedProduct struct {
	ID        int64  `json:"id"`
	Permalink string `json:"permalink"`
}

// CatalogClient is a WooCommerce REST API client. Requests are rate limited
// and retried with exponential backoff.
type CatalogClient struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	retrier        *Retrier
	timeout        time.Duration
}

// NewCatalogClient creates a catalog client for a WooCommerce store. baseURL
// is the store root; the wc/v3 path is appended per request.
func NewCatalogClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     &http.Client{Timeout: timeout},
		rateLimiter:    rate.NewLimiter(rate.Limit(4), 2), // 4 requests per second
		retrier:        NewRetrier(nil),
		timeout:        timeout,
	}
}

// Configured reports whether the client has credentials to talk to the store.
func (c *CatalogClient) Configured() bool {
	return c.baseURL != "" && c.consumerKey != "" && c.consumerSecret != ""
}

// ExistsBySKU checks the catalog for an existing product with the given SKU.
func (c *CatalogClient) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	params := url.Values{}
	params.Set("sku", sku)

	body, err := c.doRequest(ctx, http.MethodGet, "/products", params, nil)
	if err != nil {
		return false, err
	}

	var products []json.RawMessage
	if err := json.Unmarshal(body, &products); err != nil {
		return false, fmt.Errorf("failed to parse SKU lookup response: %w", err)
	}
	return len(products) > 0, nil
}

// CreateProduct submits the creation payload in one call.
func (c *CatalogClient) CreateProduct(ctx context.Context, payload *models.ProductPayload) (*CreatedProduct, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/products", nil, buildWooProduct(payload))
	if err != nil {
		return nil, err
	}

	var created CreatedProduct
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse creation response: %w", err)
	}
	return &created, nil
}

func (c *CatalogClient) doRequest(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody []byte
	if payload != nil {
		var err error
		if reqBody, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	endpoint := c.baseURL + "/wp-json/wc/v3" + path
	if params != nil {
		endpoint += "?" + params.Encode()
	}

	resp, err := c.retrier.DoHTTP(ctx, method+" "+path, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.consumerKey, c.consumerSecret)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// wooProduct is the wire shape of a WooCommerce product creation request.
type wooProduct struct {
	SKU              string         `json:"sku"`
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	RegularPrice     string         `json:"regular_price,omitempty"`
	SalePrice        string         `json:"sale_price,omitempty"`
	ManageStock      bool           `json:"manage_stock"`
	StockQuantity    *int           `json:"stock_quantity,omitempty"`
	Weight           string         `json:"weight,omitempty"`
	Dimensions       *wooDimensions `json:"dimensions,omitempty"`
	ShippingClass    string         `json:"shipping_class,omitempty"`
	Categories       []wooTerm      `json:"categories,omitempty"`
	Tags             []wooTerm      `json:"tags,omitempty"`
	ShortDescription string         `json:"short_description,omitempty"`
	Description      string         `json:"description,omitempty"`
	Attributes       []wooAttribute `json:"attributes,omitempty"`
	Variations       []wooVariation `json:"variations,omitempty"`
	Images           []wooImage     `json:"images,omitempty"`
}

type wooDimensions struct {
	Length string `json:"length,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

type wooTerm struct {
	Name string `json:"name"`
}

type wooAttribute struct {
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Variation bool     `json:"variation"`
	Visible   bool     `json:"visible"`
}

type wooVariation struct {
	SKU           string             `json:"sku"`
	RegularPrice  string             `json:"regular_price,omitempty"`
	StockQuantity *int               `json:"stock_quantity,omitempty"`
	Attributes    []wooVariationAttr `json:"attributes"`
}

type wooVariationAttr struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

type wooImage struct {
	Name     string `json:"name,omitempty"`
	Alt      string `json:"alt,omitempty"`
	Position int    `json:"position"`
}

func buildWooProduct(p *models.ProductPayload) *wooProduct {
	product := &wooProduct{
		SKU:              p.SKU,
		Name:             p.Name,
		Type:             p.Type,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		ManageStock:      p.StockQuantity != nil,
		StockQuantity:    p.StockQuantity,
		Weight:           p.Weight,
		ShippingClass:    p.ShippingClass,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
	}

	if p.Dimensions != (models.Dimensions{}) {
		product.Dimensions = &wooDimensions{
			Length: p.Dimensions.Length,
			Width:  p.Dimensions.Width,
			Height: p.Dimensions.Height,
		}
	}
	for _, name := range p.Categories {
		product.Categories = append(product.Categories, wooTerm{Name: name})
	}
	for _, name := range p.Tags {
		product.Tags = append(product.Tags, wooTerm{Name: name})
	}
	for _, attr := range p.Attributes {
		options := splitPipe(attr.RawValues)
		product.Attributes = append(product.Attributes, wooAttribute{
			Name:      attr.Name,
			Options:   options,
			Variation: attr.ForVariations,
			Visible:   attr.Visible,
		})
	}
	for _, v := range p.Variations {
		attrs := make([]wooVariationAttr, len(v.Selections))
		for i, sel := range v.Selections {
			attrs[i] = wooVariationAttr{Name: sel.Attribute, Option: sel.Value}
		}
		product.Variations = append(product.Variations, wooVariation{
			SKU:           v.SKU,
			RegularPrice:  v.RegularPrice,
			StockQuantity: v.StockQuantity,
			Attributes:    attrs,
		})
	}
	for _, img := range p.Images {
		product.Images = append(product.Images, wooImage{
			Name:     img.FileName,
			Alt:      img.NameHint,
			Position: img.Position,
		})
	}
	return product
}

func splitPipe(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, "|") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
