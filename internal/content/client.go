// Package content reads the product catalog from the Sanity content API
// using GROQ over REST.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/aroma-notes/api/internal/domain"
)

// ErrProductNotFound is returned when no document matches the slug.
var ErrProductNotFound = errors.New("content: product not found")

const productsQuery = `*[_type == "product"] | order(_createdAt desc) {
  _id,
  name,
  "slug": slug.current,
  brand,
  gender,
  perfumeType,
  "coverImageUrl": coverImage.asset->url,
  "descriptionHtml": pt::text(description),
  variants[]{ size, price, discountPrice, inStock, "photoUrl": photo.asset->url },
  mainAccords[]{ name, percentage, colorHex },
  _createdAt,
  _updatedAt
}`

// Config selects the Sanity project and dataset.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	CacheTTL   time.Duration
}

// Client queries Sanity and caches the full product list. Sanity's CDN
// serves responses with a 60s freshness window; the client-side TTL
// mirrors that so repeated storefront loads don't refetch.
type Client struct {
	cfg       Config
	http      *http.Client
	sanitizer *bluemonday.Policy

	mu        sync.Mutex
	cached    []domain.Product
	fetchedAt time.Time
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("content: sanity project id is required")
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "production"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-01-01"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		cfg:       cfg,
		http:      httpClient,
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

// Products returns the catalog, served from cache within the TTL.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.cfg.CacheTTL {
		products := c.cached
		c.mu.Unlock()
		return products, nil
	}
	c.mu.Unlock()

	products, err := c.fetchProducts(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = products
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return products, nil
}

// ProductBySlug finds one product in the cached catalog.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	want := strings.ToLower(strings.TrimSpace(slug))
	for _, p := range products {
		if strings.ToLower(p.Slug) == want {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

// Invalidate drops the cache so the next read refetches.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

func (c *Client) fetchProducts(ctx context.Context) ([]domain.Product, error) {
	endpoint := c.queryURL(productsQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("content: build request: %w", err)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content: query sanity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("content: sanity returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Result []sanityProduct `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("content: decode response: %w", err)
	}

	products := make([]domain.Product, 0, len(envelope.Result))
	for _, raw := range envelope.Result {
		products = append(products, c.toDomain(raw))
	}
	return products, nil
}

func (c *Client) queryURL(query string) string {
	host := c.cfg.ProjectID + ".api.sanity.io"
	if c.cfg.UseCDN {
		host = c.cfg.ProjectID + ".apicdn.sanity.io"
	}
	return fmt.Sprintf("https://%s/v%s/data/query/%s?query=%s",
		host, c.cfg.APIVersion, c.cfg.Dataset, url.QueryEscape(query))
}

type sanityVariant struct {
	Size          string   `json:"size"`
	Price         *float64 `json:"price"`
	DiscountPrice *float64 `json:"discountPrice"`
	InStock       *bool    `json:"inStock"`
	PhotoURL      string   `json:"photoUrl"`
}

type sanityAccord struct {
	Name       string   `json:"name"`
	Percentage *float64 `json:"percentage"`
	ColorHex   string   `json:"colorHex"`
}

type sanityProduct struct {
	ID              string          `json:"_id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Brand           string          `json:"brand"`
	Gender          string          `json:"gender"`
	PerfumeType     string          `json:"perfumeType"`
	CoverImageURL   string          `json:"coverImageUrl"`
	DescriptionHTML string          `json:"descriptionHtml"`
	Variants        []sanityVariant `json:"variants"`
	MainAccords     []sanityAccord  `json:"mainAccords"`
	CreatedAt       time.Time       `json:"_createdAt"`
	UpdatedAt       time.Time       `json:"_updatedAt"`
}

func (c *Client) toDomain(raw sanityProduct) domain.Product {
	product := domain.Product{
		ID:              raw.ID,
		Name:            strings.TrimSpace(raw.Name),
		Slug:            strings.TrimSpace(raw.Slug),
		Brand:           strings.TrimSpace(raw.Brand),
		Gender:          domain.Gender(strings.ToLower(raw.Gender)),
		PerfumeType:     domain.PerfumeType(strings.ToLower(raw.PerfumeType)),
		CoverImageURL:   raw.CoverImageURL,
		DescriptionHTML: c.sanitizer.Sanitize(raw.DescriptionHTML),
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
	}

	for _, v := range raw.Variants {
		variant := domain.ProductVariant{
			Size:     strings.TrimSpace(v.Size),
			PhotoURL: v.PhotoURL,
			InStock:  v.InStock == nil || *v.InStock,
		}
		if v.Price != nil {
			price := int64(*v.Price)
			variant.Price = &price
		}
		if v.DiscountPrice != nil {
			price := int64(*v.DiscountPrice)
			variant.DiscountPrice = &price
		}
		product.Variants = append(product.Variants, variant)
	}

	for _, a := range raw.MainAccords {
		accord := domain.ProductAccord{Name: strings.TrimSpace(a.Name), ColorHex: a.ColorHex}
		if a.Percentage != nil {
			accord.Percentage = int(*a.Percentage)
		}
		product.MainAccords = append(product.MainAccords, accord)
	}
	return product
}
