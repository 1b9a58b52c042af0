package content

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleResponse = `{
  "result": [
    {
      "_id": "prod-1",
      "name": "Midnight Oud",
      "slug": "midnight-oud",
      "brand": "Aroma Notes",
      "gender": "unisex",
      "perfumeType": "originals",
      "coverImageUrl": "https://cdn.sanity.example/cover.webp",
      "descriptionHtml": "Deep resinous oud <script>alert(1)</script> with rose.",
      "variants": [
        {"size": "50ml", "price": 5500, "inStock": true},
        {"size": "100ml", "price": 9800, "discountPrice": 8900, "inStock": true}
      ],
      "mainAccords": [{"name": "woody", "percentage": 80, "colorHex": "#8B5A2B"}]
    }
  ],
  "ms": 4
}`

func newServerClient(t *testing.T, hits *atomic.Int32, ttl time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("query") == "" {
			t.Error("query parameter missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{ProjectID: "abc123", CacheTTL: ttl}, server.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	// Point the client at the test server instead of *.sanity.io.
	client.http = server.Client()
	client.http.Transport = rewriteTransport{base: http.DefaultTransport, target: server.URL}
	return client, server
}

type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.target, "http://")
	return t.base.RoundTrip(req)
}

func TestProductsDecodeAndSanitize(t *testing.T) {
	var hits atomic.Int32
	client, _ := newServerClient(t, &hits, time.Minute)

	products, err := client.Products(t.Context())
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products", len(products))
	}

	p := products[0]
	if p.Slug != "midnight-oud" || p.Name != "Midnight Oud" {
		t.Fatalf("unexpected product %+v", p)
	}
	if strings.Contains(p.DescriptionHTML, "<script>") {
		t.Fatalf("description not sanitized: %q", p.DescriptionHTML)
	}
	if len(p.Variants) != 2 {
		t.Fatalf("got %d variants", len(p.Variants))
	}
	if p.Variants[1].DiscountPrice == nil || *p.Variants[1].DiscountPrice != 8900 {
		t.Fatalf("discount price not decoded: %+v", p.Variants[1])
	}
}

func TestProductsServedFromCache(t *testing.T) {
	var hits atomic.Int32
	client, _ := newServerClient(t, &hits, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := client.Products(t.Context()); err != nil {
			t.Fatalf("Products: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("backend hit %d times, want 1", hits.Load())
	}

	client.Invalidate()
	if _, err := client.Products(t.Context()); err != nil {
		t.Fatalf("Products after invalidate: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("backend hit %d times after invalidate, want 2", hits.Load())
	}
}

func TestProductBySlug(t *testing.T) {
	var hits atomic.Int32
	client, _ := newServerClient(t, &hits, time.Minute)

	p, err := client.ProductBySlug(t.Context(), " MIDNIGHT-OUD ")
	if err != nil {
		t.Fatalf("ProductBySlug: %v", err)
	}
	if p.ID != "prod-1" {
		t.Fatalf("unexpected product %+v", p)
	}

	if _, err := client.ProductBySlug(t.Context(), "missing"); err != ErrProductNotFound {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
}
