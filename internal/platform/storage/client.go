package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

// UploadTicket is everything a browser needs to PUT an object directly.
type UploadTicket struct {
	ObjectPath  string            `json:"objectPath"`
	UploadURL   string            `json:"uploadUrl"`
	Headers     map[string]string `json:"headers"`
	ContentType string            `json:"contentType"`
	MaxSize     int64             `json:"maxSize"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	PublicURL   string            `json:"publicUrl"`
}

// Client issues upload tickets and checks object existence.
type Client struct {
	bucket  string
	gcs     *gcs.Client
	signer  URLSigner
	ttl     time.Duration
	maxSize int64
	clock   func() time.Time
}

// Deps wires a Client.
type Deps struct {
	Bucket       string
	GCS          *gcs.Client
	Signer       URLSigner
	SignedURLTTL time.Duration
	MaxSlipSize  int64
	Clock        func() time.Time
}

// NewClient validates deps and returns a Client.
func NewClient(deps Deps) (*Client, error) {
	if deps.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	if deps.Signer == nil {
		return nil, errors.New("storage: signer is required")
	}
	if deps.SignedURLTTL <= 0 {
		deps.SignedURLTTL = 15 * time.Minute
	}
	if deps.MaxSlipSize <= 0 {
		deps.MaxSlipSize = 5 * 1024 * 1024
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Client{
		bucket:  deps.Bucket,
		gcs:     deps.GCS,
		signer:  deps.Signer,
		ttl:     deps.SignedURLTTL,
		maxSize: deps.MaxSlipSize,
		clock:   deps.Clock,
	}, nil
}

// IssueSlipUpload builds the object path for a payment slip and signs an
// upload URL capped at the slip size limit.
func (c *Client) IssueSlipUpload(suffix, contentType string) (UploadTicket, error) {
	now := c.clock()
	object, err := BankSlipPath(now, suffix, contentType)
	if err != nil {
		return UploadTicket{}, err
	}
	return c.issue(object, normalizeContentType(contentType), c.maxSize, now)
}

// IssueProductImageUpload signs an upload URL for an admin product image.
func (c *Client) IssueProductImageUpload(slug, filename, contentType string, maxSize int64) (UploadTicket, error) {
	object, err := ProductImagePath(slug, filename)
	if err != nil {
		return UploadTicket{}, err
	}
	if maxSize <= 0 {
		maxSize = c.maxSize
	}
	return c.issue(object, contentType, maxSize, c.clock())
}

func (c *Client) issue(object, contentType string, maxSize int64, now time.Time) (UploadTicket, error) {
	expires := now.Add(c.ttl)
	url, err := c.signer.SignUpload(object, contentType, maxSize, expires)
	if err != nil {
		return UploadTicket{}, err
	}
	return UploadTicket{
		ObjectPath:  object,
		UploadURL:   url,
		ContentType: contentType,
		MaxSize:     maxSize,
		ExpiresAt:   expires,
		Headers: map[string]string{
			"Content-Type":                contentType,
			"x-goog-content-length-range": fmt.Sprintf("0,%d", maxSize),
		},
		PublicURL: c.PublicURL(object),
	}, nil
}

// PublicURL returns the canonical public URL for an object.
func (c *Client) PublicURL(object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, object)
}

// ObjectPathFromURL inverts PublicURL. It reports false for URLs outside
// this bucket.
func (c *Client) ObjectPathFromURL(url string) (string, bool) {
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", c.bucket)
	object, ok := strings.CutPrefix(strings.TrimSpace(url), prefix)
	if !ok || object == "" {
		return "", false
	}
	return object, true
}

// ObjectExists confirms the slip was actually uploaded before an order
// referencing it is accepted.
func (c *Client) ObjectExists(ctx context.Context, object string) (bool, error) {
	if c.gcs == nil {
		return false, errors.New("storage: gcs client not configured")
	}
	_, err := c.gcs.Bucket(c.bucket).Object(object).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: stat %s: %w", object, err)
	}
	return true, nil
}
