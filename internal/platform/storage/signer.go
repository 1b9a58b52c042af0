package storage

import (
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

// URLSigner produces signed URLs for direct browser uploads and reads.
type URLSigner interface {
	SignUpload(object, contentType string, maxSize int64, expires time.Time) (string, error)
	SignDownload(object string, expires time.Time) (string, error)
}

// GoogleURLSigner signs V4 URLs with an explicit service account key. The
// key normally arrives through Secret Manager rather than a file on disk.
type GoogleURLSigner struct {
	bucket         string
	serviceAccount string
	privateKey     []byte
}

// NewGoogleURLSigner validates the signing material.
func NewGoogleURLSigner(bucket, serviceAccount string, privateKey []byte) (*GoogleURLSigner, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	if serviceAccount == "" || len(privateKey) == 0 {
		return nil, fmt.Errorf("storage: signing credentials are required")
	}
	return &GoogleURLSigner{bucket: bucket, serviceAccount: serviceAccount, privateKey: privateKey}, nil
}

// SignUpload signs a PUT URL bound to the content type and a byte-range
// cap so oversized bodies are rejected by the bucket itself.
func (s *GoogleURLSigner) SignUpload(object, contentType string, maxSize int64, expires time.Time) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		GoogleAccessID: s.serviceAccount,
		PrivateKey:     s.privateKey,
		Expires:        expires,
		ContentType:    contentType,
		Headers: []string{
			fmt.Sprintf("x-goog-content-length-range:0,%d", maxSize),
		},
	}
	url, err := storage.SignedURL(s.bucket, object, opts)
	if err != nil {
		return "", fmt.Errorf("storage: sign upload %s: %w", object, err)
	}
	return url, nil
}

// SignDownload signs a GET URL.
func (s *GoogleURLSigner) SignDownload(object string, expires time.Time) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		GoogleAccessID: s.serviceAccount,
		PrivateKey:     s.privateKey,
		Expires:        expires,
	}
	url, err := storage.SignedURL(s.bucket, object, opts)
	if err != nil {
		return "", fmt.Errorf("storage: sign download %s: %w", object, err)
	}
	return url, nil
}
