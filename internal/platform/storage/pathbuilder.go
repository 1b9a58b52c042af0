// Package storage issues signed Cloud Storage URLs for bank slips and
// product images.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Object path layout, kept stable because the storefront and admin apps
// both derive public URLs from it:
//
//	bank-slips/{unixms}-{rand}.{ext}
//	products/{slug}/{filename}

var errBadSegment = errors.New("storage: path segment contains forbidden characters")

// slip extensions by normalised content type.
var slipExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// BankSlipPath builds the object path for a payment slip uploaded at the
// given instant. suffix disambiguates uploads within the same millisecond.
func BankSlipPath(at time.Time, suffix, contentType string) (string, error) {
	ext, ok := slipExtensions[normalizeContentType(contentType)]
	if !ok {
		return "", fmt.Errorf("storage: unsupported slip content type %q", contentType)
	}
	if err := validateSegment(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("bank-slips/%d-%s.%s", at.UnixMilli(), strings.ToLower(suffix), ext), nil
}

// ProductImagePath builds the object path for a product image.
func ProductImagePath(slug, filename string) (string, error) {
	if err := validateSegment(slug); err != nil {
		return "", err
	}
	if err := validateFileName(filename); err != nil {
		return "", err
	}
	return fmt.Sprintf("products/%s/%s", slug, filename), nil
}

func normalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}

func validateSegment(segment string) error {
	if segment == "" {
		return errors.New("storage: path segment is empty")
	}
	if strings.ContainsAny(segment, "/\\") || strings.Contains(segment, "..") {
		return errBadSegment
	}
	return nil
}

func validateFileName(name string) error {
	if err := validateSegment(name); err != nil {
		return err
	}
	if strings.HasPrefix(name, ".") {
		return errBadSegment
	}
	return nil
}
