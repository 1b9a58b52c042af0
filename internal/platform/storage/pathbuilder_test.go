package storage

import (
	"strings"
	"testing"
	"time"
)

func TestBankSlipPath(t *testing.T) {
	at := time.UnixMilli(1756600000123)

	path, err := BankSlipPath(at, "A7K2QX", "image/jpeg")
	if err != nil {
		t.Fatalf("BankSlipPath: %v", err)
	}
	if path != "bank-slips/1756600000123-a7k2qx.jpg" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestBankSlipPathNormalizesJpg(t *testing.T) {
	path, err := BankSlipPath(time.UnixMilli(1), "x1", "image/jpg")
	if err != nil {
		t.Fatalf("BankSlipPath: %v", err)
	}
	if !strings.HasSuffix(path, ".jpg") {
		t.Fatalf("expected .jpg suffix, got %q", path)
	}
}

func TestBankSlipPathRejectsUnsupportedType(t *testing.T) {
	if _, err := BankSlipPath(time.Now(), "x1", "application/pdf"); err == nil {
		t.Fatal("pdf slips must be rejected")
	}
	if _, err := BankSlipPath(time.Now(), "x1", "image/gif"); err == nil {
		t.Fatal("gif slips must be rejected")
	}
}

func TestProductImagePathRejectsTraversal(t *testing.T) {
	for _, bad := range []struct{ slug, file string }{
		{"../secrets", "a.webp"},
		{"midnight-oud", "../../key.json"},
		{"midnight-oud", ".hidden"},
		{"a/b", "c.png"},
	} {
		if _, err := ProductImagePath(bad.slug, bad.file); err == nil {
			t.Fatalf("expected rejection for slug=%q file=%q", bad.slug, bad.file)
		}
	}

	path, err := ProductImagePath("midnight-oud", "bottle-50ml.webp")
	if err != nil {
		t.Fatalf("ProductImagePath: %v", err)
	}
	if path != "products/midnight-oud/bottle-50ml.webp" {
		t.Fatalf("unexpected path %q", path)
	}
}
