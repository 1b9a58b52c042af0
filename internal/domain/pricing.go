package domain

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// EffectivePrice returns the price a variant actually sells for: the
// discount price when present, otherwise the list price. Nil when the
// variant carries neither.
func EffectivePrice(v ProductVariant) *int64 {
	if v.DiscountPrice != nil {
		return v.DiscountPrice
	}
	return v.Price
}

// DisplayPrice returns the lowest effective price across a product's
// variants, used as the "from" price on listing pages. Nil when no variant
// is priced.
func DisplayPrice(p Product) *int64 {
	var best *int64
	for _, v := range p.Variants {
		price := EffectivePrice(v)
		if price == nil {
			continue
		}
		if best == nil || *price < *best {
			value := *price
			best = &value
		}
	}
	return best
}

// PrimaryImage prefers the cover image and falls back to the first variant
// photo.
func PrimaryImage(p Product) string {
	if p.CoverImageURL != "" {
		return p.CoverImageURL
	}
	for _, v := range p.Variants {
		if v.PhotoURL != "" {
			return v.PhotoURL
		}
	}
	return ""
}

// VariantBySize finds the variant for a named size such as "50ml" or
// "100ml". Comparison ignores case and surrounding whitespace.
func VariantBySize(p Product, size string) (ProductVariant, bool) {
	want := strings.ToLower(strings.TrimSpace(size))
	for _, v := range p.Variants {
		if strings.ToLower(strings.TrimSpace(v.Size)) == want {
			return v, true
		}
	}
	return ProductVariant{}, false
}

var lkrPrinter = message.NewPrinter(language.English)

// FormatLKR renders a rupee amount with thousands separators, e.g.
// "LKR 11,350".
func FormatLKR(amount int64) string {
	return lkrPrinter.Sprintf("LKR %v", number.Decimal(amount))
}
