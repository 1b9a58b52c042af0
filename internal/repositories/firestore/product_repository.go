package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
)

const productCollection = "products"

// ProductRepository stores the Firestore-managed catalog.
type ProductRepository struct {
	repo *platformfs.Repository[domain.Product]
}

// NewProductRepository builds the repository.
func NewProductRepository(client *firestore.Client) (*ProductRepository, error) {
	repo, err := platformfs.NewRepository(client, productCollection, decodeProduct)
	if err != nil {
		return nil, err
	}
	return &ProductRepository{repo: repo}, nil
}

// decodeProduct reads field by field. Product documents predate the
// current schema and several optional fields may be missing or mistyped.
func decodeProduct(doc *firestore.DocumentSnapshot) (domain.Product, error) {
	data := doc.Data()
	p := domain.Product{ID: doc.Ref.ID}

	p.Name, _ = data["name"].(string)
	p.Slug, _ = data["slug"].(string)
	p.Brand, _ = data["brand"].(string)
	if v, ok := data["gender"].(string); ok {
		p.Gender = domain.Gender(v)
	}
	if v, ok := data["perfumeType"].(string); ok {
		p.PerfumeType = domain.PerfumeType(v)
	}
	p.CoverImageURL, _ = data["coverImageUrl"].(string)
	p.DescriptionHTML, _ = data["descriptionHtml"].(string)
	if v, ok := data["createdAt"].(time.Time); ok {
		p.CreatedAt = v
	}
	if v, ok := data["updatedAt"].(time.Time); ok {
		p.UpdatedAt = v
	}

	if rawVariants, ok := data["variants"].([]any); ok {
		for _, raw := range rawVariants {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			variant := domain.ProductVariant{}
			variant.Size, _ = entry["size"].(string)
			variant.PhotoURL, _ = entry["photoUrl"].(string)
			if v, ok := entry["inStock"].(bool); ok {
				variant.InStock = v
			} else {
				variant.InStock = true
			}
			if price, ok := asInt64(entry["price"]); ok {
				variant.Price = &price
			}
			if price, ok := asInt64(entry["discountPrice"]); ok {
				variant.DiscountPrice = &price
			}
			p.Variants = append(p.Variants, variant)
		}
	}

	if rawAccords, ok := data["mainAccords"].([]any); ok {
		for _, raw := range rawAccords {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			accord := domain.ProductAccord{}
			accord.Name, _ = entry["name"].(string)
			accord.ColorHex, _ = entry["colorHex"].(string)
			if pct, ok := asInt64(entry["percentage"]); ok {
				accord.Percentage = int(pct)
			}
			p.MainAccords = append(p.MainAccords, accord)
		}
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	products, _, err := r.repo.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	return products, err
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	return r.repo.Get(ctx, id)
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	products, _, err := r.repo.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(products) == 0 {
		return domain.Product{}, platformfs.NotFoundError("get products", fmt.Errorf("no product with slug %s", slug))
	}
	return products[0], nil
}

func (r *ProductRepository) Create(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return errors.New("product: id is required")
	}
	_, err := r.repo.Doc(product.ID).Create(ctx, product)
	return platformfs.WrapError("create products", err)
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return errors.New("product: id is required")
	}
	return r.repo.Set(ctx, product.ID, product)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}
