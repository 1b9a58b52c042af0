package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
	"github.com/aroma-notes/api/internal/platform/storage"
	"github.com/aroma-notes/api/internal/repositories"
)

// Catalog failure modes surfaced to handlers.
var (
	ErrProductNotFound     = errors.New("catalog: product not found")
	ErrProductInvalidInput = errors.New("catalog: invalid input")
)

type catalogService struct {
	products repositories.ProductRepository
	storage  *storage.Client
	ids      IDGenerator
	clock    Clock
}

// CatalogServiceDeps wires NewCatalogService.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Storage  *storage.Client
	IDs      IDGenerator
	Clock    Clock
}

// NewCatalogService builds the catalog service.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("catalog service: storage client is required")
	}
	if deps.IDs == nil {
		deps.IDs = ULIDGenerator{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &catalogService{
		products: deps.Products,
		storage:  deps.Storage,
		ids:      deps.IDs,
		clock:    deps.Clock,
	}, nil
}

func (s *catalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// Get tries the document ID first and falls back to slug lookup, since
// storefront links carry either form.
func (s *catalogService) Get(ctx context.Context, idOrSlug string) (domain.Product, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}

	product, err := s.products.Get(ctx, idOrSlug)
	if err == nil {
		return product, nil
	}
	if !platformfs.IsNotFound(err) {
		return domain.Product{}, err
	}

	product, err = s.products.GetBySlug(ctx, idOrSlug)
	if err != nil {
		if platformfs.IsNotFound(err) {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, idOrSlug)
		}
		return domain.Product{}, err
	}
	return product, nil
}

func (s *catalogService) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := validateProduct(&product); err != nil {
		return domain.Product{}, err
	}

	now := s.clock()
	product.ID = s.ids.NewID()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if strings.TrimSpace(product.ID) == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}
	if err := validateProduct(&product); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.Get(ctx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.clock()
	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

func (s *catalogService) ImageUploadTicket(ctx context.Context, slug, filename, contentType string) (storage.UploadTicket, error) {
	ticket, err := s.storage.IssueProductImageUpload(strings.TrimSpace(slug), strings.TrimSpace(filename), contentType, 0)
	if err != nil {
		return storage.UploadTicket{}, fmt.Errorf("%w: %v", ErrProductInvalidInput, err)
	}
	return ticket, nil
}

func validateProduct(product *domain.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.Slug = strings.ToLower(strings.TrimSpace(product.Slug))
	product.Brand = strings.TrimSpace(product.Brand)

	if product.Name == "" {
		return fmt.Errorf("%w: name is required", ErrProductInvalidInput)
	}
	if product.Slug == "" {
		return fmt.Errorf("%w: slug is required", ErrProductInvalidInput)
	}
	if strings.ContainsAny(product.Slug, " /\\") {
		return fmt.Errorf("%w: slug must not contain spaces or slashes", ErrProductInvalidInput)
	}
	for i := range product.Variants {
		product.Variants[i].Size = strings.TrimSpace(product.Variants[i].Size)
		if product.Variants[i].Size == "" {
			return fmt.Errorf("%w: variant size is required", ErrProductInvalidInput)
		}
		if price := product.Variants[i].Price; price != nil && *price < 0 {
			return fmt.Errorf("%w: variant price must be non-negative", ErrProductInvalidInput)
		}
		if price := product.Variants[i].DiscountPrice; price != nil && *price < 0 {
			return fmt.Errorf("%w: variant discount price must be non-negative", ErrProductInvalidInput)
		}
	}
	return nil
}
