package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aroma-notes/api/internal/content"
	"github.com/aroma-notes/api/internal/domain"
)

// ErrContentUnavailable wraps failures reaching the content API.
var ErrContentUnavailable = errors.New("content: upstream unavailable")

type contentService struct {
	client *content.Client
}

// NewContentService wraps the Sanity client behind the service contract.
func NewContentService(client *content.Client) (ContentService, error) {
	if client == nil {
		return nil, errors.New("content service: client is required")
	}
	return &contentService{client: client}, nil
}

func (s *contentService) Products(ctx context.Context) ([]domain.Product, error) {
	products, err := s.client.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	return products, nil
}

func (s *contentService) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	product, err := s.client.ProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, content.ErrProductNotFound) {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
		}
		return domain.Product{}, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	return product, nil
}
