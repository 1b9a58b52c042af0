package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
	"github.com/aroma-notes/api/internal/repositories"
)

// ErrCartInvalidInput marks cart requests rejected before persistence.
var ErrCartInvalidInput = errors.New("cart: invalid input")

type cartService struct {
	carts repositories.CartRepository
	clock Clock
}

// CartServiceDeps wires NewCartService.
type CartServiceDeps struct {
	Carts repositories.CartRepository
	Clock Clock
}

// NewCartService builds the cart service.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &cartService{carts: deps.Carts, clock: deps.Clock}, nil
}

// Get rehydrates the cart. A session that has never stored a cart gets an
// empty one rather than an error.
func (s *cartService) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Cart{}, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.GetBySession(ctx, sessionID)
	if err != nil {
		if platformfs.IsNotFound(err) {
			now := s.clock()
			return domain.Cart{ID: sessionID, SessionID: sessionID, CreatedAt: now, UpdatedAt: now}, nil
		}
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem, quantity int) (domain.Cart, error) {
	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == "" {
		return domain.Cart{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}
	if item.Name == "" {
		return domain.Cart{}, fmt.Errorf("%w: item name is required", ErrCartInvalidInput)
	}
	if quantity < 1 {
		quantity = 1
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ID == item.ID {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = quantity
		cart.Items = append(cart.Items, item)
	}

	return s.save(ctx, cart)
}

// UpdateQuantity sets an exact line quantity. Zero or negative removes the
// line, mirroring how the storefront's stepper behaves at one.
func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (domain.Cart, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.Cart{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, itemID)
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = quantity
			break
		}
	}
	return s.save(ctx, cart)
}

// RemoveItem drops a line. Removing an absent line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, sessionID, itemID string) (domain.Cart, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.Cart{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	kept := cart.Items[:0]
	for _, line := range cart.Items {
		if line.ID != itemID {
			kept = append(kept, line)
		}
	}
	cart.Items = kept
	return s.save(ctx, cart)
}

func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	return s.carts.Delete(ctx, sessionID)
}

func (s *cartService) save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.UpdatedAt = s.clock()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = cart.UpdatedAt
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}
