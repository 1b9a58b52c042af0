// Package firestore implements the repository contracts on Firestore.
package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
)

const cartCollection = "carts"

// CartRepository stores carts keyed by session ID.
type CartRepository struct {
	repo *platformfs.Repository[domain.Cart]
}

// NewCartRepository builds the repository.
func NewCartRepository(client *firestore.Client) (*CartRepository, error) {
	repo, err := platformfs.NewRepository(client, cartCollection, decodeCart)
	if err != nil {
		return nil, err
	}
	return &CartRepository{repo: repo}, nil
}

func (r *CartRepository) GetBySession(ctx context.Context, sessionID string) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, platformfs.NotFoundError("get carts", errors.New("empty session id"))
	}
	cart, err := r.repo.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.ID = sessionID
	cart.SessionID = sessionID
	return cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if cart.SessionID == "" {
		return errors.New("cart: session id is required")
	}
	return r.repo.Set(ctx, cart.SessionID, cart)
}

func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return r.repo.Delete(ctx, sessionID)
}

// decodeCart reads the document field by field. Cart documents are written
// by whatever storefront build the customer has open, so a bad line must
// not take the rest of the cart with it.
func decodeCart(doc *firestore.DocumentSnapshot) (domain.Cart, error) {
	data := doc.Data()
	cart := domain.Cart{}

	if v, ok := data["sessionId"].(string); ok {
		cart.SessionID = v
	}
	if v, ok := data["createdAt"].(time.Time); ok {
		cart.CreatedAt = v
	}
	if v, ok := data["updatedAt"].(time.Time); ok {
		cart.UpdatedAt = v
	}

	rawItems, ok := data["items"].([]any)
	if !ok {
		return cart, nil
	}
	for _, raw := range rawItems {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		item := domain.CartItem{}
		item.ID, _ = entry["id"].(string)
		if item.ID == "" {
			continue
		}
		item.Name, _ = entry["name"].(string)
		item.ImageURL, _ = entry["imageUrl"].(string)
		item.Brand, _ = entry["brand"].(string)
		item.Size, _ = entry["size"].(string)
		if price, ok := asInt64(entry["price"]); ok {
			item.Price = &price
		}
		if qty, ok := asInt64(entry["quantity"]); ok && qty > 0 {
			item.Quantity = int(qty)
		} else {
			item.Quantity = 1
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
