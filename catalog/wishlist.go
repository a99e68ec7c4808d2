package catalog

import (
	"context"

	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/store"
	"github.com/goliatone/go-catalog/transformer"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// WishlistService manages the wishlists of users.
type WishlistService struct {
	wishes   *store.Wishes
	products *ProductService
}

// NewWishlistService returns a wishlist service that projects wishes through products.
func NewWishlistService(wishes *store.Wishes, products *ProductService) *WishlistService {
	if products != nil && wishes != nil {
		products.OnDelete(wishes.ItemsChanged)
	}
	return &WishlistService{wishes: wishes, products: products}
}

// Items returns the wished products of userID in the order they were added.
// Products that no longer exist come back as type NONE.
func (s *WishlistService) Items(ctx context.Context, userID string) ([]transformer.Info, error) {
	if err := validateUser(userID); err != nil {
		return nil, validationError(validation.Errors{"user_id": err}, "invalid wishlist request")
	}
	rows, err := s.wishes.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]entity.ProductRef, len(rows))
	for i, row := range rows {
		refs[i] = row.Ref()
	}
	infos, err := s.products.infosByRef(ctx, refs)
	if err != nil {
		return nil, err
	}

	out := make([]transformer.Info, len(refs))
	for i, ref := range refs {
		info, ok := infos[ref]
		if !ok {
			info = transformer.Info{Type: transformer.TypeNone}
		}
		out[i] = info
	}
	return out, nil
}

// Add wishes ref for userID. Adding a product twice is a no-op; created
// reports whether a new wish was stored.
func (s *WishlistService) Add(ctx context.Context, userID string, ref entity.ProductRef) (created bool, err error) {
	if err := (validation.Errors{"user_id": validateUser(userID), "product": ref.Validate()}).Filter(); err != nil {
		return false, validationError(err, "invalid wish")
	}
	if err := s.products.checkProducts(ctx, ref.Kind, []uuid.UUID{ref.ID}); err != nil {
		return false, err
	}
	return s.wishes.Add(ctx, userID, ref)
}

// Remove drops refs from the wishlist of userID and returns how many were removed.
func (s *WishlistService) Remove(ctx context.Context, userID string, refs []entity.ProductRef) (int, error) {
	if err := validateUser(userID); err != nil {
		return 0, validationError(validation.Errors{"user_id": err}, "invalid wishlist request")
	}
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return 0, validationError(validation.Errors{"product": err}, "invalid wishlist request")
		}
	}
	return s.wishes.Remove(ctx, userID, refs)
}
