package catalog

import (
	"context"

	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/store"
	"github.com/goliatone/go-catalog/transformer"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one cart line with the projection of its product. Lines whose
// product was removed carry an Info of type NONE.
type CartLine struct {
	ID        uuid.UUID        `json:"id"`
	Quantity  int              `json:"quantity"`
	Product   transformer.Info `json:"product"`
	LineTotal *decimal.Decimal `json:"line_total,omitempty"`
}

// CartService manages the carts of users.
type CartService struct {
	carts    *store.Carts
	products *ProductService
}

// NewCartService returns a cart service that projects lines through products.
func NewCartService(carts *store.Carts, products *ProductService) *CartService {
	if products != nil && carts != nil {
		products.OnDelete(carts.ItemsChanged)
	}
	return &CartService{carts: carts, products: products}
}

func validateUser(userID string) error {
	return validation.Validate(userID, validation.Required.Error("user id is required"))
}

// Items returns the lines of userID in the order they were added.
func (s *CartService) Items(ctx context.Context, userID string) ([]CartLine, error) {
	if err := validateUser(userID); err != nil {
		return nil, validationError(validation.Errors{"user_id": err}, "invalid cart request")
	}
	rows, err := s.carts.Items(ctx, userID)
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

	lines := make([]CartLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, newCartLine(row, infos))
	}
	return lines, nil
}

func newCartLine(row *entity.CartItem, infos map[entity.ProductRef]transformer.Info) CartLine {
	line := CartLine{ID: row.ID, Quantity: row.Quantity, Product: transformer.Info{Type: transformer.TypeNone}}
	info, ok := infos[row.Ref()]
	if !ok {
		return line
	}
	line.Product = info
	if info.Price != nil {
		total := info.Price.Amount.Mul(decimal.NewFromInt(int64(row.Quantity)))
		line.LineTotal = &total
	}
	return line
}

// Add puts qty units of ref in the cart of userID, merging with an existing
// line for the same product.
func (s *CartService) Add(ctx context.Context, userID string, ref entity.ProductRef, qty int) (CartLine, error) {
	err := validation.Errors{
		"user_id":  validateUser(userID),
		"product":  ref.Validate(),
		"quantity": validation.Validate(qty, validation.Min(1)),
	}.Filter()
	if err != nil {
		return CartLine{}, validationError(err, "invalid cart item")
	}

	infos, err := s.products.GetInfos(ctx, ref.Kind, []uuid.UUID{ref.ID})
	if err != nil {
		return CartLine{}, err
	}
	row, err := s.carts.Add(ctx, userID, ref, qty)
	if err != nil {
		return CartLine{}, err
	}
	return newCartLine(row, map[entity.ProductRef]transformer.Info{ref: infos[ref.ID]}), nil
}

// SetQuantity replaces the quantity of a line. A quantity below one removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID string, itemID uuid.UUID, qty int) error {
	if err := validateUser(userID); err != nil {
		return validationError(validation.Errors{"user_id": err}, "invalid cart item")
	}
	if err := s.carts.SetQuantity(ctx, userID, itemID, qty); err != nil {
		return notFoundFromStore(err, EntityCartItem, itemID)
	}
	return nil
}

// Remove deletes lines of userID and returns how many were removed.
func (s *CartService) Remove(ctx context.Context, userID string, itemIDs []uuid.UUID) (int, error) {
	if err := validateUser(userID); err != nil {
		return 0, validationError(validation.Errors{"user_id": err}, "invalid cart request")
	}
	return s.carts.Remove(ctx, userID, itemIDs)
}

// Clear empties the cart of userID.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := validateUser(userID); err != nil {
		return validationError(validation.Errors{"user_id": err}, "invalid cart request")
	}
	return s.carts.Clear(ctx, userID)
}
