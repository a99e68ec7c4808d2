package catalog

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-catalog/store"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TextCodeEntityNotFound marks errors returned for ids that do not exist.
const TextCodeEntityNotFound = "ENTITY_NOT_FOUND"

// Entity names used in not found errors besides the product kinds.
const (
	EntityBrand    = "brand"
	EntityRelation = "relation"
	EntityCartItem = "cart_item"
)

// EntityNotFound reports that ids of entity do not exist.
func EntityNotFound(entity string, ids ...uuid.UUID) *goerrors.Error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return goerrors.New(fmt.Sprintf("%s not found", entity), goerrors.CategoryNotFound).
		WithTextCode(TextCodeEntityNotFound).
		WithMetadata(map[string]any{
			"entity": entity,
			"ids":    strs,
		})
}

// IsEntityNotFound reports whether err, or an error it wraps, is an EntityNotFound error.
func IsEntityNotFound(err error) bool {
	var e *goerrors.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Category == goerrors.CategoryNotFound && e.TextCode == TextCodeEntityNotFound
}

// NotFoundDetails returns the entity and ids carried by an EntityNotFound error.
func NotFoundDetails(err error) (entity string, ids []string, ok bool) {
	if !IsEntityNotFound(err) {
		return "", nil, false
	}
	var e *goerrors.Error
	errors.As(err, &e)
	entity, _ = e.Metadata["entity"].(string)
	ids, _ = e.Metadata["ids"].([]string)
	return entity, ids, true
}

// IsValidation reports whether err is an input validation error.
func IsValidation(err error) bool {
	return goerrors.IsValidation(err)
}

func validationError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, message)
}

// notFoundFromStore turns store.ErrNotFound into EntityNotFound and returns
// other errors unchanged.
func notFoundFromStore(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, store.ErrNotFound) {
		return EntityNotFound(entity, id)
	}
	return err
}
