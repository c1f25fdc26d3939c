// Package service implements the catalog, tag, profile and aggregation operations.
package service

import (
	"context"

	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
	"github.com/shelfwise/catalog-server/internal/store"
)

// storageErr maps a store failure onto the domain taxonomy.
// Context cancellation passes through unchanged.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case domainerrors.Is(err, context.Canceled), domainerrors.Is(err, context.DeadlineExceeded):
		return err
	case domainerrors.Is(err, store.ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, op)
	case domainerrors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, op)
	case domainerrors.Is(err, store.ErrInvalidInput):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, op)
	default:
		return domainerrors.Storage(err, op)
	}
}

// checkGroup rejects group numbers outside 1..groups.
func checkGroup(group, groups int) error {
	if group < 1 || group > groups {
		return domainerrors.Validationf("tag group %d out of range 1..%d", group, groups).
			WithDetails(map[string]int{"group": group, "max": groups})
	}
	return nil
}
