package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// GetAttributes returns every stored attribute for a user.
// A user with no attributes yields an empty, non-nil map.
func (s *Store) GetAttributes(ctx context.Context, userID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := userPrefix(userID)
	attrs := make(map[string]string)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := string(bytes.TrimPrefix(item.Key(), prefix))
			if err := item.Value(func(val []byte) error {
				attrs[name] = string(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, ErrUnavailable.WithMessage("get attributes").WithCause(err)
	}
	return attrs, nil
}

// GetAttribute returns one attribute. Missing attributes yield ErrNotFound.
func (s *Store) GetAttribute(ctx context.Context, userID, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := buildAttrKey(userID, name)
	defer releaseKey(key)

	val, err := s.get(key)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// HasAttribute reports whether the attribute has been stored.
func (s *Store) HasAttribute(ctx context.Context, userID, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := buildAttrKey(userID, name)
	defer releaseKey(key)
	return s.exists(key)
}

// SetAttributes writes every attribute in one transaction.
// Key filtering is the caller's concern.
func (s *Store) SetAttributes(ctx context.Context, userID string, attrs map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(attrs) == 0 {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for name, value := range attrs {
			// Badger keeps the key slice until commit, so it is not pooled here.
			key := []byte(fmt.Sprintf("%s%s:%s", profilePrefix, userID, name))
			if err := txn.Set(key, []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ErrUnavailable.WithMessage("set attributes").WithCause(err)
	}
	return nil
}

// DeleteAttribute removes one attribute. Missing attributes are not an error.
func (s *Store) DeleteAttribute(ctx context.Context, userID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(fmt.Sprintf("%s%s:%s", profilePrefix, userID, name))
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return ErrUnavailable.WithMessage("delete attribute").WithCause(err)
	}
	return nil
}

// DeleteAttributes removes every attribute of a user and returns how many were removed.
func (s *Store) DeleteAttributes(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := userPrefix(userID)
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, ErrUnavailable.WithMessage("list attributes").WithCause(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, ErrUnavailable.WithMessage("delete attributes").WithCause(err)
	}
	return len(keys), nil
}
