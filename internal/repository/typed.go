package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// singletonKey is the key an Item occupies inside its collection.
const singletonKey = "_"

// Item is a single JSON-encoded value stored under its own collection.
type Item[T any] struct {
	collection string
}

func NewItem[T any](collection string) Item[T] {
	return Item[T]{collection: collection}
}

// Load returns a *NotFoundError when the item was never saved.
func (i Item[T]) Load(ctx context.Context, tx Txn) (T, error) {
	v, ok, err := i.MayLoad(ctx, tx)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &NotFoundError{Collection: i.collection, Key: singletonKey}
	}
	return v, nil
}

func (i Item[T]) MayLoad(ctx context.Context, tx Txn) (T, bool, error) {
	return load[T](ctx, tx, i.collection, singletonKey)
}

func (i Item[T]) Save(ctx context.Context, tx Txn, v T) error {
	return save(ctx, tx, i.collection, singletonKey, v)
}

// Map is a collection of JSON-encoded values keyed by uint64.
type Map[T any] struct {
	collection string
}

func NewMap[T any](collection string) Map[T] {
	return Map[T]{collection: collection}
}

// Load returns a *NotFoundError naming the collection and id when absent.
func (m Map[T]) Load(ctx context.Context, tx Txn, id uint64) (T, error) {
	v, ok, err := m.MayLoad(ctx, tx, id)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &NotFoundError{Collection: m.collection, Key: strconv.FormatUint(id, 10)}
	}
	return v, nil
}

func (m Map[T]) MayLoad(ctx context.Context, tx Txn, id uint64) (T, bool, error) {
	return load[T](ctx, tx, m.collection, EncodeKey(id))
}

func (m Map[T]) Save(ctx context.Context, tx Txn, id uint64, v T) error {
	return save(ctx, tx, m.collection, EncodeKey(id), v)
}

// Range calls fn for every entry in ascending id order.
func (m Map[T]) Range(ctx context.Context, tx Txn, fn func(id uint64, v T) error) error {
	return tx.Scan(ctx, m.collection, func(key string, raw []byte) error {
		id, err := DecodeKey(key)
		if err != nil {
			return fmt.Errorf("%s: %w", m.collection, err)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s %d: decode: %w", m.collection, id, err)
		}
		return fn(id, v)
	})
}

// EncodeKey renders id zero-padded so byte order equals numeric order.
func EncodeKey(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func DecodeKey(key string) (uint64, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad key %q: %w", key, err)
	}
	return id, nil
}

func load[T any](ctx context.Context, tx Txn, collection, key string) (T, bool, error) {
	var v T
	raw, err := tx.Get(ctx, collection, key)
	if err != nil {
		if IsNotFound(err) {
			return v, false, nil
		}
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("%s %s: decode: %w", collection, key, err)
	}
	return v, true, nil
}

func save[T any](ctx context.Context, tx Txn, collection, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s %s: encode: %w", collection, key, err)
	}
	return tx.Set(ctx, collection, key, raw)
}
