// Package repository defines the transactional key-value substrate the ledger
// runs on. Backends live in subpackages; all of them give every Update call
// all-or-nothing semantics.
package repository

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrReadOnly = errors.New("write in read-only transaction")
)

// Txn is the view one invocation has of the store. Keys within a collection
// are compared as byte strings; Scan walks them in ascending order.
type Txn interface {
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Set(ctx context.Context, collection, key string, value []byte) error
	Scan(ctx context.Context, collection string, fn func(key string, value []byte) error) error
}

type Store interface {
	// Update runs fn in a read-write transaction. Writes are committed only
	// if fn returns nil.
	Update(ctx context.Context, fn func(Txn) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Txn) error) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// NotFoundError reports a missing key. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Collection string
	Key        string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Collection, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
