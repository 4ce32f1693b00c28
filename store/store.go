// Package store declares the persistence contract shared by the
// flat-file and sqlite account stores.
package store

import (
	"context"
	"errors"

	"github.com/cyberheroes/portal/account"
)

// ErrDuplicate is returned by Insert when a record with the same
// username (case-insensitive) already exists.
var ErrDuplicate = errors.New("store: duplicate username")

// Store persists one realm's account records.
//
// ReadAll and WriteAll keep the original whole-file contract: readers
// get the full record list, writers replace it. Insert exists so that
// the duplicate-username check and the write happen under the store's
// own coordination; checking with ReadAll and then calling WriteAll
// races under concurrent signups.
type Store[T account.Record[T]] interface {
	ReadAll(ctx context.Context) ([]T, error)
	WriteAll(ctx context.Context, recs []T) error
	Insert(ctx context.Context, rec T) error
}
