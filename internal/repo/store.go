// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides Store, the document-store facade shared
// by the realtime engine and the services.
//
// Every collection (users, chats, messages, admins, blocked countries) has
// its own write lock. A mutation is a read-modify-write cycle executed inside
// a single transaction while the locks of every collection it touches are
// held, so two handlers mutating the same collection never interleave and no
// update is lost. Locks are always acquired in canonical collection order to
// rule out lock-order deadlocks between multi-collection writers.
//
// Reads that do not participate in a read-modify-write cycle go straight to
// the database and observe the last committed state.
package repo

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Collection names a logical record collection (one table per collection).
type Collection string

const (
	Users            Collection = "users"
	Chats            Collection = "chats"
	Messages         Collection = "messages"
	Admins           Collection = "admins"
	BlockedCountries Collection = "blocked_countries"
)

// collectionOrder is the canonical lock acquisition order.
var collectionOrder = map[Collection]int{
	Users:            0,
	Chats:            1,
	Messages:         2,
	Admins:           3,
	BlockedCountries: 4,
}

// orderColumn is the creation-time column each collection is ordered by.
var orderColumn = map[Collection]string{
	Users:            "created_at",
	Chats:            "created_at",
	Messages:         "created_at",
	Admins:           "created_at",
	BlockedCountries: "blocked_at",
}

// Store serializes writes per collection on top of a GORM handle.
//
// This type is safe for concurrent use.
type Store struct {
	DB    *gorm.DB
	locks map[Collection]*sync.Mutex
}

// NewStore wraps db with one write lock per known collection.
func NewStore(db *gorm.DB) *Store {
	locks := make(map[Collection]*sync.Mutex, len(collectionOrder))
	for c := range collectionOrder {
		locks[c] = &sync.Mutex{}
	}
	return &Store{DB: db, locks: locks}
}

// lock acquires the write locks for cols in canonical order and returns the
// matching release function. Duplicates are ignored.
func (s *Store) lock(cols ...Collection) (func(), error) {
	uniq := make([]Collection, 0, len(cols))
	seen := make(map[Collection]struct{}, len(cols))
	for _, c := range cols {
		if _, ok := collectionOrder[c]; !ok {
			return nil, fmt.Errorf("repo: unknown collection %q", c)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		uniq = append(uniq, c)
	}
	sort.Slice(uniq, func(i, j int) bool { return collectionOrder[uniq[i]] < collectionOrder[uniq[j]] })

	for _, c := range uniq {
		s.locks[c].Lock()
	}
	return func() {
		for i := len(uniq) - 1; i >= 0; i-- {
			s.locks[uniq[i]].Unlock()
		}
	}, nil
}

// Update runs fn inside one transaction while holding the write locks of the
// given collections. fn must confine its writes to those collections. If fn
// returns an error the transaction is rolled back and nothing is persisted.
func (s *Store) Update(ctx context.Context, fn func(tx *gorm.DB) error, cols ...Collection) error {
	if len(cols) == 0 {
		return fmt.Errorf("repo: Update requires at least one collection")
	}
	unlock, err := s.lock(cols...)
	if err != nil {
		return err
	}
	defer unlock()
	return s.DB.WithContext(ctx).Transaction(fn)
}

// Load reads the entire collection into dest (a pointer to a slice of the
// collection's model) ordered by creation time, then ID.
func (s *Store) Load(ctx context.Context, col Collection, dest any) error {
	order, ok := orderColumn[col]
	if !ok {
		return fmt.Errorf("repo: unknown collection %q", col)
	}
	return s.DB.WithContext(ctx).
		Table(string(col)).
		Order(order + " ASC, id ASC").
		Find(dest).Error
}

// Save replaces the entire collection with records (a pointer to a slice of
// the collection's model). Readers observe either the old or the new
// collection, never a mix.
func (s *Store) Save(ctx context.Context, col Collection, records any) error {
	rv := reflect.Indirect(reflect.ValueOf(records))
	if rv.Kind() != reflect.Slice {
		return fmt.Errorf("repo: Save expects a slice, got %T", records)
	}
	return s.Update(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM " + string(col)).Error; err != nil {
			return err
		}
		if rv.Len() == 0 {
			return nil
		}
		return tx.Table(string(col)).Create(records).Error
	}, col)
}
