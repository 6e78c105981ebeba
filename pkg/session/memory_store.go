package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps session records in process memory. It implements
// the full Store contract and is the default store, suitable for tests
// and single-process deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]*Record)}
}

// Create inserts a record and assigns the next monotone ID.
func (s *MemoryStore) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.normalize()

	s.rows[rec.ID] = rec.clone()
	return nil
}

// FindActiveByTokenHash returns the active record with the given token
// digest.
func (s *MemoryStore) FindActiveByTokenHash(ctx context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.Active && row.TokenHash == hash {
			return row.clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

// FindByTokenHash returns the record with the given token digest in any
// active state.
func (s *MemoryStore) FindByTokenHash(ctx context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.TokenHash == hash {
			return row.clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

// Update overwrites the stored row identified by rec.ID.
func (s *MemoryStore) Update(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[rec.ID]
	if !ok {
		return ErrSessionNotFound
	}

	rec.CreatedAt = row.CreatedAt
	rec.UpdatedAt = time.Now()
	rec.normalize()
	s.rows[rec.ID] = rec.clone()
	return nil
}

// ActiveForBrowser returns all active rows for a browser, in ID order.
func (s *MemoryStore) ActiveForBrowser(ctx context.Context, browserID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, row := range s.rows {
		if row.Active && row.BrowserID == browserID {
			out = append(out, row.clone())
		}
	}
	sortByID(out)
	return out, nil
}

// ActiveForUser returns all active rows for a principal, in ID order.
func (s *MemoryStore) ActiveForUser(ctx context.Context, user UserRef) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, row := range s.rows {
		if row.Active && row.User == user {
			out = append(out, row.clone())
		}
	}
	sortByID(out)
	return out, nil
}

// CountBefore counts rows with a lower ID matching the filter.
func (s *MemoryStore) CountBefore(ctx context.Context, id int64, f Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, row := range s.rows {
		if row.ID >= id {
			continue
		}
		if !f.User.IsZero() && row.User != f.User {
			continue
		}
		if f.BrowserID != "" && row.BrowserID != f.BrowserID {
			continue
		}
		if f.LoginIP != "" && row.LoginIP != f.LoginIP {
			continue
		}
		count++
	}
	return count, nil
}

// BrowserIDExists reports whether any row carries the browser ID.
func (s *MemoryStore) BrowserIDExists(ctx context.Context, browserID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.BrowserID == browserID {
			return true, nil
		}
	}
	return false, nil
}

// SweepExpired invalidates stale rows and returns their IDs.
func (s *MemoryStore) SweepExpired(ctx context.Context, now, inactivityCutoff time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for _, row := range s.rows {
		if !row.Active {
			continue
		}

		idle := row.ExpiresAt == nil &&
			row.LastActivityAt != nil &&
			row.LastActivityAt.Before(inactivityCutoff)
		expired := row.ExpiresAt != nil && row.ExpiresAt.Before(now)

		if idle || expired {
			row.Active = false
			row.UpdatedAt = time.Now()
			ids = append(ids, row.ID)
		}
	}

	slices.Sort(ids)
	return ids, nil
}

func sortByID(recs []*Record) {
	slices.SortFunc(recs, func(a, b *Record) int {
		return int(a.ID - b.ID)
	})
}
