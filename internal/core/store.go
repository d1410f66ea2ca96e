package core

import "sync"

// Store holds the single currently loaded Dataset.
//
// Lifecycle: NewStore (empty) -> Replace on every upload -> Current many
// times. A failed upload calls Reset, so the store is never left holding a
// half-parsed table. A Store is safe for concurrent use; hosts that need
// per-tenant isolation create one Store per tenant.
type Store struct {
	mu      sync.RWMutex
	current *Dataset
}

// NewStore creates a store holding the explicit empty Dataset.
func NewStore() *Store {
	return &Store{current: &Dataset{}}
}

// Replace installs ds as the current Dataset, superseding the old one.
func (s *Store) Replace(ds *Dataset) {
	if ds == nil {
		ds = &Dataset{}
	}
	s.mu.Lock()
	s.current = ds
	s.mu.Unlock()
}

// Reset installs the empty Dataset.
func (s *Store) Reset() {
	s.Replace(nil)
}

// Current returns the current Dataset. Datasets are never mutated after
// they are installed, so callers may read it without holding a lock.
func (s *Store) Current() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Columns returns the current column names (empty when nothing is loaded).
func (s *Store) Columns() []string {
	return s.Current().ColumnNames()
}

// Info returns the provenance of the current Dataset.
func (s *Store) Info() DatasetInfo {
	return s.Current().Info
}

// IsEmpty reports whether no Dataset is loaded.
func (s *Store) IsEmpty() bool {
	return s.Current().IsEmpty()
}
