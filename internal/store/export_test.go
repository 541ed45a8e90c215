package store

import "time"

// SetNowFunc overrides the store clock for expiry tests.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.now = now
}
