package blockstore

import (
	"sync"

	"github.com/dargueta/simplefs"
)

// Synchronized wraps a Store so it can be shared between goroutines. Every
// call holds one lock for its whole duration; compaction can move any block of
// any file, so there is nothing finer-grained to lock.
type Synchronized struct {
	lock  sync.Mutex
	store *Store
}

var _ simplefs.Store = (*Synchronized)(nil)

// NewSynchronized wraps `store`. The caller must not use `store` directly
// afterwards.
func NewSynchronized(store *Store) *Synchronized {
	return &Synchronized{store: store}
}

func (s *Synchronized) Write(name string, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.store.Write(name, data)
}

func (s *Synchronized) Read(name string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.store.Read(name)
}

func (s *Synchronized) Delete(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.store.Delete(name)
}

func (s *Synchronized) Stat() simplefs.Stat {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.store.Stat()
}

func (s *Synchronized) Verify() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.store.Verify()
}

func (s *Synchronized) Layout() Layout {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.store.Layout()
}
