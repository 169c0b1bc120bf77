package memory

import (
	"container/list"
	"sync"
	"time"
)

// Store is the backing map shared by every Provider view created from it.
// It keeps insertion order so a bounded view can evict the oldest entry.
type Store struct {
	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
	now   func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	key string
	val []byte
	exp int64 // unix nanos; 0 = never
}

// NewStore returns an empty store. A positive cleanup interval starts a
// goroutine that drops expired entries until Close.
func NewStore(cleanup time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		items: make(map[string]*list.Element),
		order: list.New(),
		now:   now,
		stop:  make(chan struct{}),
	}
	if cleanup > 0 {
		go s.janitor(cleanup)
	}
	return s
}

func (s *Store) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.DeleteExpired()
		case <-s.stop:
			return
		}
	}
}

// get returns a copy; callers may mutate it.
func (s *Store) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.exp != 0 && s.now().UnixNano() >= e.exp {
		s.removeLocked(el)
		return nil, false
	}
	return append([]byte(nil), e.val...), true
}

// set stores key. When limit > 0 and key is new, the oldest entries are evicted
// until the store holds fewer than limit entries.
func (s *Store) set(key string, val []byte, ttl time.Duration, limit int) {
	var exp int64
	if ttl > 0 {
		exp = s.now().Add(ttl).UnixNano()
	}
	cp := append([]byte(nil), val...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		e.val, e.exp = cp, exp
		return
	}
	if limit > 0 {
		for s.order.Len() >= limit {
			s.removeLocked(s.order.Front())
		}
	}
	s.items[key] = s.order.PushBack(&entry{key: key, val: cp, exp: exp})
}

func (s *Store) del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.removeLocked(el)
	}
}

func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*list.Element)
	s.order.Init()
}

func (s *Store) removeLocked(el *list.Element) {
	delete(s.items, el.Value.(*entry).key)
	s.order.Remove(el)
}

// Len is the number of stored entries, expired ones not yet removed included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// DeleteExpired removes every expired entry and returns how many were dropped.
func (s *Store) DeleteExpired() int {
	now := s.now().UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if e := el.Value.(*entry); e.exp != 0 && now >= e.exp {
			s.removeLocked(el)
			n++
		}
		el = next
	}
	return n
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.stop) })
}
