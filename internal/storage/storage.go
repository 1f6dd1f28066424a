// Package storage memoizes resolved poster URLs in memory.
package storage

import (
	"container/list"
	"sync"
	"time"

	"github.com/reelmatch/reelmatch/internal/metrics"
)

const (
	DefaultCapacity = 10000
	DefaultTTL      = 6 * time.Hour
)

type posterEntry struct {
	movieID   int
	url       string
	expiresAt time.Time
}

// PosterStore is a bounded LRU of poster URLs keyed by external movie id.
// Entries expire after the TTL.
type PosterStore struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[int]*list.Element
	order    *list.List // front is most recently used
	now      func() time.Time
}

func New(capacity int, ttl time.Duration) *PosterStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PosterStore{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[int]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

func (s *PosterStore) Get(movieID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, exists := s.items[movieID]
	if !exists {
		metrics.PosterCacheMisses.Inc()
		return "", false
	}
	entry := el.Value.(*posterEntry)
	if s.now().After(entry.expiresAt) {
		s.remove(el)
		metrics.PosterCacheMisses.Inc()
		return "", false
	}
	s.order.MoveToFront(el)
	metrics.PosterCacheHits.Inc()
	return entry.url, true
}

func (s *PosterStore) Set(movieID int, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(s.ttl)
	if el, exists := s.items[movieID]; exists {
		entry := el.Value.(*posterEntry)
		entry.url = url
		entry.expiresAt = expiresAt
		s.order.MoveToFront(el)
		return
	}

	s.items[movieID] = s.order.PushFront(&posterEntry{movieID: movieID, url: url, expiresAt: expiresAt})
	for len(s.items) > s.capacity {
		s.remove(s.order.Back())
	}
}

func (s *PosterStore) Delete(movieID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, exists := s.items[movieID]; exists {
		s.remove(el)
	}
}

func (s *PosterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *PosterStore) remove(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*posterEntry).movieID)
}
