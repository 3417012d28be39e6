package ratelimit

import (
	"sync"
	"time"
)

const subscriberBuffer = 8

// Store holds the latest Snapshot for one session. Updates replace the whole
// snapshot; readers always see a complete record.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	now    func() time.Time
	nextID int
	subs   map[int]chan Snapshot
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source used to stamp LastUpdated.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a store holding the unknown snapshot.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now:  time.Now,
		subs: make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Level derives the severity of the latest snapshot.
func (s *Store) Level() Level {
	return s.Current().Level()
}

// Color derives the display colour of the latest snapshot.
func (s *Store) Color() Color {
	return s.Current().Color()
}

// Update replaces the snapshot with the rate_limit object found in raw.
// Bodies without one, or that are not JSON, leave the store untouched.
// It reports whether the snapshot was replaced.
func (s *Store) Update(raw []byte) bool {
	snap, ok := parseSnapshot(raw)
	if !ok {
		return false
	}
	s.Set(snap)
	return true
}

// Set replaces the snapshot wholesale and stamps LastUpdated.
func (s *Store) Set(snap Snapshot) {
	s.mu.Lock()
	snap.LastUpdated = s.now()
	s.snap = snap
	for _, ch := range s.subs {
		// A full buffer sheds its oldest entry so the newest always lands.
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}

// Subscribe returns a channel receiving every replaced snapshot and a cancel
// func that unregisters it. Slow subscribers miss older updates rather than
// block writers; the last value delivered is always the newest.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
