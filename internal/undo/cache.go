// Package undo holds deleted-decision snapshots for a short
// restoration window. Ownership of a record transfers here on delete
// and back to the store on restore; expired snapshots are discarded.
package undo

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/keepsake/internal/store"
)

// DefaultTTL is how long a deleted decision stays restorable,
// measured from the moment of deletion.
const DefaultTTL = 30 * time.Second

type entry struct {
	snapshot  store.Decision
	expiresAt time.Time
}

// Cache is a mutex-guarded token-to-snapshot map. Tokens are random
// identifiers, not wall-clock derived, so concurrent deletions within
// the same tick can never collide.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	stopCh  chan struct{}
	stopped sync.Once
}

// New creates a Cache with the given TTL. Zero or negative means
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// Put stores a snapshot and returns its one-time undo token.
func (c *Cache) Put(snapshot store.Decision) string {
	token := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = entry{
		snapshot:  snapshot,
		expiresAt: c.now().Add(c.ttl),
	}
	return token
}

// Take consumes a token and returns its snapshot. A token can be taken
// at most once; expired or unknown tokens report ok=false. Expiry is
// checked lazily here, so a restore attempted at or after expiresAt
// always fails even if the sweeper has not run yet.
func (c *Cache) Take(token string) (*store.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[token]
	if !ok {
		return nil, false
	}
	delete(c.entries, token)

	if !c.now().Before(e.expiresAt) {
		return nil, false
	}
	snapshot := e.snapshot
	return &snapshot, true
}

// Len returns the number of live entries. Expired entries awaiting a
// sweep are counted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper removes expired entries on a ticker until Stop is
// called. The sweep and Take agree on the same expiresAt instant.
func (c *Cache) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := c.sweep(); n > 0 {
					log.Printf("undo: swept %d expired entries", n)
				}
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the background sweeper.
func (c *Cache) Stop() {
	c.stopped.Do(func() { close(c.stopCh) })
}

func (c *Cache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for token, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, token)
			removed++
		}
	}
	return removed
}
