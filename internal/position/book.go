package position

import (
	"errors"
	"fmt"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
)

// DefaultCapacity bounds concurrent open holdings.
const DefaultCapacity = 5

var (
	// ErrBookFull is returned when the book is at capacity.
	ErrBookFull = errors.New("position book at capacity")
	// ErrAlreadyHeld is returned when a holding for the mint exists.
	ErrAlreadyHeld = errors.New("position already held")
)

// Book tracks open holdings keyed by mint, bounded by capacity.
// Reservations claim a slot ahead of a buy and count against
// capacity until settled.
type Book struct {
	mu       sync.RWMutex
	capacity int
	holdings map[string]*domain.Holding
	reserved map[string]struct{}
}

// NewBook creates a book holding up to capacity positions.
func NewBook(capacity int) *Book {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Book{
		capacity: capacity,
		holdings: make(map[string]*domain.Holding, capacity),
		reserved: make(map[string]struct{}),
	}
}

// Add inserts a holding. Fails when the book is full or the mint is
// already held.
func (b *Book) Add(h *domain.Holding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkSlot(h.Mint); err != nil {
		return err
	}
	b.holdings[h.Mint] = h
	observability.UpdateOpenHoldings(len(b.holdings))
	return nil
}

// Reserve claims one slot for a mint before the buy goes out. Every
// reservation must be settled by Commit or Release.
func (b *Book) Reserve(mint string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkSlot(mint); err != nil {
		return err
	}
	b.reserved[mint] = struct{}{}
	return nil
}

// Commit turns the reservation for the holding's mint into an open
// position. It never fails: the slot was claimed by Reserve.
func (b *Book) Commit(h *domain.Holding) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.reserved, h.Mint)
	b.holdings[h.Mint] = h
	observability.UpdateOpenHoldings(len(b.holdings))
}

// Release frees the reservation for a mint after a failed buy.
func (b *Book) Release(mint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.reserved, mint)
}

// checkSlot is called with the lock held.
func (b *Book) checkSlot(mint string) error {
	if _, held := b.holdings[mint]; held {
		return fmt.Errorf("%w: %s", ErrAlreadyHeld, mint)
	}
	if _, pending := b.reserved[mint]; pending {
		return fmt.Errorf("%w: %s", ErrAlreadyHeld, mint)
	}
	if len(b.holdings)+len(b.reserved) >= b.capacity {
		return fmt.Errorf("%w: %d holdings, %d pending", ErrBookFull, len(b.holdings), len(b.reserved))
	}
	return nil
}

// Remove deletes the holding for a mint, reporting whether it existed.
func (b *Book) Remove(mint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, held := b.holdings[mint]; !held {
		return false
	}
	delete(b.holdings, mint)
	observability.UpdateOpenHoldings(len(b.holdings))
	return true
}

// Get returns the holding for a mint, or nil.
func (b *Book) Get(mint string) *domain.Holding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.holdings[mint]
}

// List returns a snapshot of all open holdings.
func (b *Book) List() []*domain.Holding {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*domain.Holding, 0, len(b.holdings))
	for _, h := range b.holdings {
		out = append(out, h)
	}
	return out
}

// Len returns the number of open holdings.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.holdings)
}

// Full reports whether open holdings and pending reservations have
// consumed every slot.
func (b *Book) Full() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.holdings)+len(b.reserved) >= b.capacity
}
