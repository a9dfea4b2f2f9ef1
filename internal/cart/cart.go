// Package cart implements the in-memory, process-lifetime shopping cart:
// an ordered set of items deduped by URL.
package cart

import (
	"sync"

	"github.com/shopagent/runtime/internal/ids"
)

// Item is one cart entry.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Source   string  `json:"source"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Category string  `json:"category,omitempty"`
}

// Result wraps an operation outcome together with the full current cart,
// so clients can reconcile state from any response.
type Result struct {
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	Cart    []Item  `json:"cart"`
}

// Cart is a mutex-guarded ordered slice of items. Under the single-threaded
// server model concurrent mutation cannot happen, but the mutex still
// guards against accidental concurrent test access.
type Cart struct {
	mu    sync.Mutex
	items []Item
	newID ids.Generator
}

// New builds an empty Cart.
func New() *Cart {
	return &Cart{newID: ids.Prefixed("cart_", ids.Default)}
}

// Add appends item, assigning a fresh id. Rejects (ok:false) if an item with
// the same URL already exists; does not mutate the cart in that case.
func (c *Cart) Add(item Item) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range c.items {
		if it.URL == item.URL {
			return Result{OK: false, Message: "item with this URL is already in the cart", Cart: c.snapshot()}
		}
	}

	item.ID = c.newID()
	c.items = append(c.items, item)
	return Result{OK: true, Cart: c.snapshot()}
}

// List returns the current cart.
func (c *Cart) List() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Result{OK: true, Cart: c.snapshot()}
}

// Remove deletes the item with the given id. Rejects (ok:false) if no such
// item exists.
func (c *Cart) Remove(id string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return Result{OK: true, Cart: c.snapshot()}
		}
	}
	return Result{OK: false, Message: "no cart item with that id", Cart: c.snapshot()}
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return Result{OK: true, Cart: c.snapshot()}
}

func (c *Cart) snapshot() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}
