// Package cart holds the shopping cart variants and the catalog join used to
// price them.
package cart

import (
	"context"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// Kind tags which capabilities a cart has.
type Kind string

const (
	// KindAnonymous lives only for the current session.
	KindAnonymous Kind = "anonymous"
	// KindPersisted mirrors every change into the user store.
	KindPersisted Kind = "persisted"
)

// Cart is the behaviour shared by anonymous and persisted carts.
type Cart interface {
	Kind() Kind
	Get(productID string) int
	Add(ctx context.Context, productID string) (int, error)
	Remove(ctx context.Context, productID string) (int, error)
	// Snapshot returns a copy of the current quantities.
	Snapshot() *models.Quantities
}

// Store persists a user's cart mapping.
type Store interface {
	SaveCart(ctx context.Context, userID string, q *models.Quantities) error
}

// AnonymousCart is an in-process cart with no backing store.
type AnonymousCart struct {
	mu  sync.Mutex
	qty *models.Quantities
}

// NewAnonymousCart creates an anonymous cart seeded from q, which may be nil.
func NewAnonymousCart(q *models.Quantities) *AnonymousCart {
	return &AnonymousCart{qty: q.Clone()}
}

func (c *AnonymousCart) Kind() Kind { return KindAnonymous }

func (c *AnonymousCart) Get(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qty.Get(productID)
}

func (c *AnonymousCart) Add(_ context.Context, productID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qty.Add(productID), nil
}

func (c *AnonymousCart) Remove(_ context.Context, productID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.qty.Remove(productID)
	return n, nil
}

func (c *AnonymousCart) Snapshot() *models.Quantities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qty.Clone()
}

// PersistedCart belongs to a signed-in user and writes each change through
// to the Store. A failed write leaves the in-memory state unchanged.
type PersistedCart struct {
	mu     sync.Mutex
	userID string
	qty    *models.Quantities
	store  Store
}

// NewPersistedCart wraps the stored quantities of userID.
func NewPersistedCart(userID string, q *models.Quantities, store Store) *PersistedCart {
	return &PersistedCart{
		userID: userID,
		qty:    q.Clone(),
		store:  store,
	}
}

func (c *PersistedCart) Kind() Kind { return KindPersisted }

// UserID returns the owner of the cart.
func (c *PersistedCart) UserID() string { return c.userID }

func (c *PersistedCart) Get(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qty.Get(productID)
}

func (c *PersistedCart) Add(ctx context.Context, productID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.qty.Clone()
	n := next.Add(productID)
	if err := c.store.SaveCart(ctx, c.userID, next); err != nil {
		return c.qty.Get(productID), err
	}
	c.qty = next
	return n, nil
}

func (c *PersistedCart) Remove(ctx context.Context, productID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.qty.Clone()
	n, changed := next.Remove(productID)
	if !changed {
		return n, nil
	}
	if err := c.store.SaveCart(ctx, c.userID, next); err != nil {
		return c.qty.Get(productID), err
	}
	c.qty = next
	return n, nil
}

func (c *PersistedCart) Snapshot() *models.Quantities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qty.Clone()
}

// TotalAmount prices q against the catalog's new_price. Products missing
// from the catalog contribute nothing.
func TotalAmount(q *models.Quantities, catalog []*models.Product) float64 {
	prices := make(map[string]decimal.Decimal, len(catalog))
	for _, p := range catalog {
		prices[strconv.Itoa(p.ID)] = decimal.NewFromFloat(p.NewPrice)
	}

	total := decimal.Zero
	for _, item := range q.Items() {
		price, ok := prices[item.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// TotalItemCount sums the positive quantities of q.
func TotalItemCount(q *models.Quantities) int {
	return q.TotalItems()
}

// ShippingFor returns fee when subtotal is positive and zero otherwise.
func ShippingFor(subtotal, fee float64) float64 {
	if subtotal > 0 {
		return fee
	}
	return 0
}

// Summarize prices a cart for display.
func Summarize(c Cart, catalog []*models.Product, shippingFee float64) models.CartSummary {
	q := c.Snapshot()
	subtotal := TotalAmount(q, catalog)
	shipping := ShippingFor(subtotal, shippingFee)
	total, _ := decimal.NewFromFloat(subtotal).Add(decimal.NewFromFloat(shipping)).Round(2).Float64()

	return models.CartSummary{
		Items:     q.Items(),
		ItemCount: TotalItemCount(q),
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     total,
		Persisted: c.Kind() == KindPersisted,
	}
}
