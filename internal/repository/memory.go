package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// The memory stores back DB_DRIVER=memory and the service tests. They hand
// out copies so callers never share state with the store.

type MemoryOrderRepository struct {
	mu        sync.RWMutex
	orders    map[string]*models.Order
	byPayment map[string]string
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:    make(map[string]*models.Order),
		byPayment: make(map[string]string),
	}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPayment[order.PaymentID]; ok {
		return errors.ErrConflict
	}
	if _, ok := r.orders[order.OrderID]; ok {
		return errors.ErrConflict
	}
	r.orders[order.OrderID] = copyOrder(order)
	r.byPayment[order.PaymentID] = order.OrderID
	return nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if order.Status != from {
		return nil, &errors.TransitionError{From: string(order.Status), To: string(to)}
	}
	order.Status = to
	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return errors.ErrNotFound
	}
	delete(r.byPayment, order.PaymentID)
	delete(r.orders, id)
	return nil
}

func (r *MemoryOrderRepository) List(_ context.Context, filter *models.OrderListFilter) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter != nil && filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		orders = append(orders, copyOrder(order))
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderID < orders[j].OrderID
		}
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

func (r *MemoryOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	return r.List(ctx, &models.OrderListFilter{UserID: userID})
}

type MemoryIntentRepository struct {
	mu      sync.RWMutex
	intents map[string]*models.PaymentIntent
}

func NewMemoryIntentRepository() *MemoryIntentRepository {
	return &MemoryIntentRepository{intents: make(map[string]*models.PaymentIntent)}
}

func (r *MemoryIntentRepository) Create(_ context.Context, intent *models.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.intents[intent.IntentID]; ok {
		return errors.ErrConflict
	}
	c := *intent
	r.intents[intent.IntentID] = &c
	return nil
}

func (r *MemoryIntentRepository) GetByID(_ context.Context, id string) (*models.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intent, ok := r.intents[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	c := *intent
	return &c, nil
}

func (r *MemoryIntentRepository) MarkPaid(_ context.Context, intentID, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	intent, ok := r.intents[intentID]
	if !ok {
		return false, nil
	}
	intent.Status = models.IntentStatusPaid
	if paymentID != "" {
		intent.PaymentID = paymentID
	}
	intent.UpdatedAt = time.Now().UTC()
	return true, nil
}

type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return errors.ErrConflict
	}
	r.users[user.ID] = copyUser(user)
	r.byEmail[email] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryUserRepository) SaveCart(_ context.Context, userID string, q *models.Quantities) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return errors.ErrUserNotFound
	}
	user.CartData = *q.Clone()
	return nil
}

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products []*models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{}
}

func (r *MemoryProductRepository) Create(_ context.Context, req *models.AddProductRequest) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := 1
	if n := len(r.products); n > 0 {
		id = r.products[n-1].ID + 1
	}
	p := &models.Product{
		ID:        id,
		Name:      req.Name,
		Image:     req.Image,
		Category:  req.Category,
		NewPrice:  req.NewPrice,
		OldPrice:  req.OldPrice,
		Date:      time.Now().UTC(),
		Available: true,
	}
	r.products = append(r.products, p)
	c := *p
	return &c, nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return errors.ErrNotFound
}

func (r *MemoryProductRepository) List(_ context.Context) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyProducts(r.products), nil
}

func (r *MemoryProductRepository) Latest(_ context.Context, n int) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := len(r.products) - n
	if start < 0 {
		start = 0
	}
	return copyProducts(r.products[start:]), nil
}

func (r *MemoryProductRepository) ListByCategory(_ context.Context, category string, limit int) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Product, 0, limit)
	for _, p := range r.products {
		if len(out) == limit {
			break
		}
		if p.Category == category {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append(make([]models.OrderItem, 0, len(o.Items)), o.Items...)
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.CartData = *u.CartData.Clone()
	return &c
}

func copyProducts(in []*models.Product) []*models.Product {
	out := make([]*models.Product, 0, len(in))
	for _, p := range in {
		c := *p
		out = append(out, &c)
	}
	return out
}
