package repository

import (
	"context"

	"github.com/lib/pq"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

var (
	_ OrderRepository   = (*PostgresOrderRepository)(nil)
	_ OrderRepository   = (*MemoryOrderRepository)(nil)
	_ IntentRepository  = (*PostgresIntentRepository)(nil)
	_ IntentRepository  = (*MemoryIntentRepository)(nil)
	_ UserRepository    = (*PostgresUserRepository)(nil)
	_ UserRepository    = (*MemoryUserRepository)(nil)
	_ ProductRepository = (*PostgresProductRepository)(nil)
	_ ProductRepository = (*MemoryProductRepository)(nil)
	_ OrderCache        = (*RedisOrderCache)(nil)
	_ OrderCache        = (*MemoryOrderCache)(nil)
)

// OrderRepository persists orders. Create returns errors.ErrConflict when an
// order already exists for the payment id. UpdateStatus only writes when the
// stored status still equals from and returns *errors.TransitionError
// otherwise.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Order, error)
}

// IntentRepository persists gateway payment intents. MarkPaid reports false
// when no intent with that id is stored.
type IntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*models.PaymentIntent, error)
	MarkPaid(ctx context.Context, intentID, paymentID string) (bool, error)
}

// UserRepository persists customer accounts and their carts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SaveCart(ctx context.Context, userID string, q *models.Quantities) error
}

// ProductRepository persists the catalog. Create assigns the next id.
type ProductRepository interface {
	Create(ctx context.Context, req *models.AddProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]*models.Product, error)
	Latest(ctx context.Context, n int) ([]*models.Product, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]*models.Product, error)
}

// OrderCache defines caching operations for orders.
type OrderCache interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error
	GetByUserID(ctx context.Context, userID string) ([]*models.Order, error)
	SetByUserID(ctx context.Context, userID string, orders []*models.Order) error
	InvalidateByUserID(ctx context.Context, userID string) error
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
