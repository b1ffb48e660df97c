package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

const productColumns = `id, name, image, category, new_price, old_price, date, available`

// PostgresProductRepository implements ProductRepository.
type PostgresProductRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logging.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a product with id one above the current highest id.
func (r *PostgresProductRepository) Create(ctx context.Context, req *models.AddProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (id, name, image, category, new_price, old_price, date, available)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM products), $1, $2, $3, $4, $5, $6, TRUE)
		RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query,
		req.Name,
		req.Image,
		req.Category,
		req.NewPrice,
		req.OldPrice,
		time.Now().UTC(),
	))
	if isUniqueViolation(err) {
		return nil, errors.ErrConflict
	}
	if err != nil {
		r.logger.Error("Failed to add product", logging.Fields{
			"name":  req.Name,
			"error": err.Error(),
		})
		return nil, errors.NewPersistenceError("add product", err)
	}

	r.logger.Info("Product added", logging.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.NewPersistenceError("remove product", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}

	r.logger.Info("Product removed", logging.Fields{"product_id": id})
	return nil
}

func (r *PostgresProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// Latest returns the n most recently added products, oldest first.
func (r *PostgresProductRepository) Latest(ctx context.Context, n int) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + ` FROM (
			SELECT ` + productColumns + ` FROM products ORDER BY id DESC LIMIT $1
		) latest ORDER BY id`
	return r.query(ctx, query, n)
}

// ListByCategory returns the first limit products of a category.
func (r *PostgresProductRepository) ListByCategory(ctx context.Context, category string, limit int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY id LIMIT $2`
	return r.query(ctx, query, category, limit)
}

func (r *PostgresProductRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query products", logging.Fields{"error": err.Error()})
		return nil, errors.NewPersistenceError("list products", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewPersistenceError("scan product", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("list products", err)
	}
	return products, nil
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Image,
		&p.Category,
		&p.NewPrice,
		&p.OldPrice,
		&p.Date,
		&p.Available,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
