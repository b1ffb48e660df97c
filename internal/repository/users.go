package repository

import (
	"context"
	"database/sql"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// PostgresUserRepository implements UserRepository. Carts live in a JSON
// column on the user row.
type PostgresUserRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresUserRepository(db *sql.DB, logger *logging.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user. A duplicate email returns errors.ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, cart_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CartData,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return errors.ErrConflict
	}
	if err != nil {
		r.logger.Error("Failed to create user", logging.Fields{
			"email": user.Email,
			"error": err.Error(),
		})
		return errors.NewPersistenceError("create user", err)
	}

	r.logger.Info("User created", logging.Fields{"user_id": user.ID})
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

// SaveCart replaces the stored cart of userID.
func (r *PostgresUserRepository) SaveCart(ctx context.Context, userID string, q *models.Quantities) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET cart_data = $2 WHERE id = $1`, userID, q)
	if err != nil {
		r.logger.Error("Failed to save cart", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return errors.NewPersistenceError("save cart", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT id, name, email, password_hash, cart_data, created_at FROM users ` + where

	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CartData,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.NewPersistenceError("get user", err)
	}
	return &user, nil
}
