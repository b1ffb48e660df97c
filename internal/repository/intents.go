package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// PostgresIntentRepository stores payment intents next to the orders table.
type PostgresIntentRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresIntentRepository(db *sql.DB, logger *logging.Logger) *PostgresIntentRepository {
	return &PostgresIntentRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a freshly created gateway order.
func (r *PostgresIntentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	notesJSON, err := json.Marshal(intent.Notes)
	if err != nil {
		return errors.NewPersistenceError("encode intent notes", err)
	}

	query := `
		INSERT INTO payment_intents (
			intent_id, amount, currency, receipt, notes, status, payment_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		intent.IntentID,
		intent.Amount,
		intent.Currency,
		intent.Receipt,
		notesJSON,
		intent.Status,
		nullString(intent.PaymentID),
		intent.CreatedAt,
		intent.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return errors.ErrConflict
	}
	if err != nil {
		r.logger.Error("Failed to store payment intent", logging.Fields{
			"intent_id": intent.IntentID,
			"error":     err.Error(),
		})
		return errors.NewPersistenceError("create intent", err)
	}

	r.logger.Info("Payment intent stored", logging.Fields{
		"intent_id": intent.IntentID,
		"amount":    intent.Amount,
	})
	return nil
}

// GetByID fetches an intent by gateway order id.
func (r *PostgresIntentRepository) GetByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	query := `
		SELECT intent_id, amount, currency, receipt, notes, status, payment_id, created_at, updated_at
		FROM payment_intents
		WHERE intent_id = $1
	`

	var intent models.PaymentIntent
	var notesJSON []byte
	var paymentID sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&intent.IntentID,
		&intent.Amount,
		&intent.Currency,
		&intent.Receipt,
		&notesJSON,
		&intent.Status,
		&paymentID,
		&intent.CreatedAt,
		&intent.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewPersistenceError("get intent", err)
	}

	if len(notesJSON) > 0 {
		if err := json.Unmarshal(notesJSON, &intent.Notes); err != nil {
			return nil, errors.NewPersistenceError("decode intent notes", err)
		}
	}
	if paymentID.Valid {
		intent.PaymentID = paymentID.String
	}

	return &intent, nil
}

// MarkPaid moves an intent to paid and attaches the captured payment id. An
// empty paymentID keeps the one already stored.
func (r *PostgresIntentRepository) MarkPaid(ctx context.Context, intentID, paymentID string) (bool, error) {
	query := `
		UPDATE payment_intents
		SET status = $2, payment_id = COALESCE(NULLIF($3, ''), payment_id), updated_at = $4
		WHERE intent_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, intentID, models.IntentStatusPaid, paymentID, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to mark intent paid", logging.Fields{
			"intent_id": intentID,
			"error":     err.Error(),
		})
		return false, errors.NewPersistenceError("mark intent paid", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		r.logger.Warn("No stored intent to mark paid", logging.Fields{"intent_id": intentID})
		return false, nil
	}

	r.logger.Info("Payment intent paid", logging.Fields{
		"intent_id":  intentID,
		"payment_id": paymentID,
	})
	return true, nil
}
