package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/subsgate/subsgate/internal/model"
)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ApplySubscriptionPayment sets the account's plan and expiry and
// appends the payment receipt in a single transaction, so a failed
// receipt insert leaves the subscription untouched.
func (r *Repository) ApplySubscriptionPayment(ctx context.Context, id string, plan model.Plan, expiry time.Time, receipt *model.PaymentReceipt) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin payment transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE accounts
		SET plan = $2, plan_expiry = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, plan, expiry, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	if err := appendPayment(ctx, tx, receipt); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit payment transaction: %w", err)
	}

	return nil
}

// AppendPayment inserts a payment receipt into the append-only log.
// Receipts are never updated or deleted; the full payment history of an
// account is preserved for audit.
func (r *Repository) AppendPayment(ctx context.Context, receipt *model.PaymentReceipt) error {
	return appendPayment(ctx, r.pool, receipt)
}

func appendPayment(ctx context.Context, db execer, receipt *model.PaymentReceipt) error {
	query := `
		INSERT INTO payments (id, account_id, plan, method, transaction_id, duration_months, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Exec(ctx, query,
		receipt.ID,
		receipt.AccountID,
		receipt.Plan,
		receipt.Method,
		receipt.TransactionID,
		receipt.DurationMonths,
		receipt.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}

	return nil
}

// ListPaymentsByAccountID retrieves the payment history for an account,
// most recent first.
func (r *Repository) ListPaymentsByAccountID(ctx context.Context, accountID string) ([]*model.PaymentReceipt, error) {
	query := `
		SELECT id, account_id, plan, method, transaction_id, duration_months, created_at
		FROM payments
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var receipts []*model.PaymentReceipt
	for rows.Next() {
		var receipt model.PaymentReceipt
		err := rows.Scan(
			&receipt.ID,
			&receipt.AccountID,
			&receipt.Plan,
			&receipt.Method,
			&receipt.TransactionID,
			&receipt.DurationMonths,
			&receipt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		receipts = append(receipts, &receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return receipts, nil
}
