package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/subsgate/subsgate/internal/model"
)

// Common errors for account repository operations.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameExists  = errors.New("username already exists")
)

const accountColumns = `id, username, credential_hash, devices, plan, plan_expiry, is_admin, created_at, updated_at`

// CreateAccount inserts a new account into the database.
func (r *Repository) CreateAccount(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, username, credential_hash, devices, plan, plan_expiry, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Username,
		account.CredentialHash,
		pq.Array(account.Devices),
		account.Plan,
		account.PlanExpiry,
		account.IsAdmin,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetAccountByUsername retrieves an account by its username.
// Username is the lookup key for login.
func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE username = $1
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, username))
}

// ListAccounts retrieves all accounts ordered by creation time.
func (r *Repository) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := r.scanAccountFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// BindDevice appends a device to the account's device list, but only if
// the device is not already bound and the list is below the limit. The
// condition is evaluated inside a single UPDATE so two concurrent
// first-logins cannot both claim the last slot.
// Returns true if the device was bound by this call.
func (r *Repository) BindDevice(ctx context.Context, id, deviceID string, limit int) (bool, error) {
	query := `
		UPDATE accounts
		SET devices = array_append(devices, $2), updated_at = $3
		WHERE id = $1
		  AND cardinality(devices) < $4
		  AND NOT (devices @> ARRAY[$2])
	`

	tag, err := r.pool.Exec(ctx, query, id, deviceID, time.Now().UTC(), limit)
	if err != nil {
		return false, fmt.Errorf("failed to bind device: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CompareAndSwapDevices replaces the account's device list only if it
// still equals the expected list. Returns true if the swap was applied.
func (r *Repository) CompareAndSwapDevices(ctx context.Context, id string, expected, updated []string) (bool, error) {
	query := `
		UPDATE accounts
		SET devices = $3, updated_at = $4
		WHERE id = $1 AND devices = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, pq.Array(expected), pq.Array(updated), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to swap device list: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateCredentialHash replaces the account's stored credential hash.
// Used to upgrade legacy bcrypt hashes after a verified login.
func (r *Repository) UpdateCredentialHash(ctx context.Context, id, credentialHash string) error {
	query := `
		UPDATE accounts
		SET credential_hash = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, credentialHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update credential hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetPlanExpiry sets only the account's plan expiry.
func (r *Repository) SetPlanExpiry(ctx context.Context, id string, expiry time.Time) error {
	query := `
		UPDATE accounts
		SET plan_expiry = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, expiry, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set plan expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount scans a single account from a query row.
func (r *Repository) scanAccount(row pgx.Row) (*model.Account, error) {
	account, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// scanAccountFromRows scans an account from a rows iterator.
func (r *Repository) scanAccountFromRows(rows pgx.Rows) (*model.Account, error) {
	return scanAccountRow(rows)
}

func scanAccountRow(row rowScanner) (*model.Account, error) {
	var account model.Account
	var devices []string

	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.CredentialHash,
		pq.Array(&devices),
		&account.Plan,
		&account.PlanExpiry,
		&account.IsAdmin,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Devices = devices
	return &account, nil
}

// isUniqueViolation checks for PostgreSQL error code 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
