// Package store persists confirmed transactions in Postgres. The
// parsing pipeline only ever inserts here, after the caller confirms a
// parse result; it never mutates stored rows.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spendtext/spendtext/internal/parser"
)

// Transaction is one persisted row of the transactions table.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Store wraps the Postgres connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool against the given URL and verifies the
// connection.
func Connect(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InsertTransactions persists a confirmed parse result for a user and
// returns the stored rows with their assigned ids.
func (s *Store) InsertTransactions(ctx context.Context, userID string, txs []parser.Transaction) ([]Transaction, error) {
	query := `
		INSERT INTO transactions (id, user_id, type, amount, currency, category, date, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, type, amount, currency, category, date, description, created_at
	`

	rows := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		var row Transaction
		err := s.pool.QueryRow(ctx, query,
			uuid.NewString(), userID, string(tx.Type), tx.Amount, tx.Currency,
			tx.Category, tx.Date.Time, tx.Description,
		).Scan(
			&row.ID, &row.UserID, &row.Type, &row.Amount, &row.Currency,
			&row.Category, &row.Date, &row.Description, &row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("store: insert transaction: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ListByUser returns a user's transactions dated on or after since,
// newest first. The caller derives since from the user's entitlement
// history window.
func (s *Store) ListByUser(ctx context.Context, userID string, since time.Time) ([]Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, currency, category, date, description, created_at
		FROM transactions
		WHERE user_id = $1 AND date >= $2
		ORDER BY date DESC, created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("store: list transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var row Transaction
		err := rows.Scan(
			&row.ID, &row.UserID, &row.Type, &row.Amount, &row.Currency,
			&row.Category, &row.Date, &row.Description, &row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("store: scan transaction: %w", err)
		}
		txs = append(txs, row)
	}
	return txs, rows.Err()
}

// CountForPeriod counts a user's transactions created in [from, to).
// The entitlement service uses this for monthly quota decisions.
func (s *Store) CountForPeriod(ctx context.Context, userID string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	`
	var count int
	if err := s.pool.QueryRow(ctx, query, userID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count transactions: %w", err)
	}
	return count, nil
}

// Update replaces the editable fields of one of the user's
// transactions and returns the stored row. Updating another user's row
// is reported as not found.
func (s *Store) Update(ctx context.Context, userID, transactionID string, tx parser.Transaction) (Transaction, error) {
	query := `
		UPDATE transactions
		SET type = $3, amount = $4, currency = $5, category = $6, date = $7, description = $8
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, type, amount, currency, category, date, description, created_at
	`
	var row Transaction
	err := s.pool.QueryRow(ctx, query,
		transactionID, userID, string(tx.Type), tx.Amount, tx.Currency,
		tx.Category, tx.Date.Time, tx.Description,
	).Scan(
		&row.ID, &row.UserID, &row.Type, &row.Amount, &row.Currency,
		&row.Category, &row.Date, &row.Description, &row.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, fmt.Errorf("transaction not found")
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("store: update transaction: %w", err)
	}
	return row, nil
}

// Delete removes one of the user's transactions. Deleting another
// user's row is reported as not found.
func (s *Store) Delete(ctx context.Context, userID, transactionID string) error {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`
	cmd, err := s.pool.Exec(ctx, query, transactionID, userID)
	if err != nil {
		return fmt.Errorf("store: delete transaction: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found")
	}
	return nil
}
