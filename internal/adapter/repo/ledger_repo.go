package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"enhancer/internal/domain"
)

// LedgerRepositoryPG implements domain.LedgerRepository using PostgreSQL.
// The read-check-write on the balance is linearized at the storage layer via
// an atomic conditional decrement, not in process.
type LedgerRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository constructs a new ledger repository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{pool: pool}
}

// Balance returns the account's ledger row.
func (r *LedgerRepositoryPG) Balance(ctx context.Context, accountID string) (*domain.CreditLedger, error) {
	query := `
SELECT account_id, credits_remaining, credits_used, updated_at
FROM credit_ledgers
WHERE account_id = $1;
`
	row := r.pool.QueryRow(ctx, query, accountID)
	var ledger domain.CreditLedger
	if err := row.Scan(&ledger.AccountID, &ledger.CreditsRemaining, &ledger.CreditsUsed, &ledger.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ledger, nil
}

// Complete commits the completed transition atomically: the asset result
// update, the conditional one-credit debit, and the transaction append either
// all land or none do. A zero balance rolls everything back with
// ErrInsufficientCredit.
func (r *LedgerRepositoryPG) Complete(ctx context.Context, asset *domain.ImageAsset, reason domain.TransactionReason) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	debit := `
UPDATE credit_ledgers
SET credits_remaining = credits_remaining - 1,
    credits_used = credits_used + 1,
    updated_at = NOW()
WHERE account_id = $1 AND credits_remaining >= 1
RETURNING credits_remaining;
`
	var remaining int
	if err := tx.QueryRow(ctx, debit, asset.AccountID).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientCredit
		}
		return 0, fmt.Errorf("debit: %w", err)
	}

	complete := `
UPDATE image_assets
SET status = $2,
    result_ref = $3,
    enhancement_method = $4,
    ai_suggestions = $5,
    error_message = NULL,
    updated_at = NOW()
WHERE id = $1;
`
	if _, err := tx.Exec(ctx, complete,
		asset.ID,
		domain.AssetStatusCompleted,
		asset.ResultRef,
		asset.EnhancementMethod,
		asset.AISuggestions,
	); err != nil {
		return 0, fmt.Errorf("complete asset: %w", err)
	}

	appendTx := `
INSERT INTO credit_transactions (id, account_id, asset_id, amount, reason, balance_remaining)
VALUES ($1, $2, $3, $4, $5, $6);
`
	if _, err := tx.Exec(ctx, appendTx,
		uuid.NewString(),
		asset.AccountID,
		asset.ID,
		-1,
		reason,
		remaining,
	); err != nil {
		return 0, fmt.Errorf("append transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return remaining, nil
}

// ListTransactions returns the most recent ledger log entries for an account.
func (r *LedgerRepositoryPG) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
SELECT id, account_id, asset_id, amount, reason, balance_remaining, created_at
FROM credit_transactions
WHERE account_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CreditTransaction
	for rows.Next() {
		var t domain.CreditTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.AssetID, &t.Amount, &t.Reason, &t.BalanceRemaining, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

var _ domain.LedgerRepository = (*LedgerRepositoryPG)(nil)
