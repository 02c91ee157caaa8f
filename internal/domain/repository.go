package domain

import "context"

// AssetRepository defines persistence for image assets. Mutations are only
// performed through the lifecycle manager.
type AssetRepository interface {
	Create(ctx context.Context, asset *ImageAsset) error
	GetByID(ctx context.Context, id string) (*ImageAsset, error)
	GetForAccount(ctx context.Context, id, accountID string) (*ImageAsset, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
}

// LedgerRepository defines persistence for credit balances and their
// append-only transaction log. Complete commits the completed-asset update,
// the conditional credit debit, and the transaction append as one logical
// transaction; it returns ErrInsufficientCredit and leaves everything
// untouched when the balance check fails.
type LedgerRepository interface {
	Balance(ctx context.Context, accountID string) (*CreditLedger, error)
	Complete(ctx context.Context, asset *ImageAsset, reason TransactionReason) (remaining int, err error)
	ListTransactions(ctx context.Context, accountID string, limit int) ([]CreditTransaction, error)
}
