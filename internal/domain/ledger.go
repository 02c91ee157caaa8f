package domain

import "time"

// CreditLedger is the per-account credit balance row. creditsUsed only ever
// grows; creditsRemaining never goes negative.
type CreditLedger struct {
	AccountID        string
	CreditsRemaining int
	CreditsUsed      int
	UpdatedAt        time.Time
}

// TransactionReason enumerates business reasons for a ledger movement.
type TransactionReason string

const (
	ReasonEnhancement TransactionReason = "enhancement"
	ReasonEdit        TransactionReason = "edit"
	ReasonTopUp       TransactionReason = "topup"
)

// CreditTransaction is one append-only ledger log entry. A transaction exists
// if and only if the corresponding balance change was applied.
type CreditTransaction struct {
	ID               string
	AccountID        string
	AssetID          *string
	Amount           int
	Reason           TransactionReason
	BalanceRemaining int
	CreatedAt        time.Time
}
