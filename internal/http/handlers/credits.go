package handlers

import (
	"net/http"
	"strconv"
	"time"

	"enhancer/internal/domain"
)

type transactionDTO struct {
	ID               string    `json:"id"`
	AssetID          *string   `json:"asset_id,omitempty"`
	Amount           int       `json:"amount"`
	Reason           string    `json:"reason"`
	BalanceRemaining int       `json:"balance_remaining"`
	CreatedAt        time.Time `json:"created_at"`
}

type creditsResponse struct {
	CreditsRemaining int              `json:"credits_remaining"`
	CreditsUsed      int              `json:"credits_used"`
	Transactions     []transactionDTO `json:"transactions"`
}

// Credits returns the account balance and its recent transaction log.
func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.writeError(w, domain.ErrUnauthorized)
		return
	}
	ledger, err := a.Ledger.Balance(r.Context(), accountID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	transactions, err := a.Ledger.ListTransactions(r.Context(), accountID, limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	items := make([]transactionDTO, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, transactionDTO{
			ID:               t.ID,
			AssetID:          t.AssetID,
			Amount:           t.Amount,
			Reason:           string(t.Reason),
			BalanceRemaining: t.BalanceRemaining,
			CreatedAt:        t.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, creditsResponse{
		CreditsRemaining: ledger.CreditsRemaining,
		CreditsUsed:      ledger.CreditsUsed,
		Transactions:     items,
	})
}
