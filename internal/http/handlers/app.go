package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"enhancer/internal/domain"
	"enhancer/internal/lifecycle"
)

// App is the handler container holding the engine's entry points.
type App struct {
	Manager *lifecycle.Manager
	Ledger  domain.LedgerRepository
	Logger  zerolog.Logger
}

func NewApp(manager *lifecycle.Manager, ledger domain.LedgerRepository, logger zerolog.Logger) *App {
	return &App{Manager: manager, Ledger: ledger, Logger: logger}
}

// currentAccountID extracts the authenticated account from the gateway
// header. Authentication itself is handled upstream and is out of scope.
func (a *App) currentAccountID(r *http.Request) string {
	return r.Header.Get("X-Account-ID")
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto the stable response contract.
func (a *App) writeError(w http.ResponseWriter, err error) {
	kind := domain.Classify(err)
	a.json(w, statusForKind(kind), enhanceResponse{
		Status:    string(domain.AssetStatusFailed),
		ErrorKind: string(kind),
	})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInputInvalid:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientCredit:
		return http.StatusPaymentRequired
	case domain.KindUpstreamUnavailable, domain.KindStorageFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
