package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"enhancer/internal/domain"
	"enhancer/internal/enhance"
	"enhancer/internal/lifecycle"
	"enhancer/internal/prompt"
)

type stubAssets struct {
	items map[string]*domain.ImageAsset
}

func (s *stubAssets) Create(_ context.Context, asset *domain.ImageAsset) error {
	cp := *asset
	s.items[asset.ID] = &cp
	return nil
}

func (s *stubAssets) GetByID(_ context.Context, id string) (*domain.ImageAsset, error) {
	a, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *stubAssets) GetForAccount(ctx context.Context, id, accountID string) (*domain.ImageAsset, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil || a.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *stubAssets) MarkProcessing(_ context.Context, id string) error {
	if a, ok := s.items[id]; ok {
		a.Status = domain.AssetStatusProcessing
	}
	return nil
}

func (s *stubAssets) MarkFailed(_ context.Context, id, message string) error {
	if a, ok := s.items[id]; ok {
		a.Status = domain.AssetStatusFailed
		a.ErrorMessage = &message
	}
	return nil
}

type stubLedger struct {
	assets       *stubAssets
	remaining    int
	used         int
	balanceErr   error
	transactions []domain.CreditTransaction
}

func (s *stubLedger) Balance(_ context.Context, accountID string) (*domain.CreditLedger, error) {
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	return &domain.CreditLedger{AccountID: accountID, CreditsRemaining: s.remaining, CreditsUsed: s.used}, nil
}

func (s *stubLedger) Complete(_ context.Context, asset *domain.ImageAsset, reason domain.TransactionReason) (int, error) {
	if s.remaining < 1 {
		return 0, domain.ErrInsufficientCredit
	}
	s.remaining--
	s.used++
	if stored, ok := s.assets.items[asset.ID]; ok {
		stored.Status = domain.AssetStatusCompleted
		stored.ResultRef = asset.ResultRef
		stored.EnhancementMethod = asset.EnhancementMethod
	}
	assetID := asset.ID
	s.transactions = append(s.transactions, domain.CreditTransaction{
		ID:               fmt.Sprintf("tx-%d", len(s.transactions)+1),
		AccountID:        asset.AccountID,
		AssetID:          &assetID,
		Amount:           -1,
		Reason:           reason,
		BalanceRemaining: s.remaining,
		CreatedAt:        time.Now(),
	})
	return s.remaining, nil
}

func (s *stubLedger) ListTransactions(_ context.Context, accountID string, limit int) ([]domain.CreditTransaction, error) {
	out := s.transactions
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubBlobs struct {
	objects map[string][]byte
}

func (s *stubBlobs) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.objects[key] = data
	return key, nil
}

func (s *stubBlobs) Get(_ context.Context, ref string) ([]byte, error) {
	data, ok := s.objects[ref]
	if !ok {
		return nil, fmt.Errorf("object %s does not exist", ref)
	}
	return data, nil
}

type stubPipeline struct{}

func (stubPipeline) Run(context.Context, []byte, string, enhance.Adjustments, prompt.ComposedPrompt) (enhance.Outcome, error) {
	return enhance.Outcome{Image: []byte("enhanced"), MIME: "image/png", Method: domain.MethodGenerativeDeterministic}, nil
}

func newTestApp(credits int) (*App, *stubAssets, *stubLedger) {
	assets := &stubAssets{items: map[string]*domain.ImageAsset{}}
	ledger := &stubLedger{assets: assets, remaining: credits}
	blobs := &stubBlobs{objects: map[string][]byte{"uploads/src.png": []byte("source")}}
	manager := lifecycle.NewManager(assets, ledger, blobs, stubPipeline{}, prompt.Options{}, zerolog.Nop())
	return NewApp(manager, ledger, zerolog.Nop()), assets, ledger
}

func TestEnhancementsCreateHappyPath(t *testing.T) {
	app, _, _ := newTestApp(2)

	body := `{"asset_source_ref":"uploads/src.png","selection":{"business_type":"cafe","platform":"instagram_feed"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/enhancements", strings.NewReader(body))
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	app.EnhancementsCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "completed" {
		t.Fatalf("expected completed status, got %v", resp["status"])
	}
	if resp["enhancement_method"] != "generative+deterministic" {
		t.Fatalf("unexpected method: %v", resp["enhancement_method"])
	}
	if resp["credits_remaining"] != float64(1) {
		t.Fatalf("expected credits_remaining 1, got %v", resp["credits_remaining"])
	}
	if resp["asset_id"] == "" || resp["result_ref"] == "" {
		t.Fatalf("asset identity fields missing: %v", resp)
	}
}

func TestEnhancementsCreateRequiresAccount(t *testing.T) {
	app, _, _ := newTestApp(2)

	req := httptest.NewRequest(http.MethodPost, "/v1/enhancements", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	app.EnhancementsCreate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error_kind"] != string(domain.KindUnauthorized) {
		t.Fatalf("expected Unauthorized kind, got %v", resp["error_kind"])
	}
}

func TestEnhancementsCreateInsufficientCredit(t *testing.T) {
	app, assets, _ := newTestApp(0)

	body := `{"asset_source_ref":"uploads/src.png"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/enhancements", strings.NewReader(body))
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()
	app.EnhancementsCreate(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error_kind"] != string(domain.KindInsufficientCredit) {
		t.Fatalf("expected InsufficientCredit kind, got %v", resp["error_kind"])
	}
	if len(assets.items) != 0 {
		t.Fatal("rejected request must not create an asset row")
	}
}

func TestEnhancementsCreateMalformedBody(t *testing.T) {
	app, _, _ := newTestApp(2)

	req := httptest.NewRequest(http.MethodPost, "/v1/enhancements", strings.NewReader("{not json"))
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()
	app.EnhancementsCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEnhancementStatus(t *testing.T) {
	app, assets, _ := newTestApp(2)
	resultRef := "enhancements/acct-1/asset-1.png"
	assets.items["asset-1"] = &domain.ImageAsset{
		ID:                "asset-1",
		AccountID:         "acct-1",
		SourceRef:         "uploads/src.png",
		ResultRef:         &resultRef,
		Status:            domain.AssetStatusCompleted,
		EnhancementMethod: domain.MethodDeterministic,
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/enhancements/asset-1", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("asset_id", "asset-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	app.EnhancementStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "completed" || resp["result_ref"] != resultRef {
		t.Fatalf("unexpected status payload: %v", resp)
	}
}

func TestEnhancementStatusOmitsCreditsWhenBalanceUnavailable(t *testing.T) {
	app, assets, ledger := newTestApp(2)
	assets.items["asset-1"] = &domain.ImageAsset{
		ID:        "asset-1",
		AccountID: "acct-1",
		SourceRef: "uploads/src.png",
		Status:    domain.AssetStatusCompleted,
	}
	ledger.balanceErr = errors.New("ledger unavailable")

	req := httptest.NewRequest(http.MethodGet, "/v1/enhancements/asset-1", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("asset_id", "asset-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	app.EnhancementStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status read must survive a ledger outage, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if _, present := resp["credits_remaining"]; present {
		t.Fatalf("an unreadable balance must be omitted, not reported as a number: %v", resp)
	}
	if resp["status"] != "completed" {
		t.Fatalf("asset state must still be served: %v", resp)
	}
}

func TestEnhancementStatusOtherAccountIsNotFound(t *testing.T) {
	app, assets, _ := newTestApp(2)
	assets.items["asset-1"] = &domain.ImageAsset{ID: "asset-1", AccountID: "acct-2", Status: domain.AssetStatusCompleted}

	req := httptest.NewRequest(http.MethodGet, "/v1/enhancements/asset-1", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("asset_id", "asset-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	app.EnhancementStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-account reads must 404, got %d", rec.Code)
	}
}

func TestEnhancementResubmit(t *testing.T) {
	app, assets, _ := newTestApp(2)
	assets.items["asset-1"] = &domain.ImageAsset{
		ID:        "asset-1",
		AccountID: "acct-1",
		SourceRef: "uploads/src.png",
		Status:    domain.AssetStatusFailed,
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/enhancements/asset-1/retry", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("asset_id", "asset-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	app.EnhancementResubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "completed" {
		t.Fatalf("resubmission should complete, got %v", resp["status"])
	}
}

func TestCredits(t *testing.T) {
	app, _, ledger := newTestApp(5)
	assetID := "asset-1"
	ledger.used = 3
	ledger.transactions = []domain.CreditTransaction{
		{ID: "tx-1", AccountID: "acct-1", AssetID: &assetID, Amount: -1, Reason: domain.ReasonEnhancement, BalanceRemaining: 5},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/credits", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()
	app.Credits(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp creditsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CreditsRemaining != 5 || resp.CreditsUsed != 3 {
		t.Fatalf("unexpected balance: %+v", resp)
	}
	if len(resp.Transactions) != 1 || resp.Transactions[0].Reason != "enhancement" {
		t.Fatalf("unexpected transactions: %+v", resp.Transactions)
	}
}
