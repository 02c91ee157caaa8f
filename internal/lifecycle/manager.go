// Package lifecycle owns the image-asset state machine and the exactly-once
// credit debit that accompanies a delivered enhancement.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"enhancer/internal/domain"
	"enhancer/internal/enhance"
	"enhancer/internal/prompt"
	"enhancer/internal/storage"
)

// Coordinator abstracts the fallback pipeline for the manager.
type Coordinator interface {
	Run(ctx context.Context, source []byte, sourceMIME string, adj enhance.Adjustments, composed prompt.ComposedPrompt) (enhance.Outcome, error)
}

// Request describes one enhancement run. Exactly one of Selection or Edit
// drives the composer; Edit additionally requires AssetID naming the parent.
type Request struct {
	AccountID   string
	AssetID     string // parent for edit mode, existing asset for resubmission
	SourceRef   string
	Selection   prompt.StyleSelection
	Edit        *prompt.EditInstruction
	Hints       prompt.FormatHints
	Adjustments *enhance.Adjustments
}

// Result is the caller-facing outcome of a completed run.
type Result struct {
	Asset            *domain.ImageAsset
	CreditsRemaining int
}

// Manager drives the pending → processing → {completed | failed} lifecycle.
// It is the only component that mutates ImageAsset rows or the ledger.
type Manager struct {
	assets   domain.AssetRepository
	ledger   domain.LedgerRepository
	blobs    storage.BlobStore
	pipeline Coordinator
	compose  prompt.Options
	logger   zerolog.Logger
}

func NewManager(assets domain.AssetRepository, ledger domain.LedgerRepository, blobs storage.BlobStore, pipeline Coordinator, composeOpts prompt.Options, logger zerolog.Logger) *Manager {
	return &Manager{
		assets:   assets,
		ledger:   ledger,
		blobs:    blobs,
		pipeline: pipeline,
		compose:  composeOpts,
		logger:   logger,
	}
}

// Enhance runs one full enhancement cycle. Validation, the credit pre-check,
// and prompt composition all happen before any asset row is written; a failed
// run never debits credit.
func (m *Manager) Enhance(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.AccountID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(req.SourceRef) == "" && req.AssetID == "" {
		return nil, fmt.Errorf("%w: source reference is required", domain.ErrInvalidSource)
	}

	ledger, err := m.ledger.Balance(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if ledger.CreditsRemaining < 1 {
		return nil, domain.ErrInsufficientCredit
	}

	composed, err := prompt.Compose(req.Selection, req.Hints, req.Edit, m.compose)
	if err != nil {
		return nil, err
	}
	for _, fallback := range composed.Fallbacks {
		m.logger.Warn().Str("selection", fallback).Msg("lifecycle: unrecognised style id, substituted documented default")
	}

	asset, err := m.claimAsset(ctx, req)
	if err != nil {
		return nil, err
	}

	adj := enhance.DefaultAdjustments
	if req.Adjustments != nil {
		adj = *req.Adjustments
	}

	source, err := m.blobs.Get(ctx, asset.SourceRef)
	if err != nil {
		return nil, m.fail(ctx, asset, fmt.Errorf("%w: fetch source: %v", domain.ErrStorageFailure, err))
	}

	outcome, err := m.pipeline.Run(ctx, source, mimeForRef(asset.SourceRef), adj, composed)
	if err != nil {
		return nil, m.fail(ctx, asset, err)
	}

	resultKey := fmt.Sprintf("enhancements/%s/%s%s", asset.AccountID, asset.ID, extensionForMIME(outcome.MIME))
	resultRef, err := m.blobs.Put(ctx, resultKey, outcome.Image, outcome.MIME)
	if err != nil {
		return nil, m.fail(ctx, asset, fmt.Errorf("%w: persist result: %v", domain.ErrStorageFailure, err))
	}

	asset.ResultRef = &resultRef
	asset.EnhancementMethod = outcome.Method
	asset.AISuggestions = outcome.Suggestions

	reason := domain.ReasonEnhancement
	if req.Edit != nil {
		reason = domain.ReasonEdit
	}
	remaining, err := m.ledger.Complete(ctx, asset, reason)
	if err != nil {
		// Lost a concurrent debit race or the row write failed; either way
		// nothing was committed and no credit moved.
		if errors.Is(err, domain.ErrInsufficientCredit) {
			return nil, m.fail(ctx, asset, domain.ErrInsufficientCredit)
		}
		return nil, m.fail(ctx, asset, fmt.Errorf("%w: commit completion: %v", domain.ErrStorageFailure, err))
	}

	asset.Status = domain.AssetStatusCompleted
	m.logger.Info().
		Str("asset_id", asset.ID).
		Str("account_id", asset.AccountID).
		Str("method", string(asset.EnhancementMethod)).
		Int("credits_remaining", remaining).
		Msg("lifecycle: enhancement completed")

	return &Result{Asset: asset, CreditsRemaining: remaining}, nil
}

// claimAsset resolves the working asset row and moves it into processing.
// Edit mode creates a child row referencing its parent; resubmission reuses a
// failed asset's identity; everything else creates a fresh row.
func (m *Manager) claimAsset(ctx context.Context, req Request) (*domain.ImageAsset, error) {
	snapshot := settingsSnapshot(req)

	if req.Edit != nil {
		if req.AssetID == "" {
			return nil, fmt.Errorf("%w: edit mode requires the asset to edit", domain.ErrInvalidSelection)
		}
		parent, err := m.assets.GetForAccount(ctx, req.AssetID, req.AccountID)
		if err != nil {
			return nil, err
		}
		sourceRef := parent.SourceRef
		if parent.ResultRef != nil && *parent.ResultRef != "" {
			sourceRef = *parent.ResultRef
		}
		child := &domain.ImageAsset{
			ID:               uuid.NewString(),
			AccountID:        req.AccountID,
			SourceRef:        sourceRef,
			Status:           domain.AssetStatusPending,
			SettingsSnapshot: snapshot,
			EditedFrom:       &parent.ID,
		}
		if err := m.assets.Create(ctx, child); err != nil {
			// Degraded path: reuse the parent row in place. The parent's
			// prior successful state stays intact unless this run succeeds.
			m.logger.Warn().Err(err).
				Str("parent_id", parent.ID).
				Msg("lifecycle: edit child creation failed, updating parent in place")
			if err := m.assets.MarkProcessing(ctx, parent.ID); err != nil {
				return nil, fmt.Errorf("%w: claim parent asset: %v", domain.ErrStorageFailure, err)
			}
			parent.Status = domain.AssetStatusProcessing
			parent.SourceRef = sourceRef
			return parent, nil
		}
		if err := m.assets.MarkProcessing(ctx, child.ID); err != nil {
			return nil, fmt.Errorf("%w: claim asset: %v", domain.ErrStorageFailure, err)
		}
		child.Status = domain.AssetStatusProcessing
		return child, nil
	}

	if req.AssetID != "" {
		asset, err := m.assets.GetForAccount(ctx, req.AssetID, req.AccountID)
		if err != nil {
			return nil, err
		}
		if asset.Status == domain.AssetStatusProcessing {
			// Concurrent runs against one asset are not serialised; the
			// last completed write wins.
			m.logger.Warn().Str("asset_id", asset.ID).Msg("lifecycle: asset already processing, continuing anyway")
		}
		if err := m.assets.MarkProcessing(ctx, asset.ID); err != nil {
			return nil, fmt.Errorf("%w: claim asset: %v", domain.ErrStorageFailure, err)
		}
		asset.Status = domain.AssetStatusProcessing
		return asset, nil
	}

	asset := &domain.ImageAsset{
		ID:               uuid.NewString(),
		AccountID:        req.AccountID,
		SourceRef:        req.SourceRef,
		Status:           domain.AssetStatusPending,
		SettingsSnapshot: snapshot,
	}
	if err := m.assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("%w: create asset: %v", domain.ErrStorageFailure, err)
	}
	if err := m.assets.MarkProcessing(ctx, asset.ID); err != nil {
		return nil, fmt.Errorf("%w: claim asset: %v", domain.ErrStorageFailure, err)
	}
	asset.Status = domain.AssetStatusProcessing
	return asset, nil
}

// fail records the terminal failed transition. Credits are only consumed on
// delivered value, so no ledger movement happens here.
func (m *Manager) fail(ctx context.Context, asset *domain.ImageAsset, cause error) error {
	kind := domain.Classify(cause)
	message := fmt.Sprintf("%s: %s", kind, cause.Error())
	if err := m.assets.MarkFailed(ctx, asset.ID, message); err != nil {
		m.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("lifecycle: recording failure state failed")
	}
	asset.Status = domain.AssetStatusFailed
	asset.ErrorMessage = &message
	m.logger.Info().
		Str("asset_id", asset.ID).
		Str("error_kind", string(kind)).
		Msg("lifecycle: enhancement failed, no credit debited")
	return cause
}

// Asset exposes read access for status queries.
func (m *Manager) Asset(ctx context.Context, id, accountID string) (*domain.ImageAsset, error) {
	return m.assets.GetForAccount(ctx, id, accountID)
}

// Resubmit re-runs a failed asset. Retries are user-initiated only; the
// system never resubmits on its own.
func (m *Manager) Resubmit(ctx context.Context, accountID, assetID string) (*Result, error) {
	asset, err := m.assets.GetForAccount(ctx, assetID, accountID)
	if err != nil {
		return nil, err
	}
	if asset.Status != domain.AssetStatusFailed {
		return nil, fmt.Errorf("%w: only failed assets can be resubmitted", domain.ErrInvalidSelection)
	}
	var snapshot snapshotPayload
	if len(asset.SettingsSnapshot) > 0 {
		if err := json.Unmarshal(asset.SettingsSnapshot, &snapshot); err != nil {
			return nil, fmt.Errorf("%w: decode settings snapshot: %v", domain.ErrInvalidSelection, err)
		}
	}
	targetID := asset.ID
	if snapshot.Edit != nil && asset.IsEdit() {
		// A failed edit re-runs against its original parent so the new
		// cycle produces a fresh linked asset.
		targetID = *asset.EditedFrom
	}
	return m.Enhance(ctx, Request{
		AccountID:   accountID,
		AssetID:     targetID,
		SourceRef:   asset.SourceRef,
		Selection:   snapshot.Selection,
		Edit:        snapshot.Edit,
		Hints:       snapshot.Hints,
		Adjustments: snapshot.Adjustments,
	})
}

type snapshotPayload struct {
	Selection   prompt.StyleSelection   `json:"selection"`
	Edit        *prompt.EditInstruction `json:"edit,omitempty"`
	Hints       prompt.FormatHints      `json:"hints"`
	Adjustments *enhance.Adjustments    `json:"adjustments,omitempty"`
}

func settingsSnapshot(req Request) []byte {
	data, err := json.Marshal(snapshotPayload{
		Selection:   req.Selection,
		Edit:        req.Edit,
		Hints:       req.Hints,
		Adjustments: req.Adjustments,
	})
	if err != nil {
		return nil
	}
	return data
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func mimeForRef(ref string) string {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
