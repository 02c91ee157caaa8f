package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"enhancer/internal/domain"
)

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepositoryPG {
	return &AssetRepositoryPG{pool: pool}
}

const assetColumns = `id, account_id, source_ref, result_ref, status, enhancement_method, settings_snapshot, ai_suggestions, error_message, edited_from, created_at, updated_at`

// Create inserts a new image asset row.
func (r *AssetRepositoryPG) Create(ctx context.Context, asset *domain.ImageAsset) error {
	query := `
INSERT INTO image_assets (id, account_id, source_ref, status, settings_snapshot, edited_from)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.AccountID,
		asset.SourceRef,
		asset.Status,
		asset.SettingsSnapshot,
		asset.EditedFrom,
	)
	return err
}

// GetByID fetches an asset by its identifier.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, id string) (*domain.ImageAsset, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM image_assets WHERE id = $1;`, id)
	return scanAsset(row)
}

// GetForAccount fetches an asset only when it belongs to the account.
func (r *AssetRepositoryPG) GetForAccount(ctx context.Context, id, accountID string) (*domain.ImageAsset, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM image_assets WHERE id = $1 AND account_id = $2;`, id, accountID)
	return scanAsset(row)
}

// MarkProcessing transitions the asset into the processing state.
func (r *AssetRepositoryPG) MarkProcessing(ctx context.Context, id string) error {
	query := `
UPDATE image_assets
SET status = $2, error_message = NULL, updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, id, domain.AssetStatusProcessing)
	return err
}

// MarkFailed records a terminal failure. No credit movement accompanies this
// transition.
func (r *AssetRepositoryPG) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
UPDATE image_assets
SET status = $2, error_message = $3, updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, id, domain.AssetStatusFailed, errorMessage)
	return err
}

func scanAsset(row pgx.Row) (*domain.ImageAsset, error) {
	var asset domain.ImageAsset
	if err := row.Scan(
		&asset.ID,
		&asset.AccountID,
		&asset.SourceRef,
		&asset.ResultRef,
		&asset.Status,
		&asset.EnhancementMethod,
		&asset.SettingsSnapshot,
		&asset.AISuggestions,
		&asset.ErrorMessage,
		&asset.EditedFrom,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
