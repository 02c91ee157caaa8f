package domain

import "time"

// AssetStatus enumerates the image asset lifecycle states. The string values
// are part of the API contract and must not change.
type AssetStatus string

const (
	AssetStatusPending    AssetStatus = "pending"
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusCompleted  AssetStatus = "completed"
	AssetStatusFailed     AssetStatus = "failed"
)

// Terminal reports whether the status allows no further transitions within
// the current processing cycle.
func (s AssetStatus) Terminal() bool {
	return s == AssetStatusCompleted || s == AssetStatusFailed
}

// EnhancementMethod records which transform stage(s) produced the persisted
// result.
type EnhancementMethod string

const (
	MethodDeterministic           EnhancementMethod = "deterministic"
	MethodGenerative              EnhancementMethod = "generative"
	MethodGenerativeDeterministic EnhancementMethod = "generative+deterministic"
	MethodSkipped                 EnhancementMethod = "skipped"
)

// ImageAsset represents one enhancement result. It is created when an
// enhancement request is accepted and mutated only by the lifecycle manager.
type ImageAsset struct {
	ID                string
	AccountID         string
	SourceRef         string
	ResultRef         *string
	Status            AssetStatus
	EnhancementMethod EnhancementMethod
	SettingsSnapshot  []byte
	AISuggestions     string
	ErrorMessage      *string
	EditedFrom        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsEdit reports whether the asset was produced by editing another asset.
func (a ImageAsset) IsEdit() bool {
	return a.EditedFrom != nil && *a.EditedFrom != ""
}
