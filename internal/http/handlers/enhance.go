package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"enhancer/internal/domain"
	"enhancer/internal/enhance"
	"enhancer/internal/lifecycle"
	"enhancer/internal/prompt"
)

type backgroundDTO struct {
	Mode         string `json:"mode"`
	Description  string `json:"description,omitempty"`
	ReferenceRef string `json:"reference_ref,omitempty"`
}

type proDTO struct {
	Props       string `json:"props,omitempty"`
	Photography string `json:"photography,omitempty"`
	Composition string `json:"composition,omitempty"`
}

type selectionDTO struct {
	BusinessType string         `json:"business_type,omitempty"`
	Platform     string         `json:"platform,omitempty"`
	Mood         string         `json:"mood,omitempty"`
	Season       string         `json:"season,omitempty"`
	Background   *backgroundDTO `json:"background,omitempty"`
	Techniques   []string       `json:"techniques,omitempty"`
	Pro          *proDTO        `json:"pro,omitempty"`
	Addendum     string         `json:"addendum,omitempty"`
}

type editDTO struct {
	Text     string `json:"text"`
	Flexible bool   `json:"flexible"`
}

type formatHintsDTO struct {
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Tier        string `json:"resolution_tier,omitempty"`
}

type enhanceRequest struct {
	AssetSourceRef  string               `json:"asset_source_ref"`
	AssetID         string               `json:"asset_id,omitempty"`
	Selection       *selectionDTO        `json:"selection,omitempty"`
	EditInstruction *editDTO             `json:"edit_instruction,omitempty"`
	FormatHints     *formatHintsDTO      `json:"format_hints,omitempty"`
	Adjustments     *enhance.Adjustments `json:"adjustments,omitempty"`
}

// enhanceResponse is the stable caller-facing contract: the status and
// credits_remaining field names and the status/error enum values must not
// change across releases.
type enhanceResponse struct {
	AssetID           string  `json:"asset_id,omitempty"`
	Status            string  `json:"status"`
	ResultRef         *string `json:"result_ref,omitempty"`
	EnhancementMethod string  `json:"enhancement_method,omitempty"`

	// CreditsRemaining is a pointer so a balance that could not be read is
	// omitted rather than reported as zero.
	CreditsRemaining *int   `json:"credits_remaining,omitempty"`
	AISuggestions    string `json:"ai_suggestions,omitempty"`
	ErrorKind        string `json:"error_kind,omitempty"`
}

// EnhancementsCreate accepts an enhancement request and runs the full
// pipeline within the request, returning the terminal asset state.
func (a *App) EnhancementsCreate(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.writeError(w, domain.ErrUnauthorized)
		return
	}
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, domain.ErrInvalidSelection)
		return
	}

	lcReq := lifecycle.Request{
		AccountID:   accountID,
		AssetID:     req.AssetID,
		SourceRef:   req.AssetSourceRef,
		Adjustments: req.Adjustments,
	}
	if req.Selection != nil {
		lcReq.Selection = req.Selection.toSelection()
	}
	if req.EditInstruction != nil {
		mode := prompt.EditStrict
		if req.EditInstruction.Flexible {
			mode = prompt.EditFlexible
		}
		lcReq.Edit = &prompt.EditInstruction{Text: req.EditInstruction.Text, Mode: mode}
	}
	if req.FormatHints != nil {
		lcReq.Hints = prompt.FormatHints{
			AspectRatio: req.FormatHints.AspectRatio,
			Tier:        prompt.ResolutionTier(req.FormatHints.Tier),
		}
	}

	result, err := a.Manager.Enhance(r.Context(), lcReq)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.json(w, http.StatusOK, responseForResult(result))
}

// EnhancementStatus returns the asset's current lifecycle state.
func (a *App) EnhancementStatus(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.writeError(w, domain.ErrUnauthorized)
		return
	}
	assetID := chi.URLParam(r, "asset_id")
	asset, err := a.Manager.Asset(r.Context(), assetID, accountID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	resp := enhanceResponse{
		AssetID:           asset.ID,
		Status:            string(asset.Status),
		ResultRef:         asset.ResultRef,
		EnhancementMethod: string(asset.EnhancementMethod),
		AISuggestions:     asset.AISuggestions,
	}
	if ledger, err := a.Ledger.Balance(r.Context(), accountID); err == nil {
		resp.CreditsRemaining = &ledger.CreditsRemaining
	} else {
		a.Logger.Warn().Err(err).Str("account_id", accountID).Msg("handlers: balance read failed, omitting credits from status")
	}
	a.json(w, http.StatusOK, resp)
}

// EnhancementResubmit re-runs a failed asset on explicit user request.
func (a *App) EnhancementResubmit(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.writeError(w, domain.ErrUnauthorized)
		return
	}
	assetID := chi.URLParam(r, "asset_id")
	result, err := a.Manager.Resubmit(r.Context(), accountID, assetID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.json(w, http.StatusOK, responseForResult(result))
}

func responseForResult(result *lifecycle.Result) enhanceResponse {
	remaining := result.CreditsRemaining
	return enhanceResponse{
		AssetID:           result.Asset.ID,
		Status:            string(result.Asset.Status),
		ResultRef:         result.Asset.ResultRef,
		EnhancementMethod: string(result.Asset.EnhancementMethod),
		CreditsRemaining:  &remaining,
		AISuggestions:     result.Asset.AISuggestions,
	}
}

func (s *selectionDTO) toSelection() prompt.StyleSelection {
	sel := prompt.StyleSelection{
		BusinessType: prompt.BusinessType(s.BusinessType),
		Platform:     prompt.Platform(s.Platform),
		Mood:         prompt.Mood(s.Mood),
		Season:       prompt.Season(s.Season),
		Addendum:     s.Addendum,
	}
	if s.Background != nil {
		sel.Background = &prompt.Background{
			Mode:         prompt.BackgroundMode(s.Background.Mode),
			Description:  s.Background.Description,
			ReferenceRef: s.Background.ReferenceRef,
		}
	}
	for _, t := range s.Techniques {
		sel.Techniques = append(sel.Techniques, prompt.Technique(t))
	}
	if s.Pro != nil {
		sel.Pro = &prompt.ProSections{
			Props:       s.Pro.Props,
			Photography: s.Pro.Photography,
			Composition: s.Pro.Composition,
		}
	}
	return sel
}
