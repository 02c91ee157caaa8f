package enhance

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"enhancer/internal/domain"
	"enhancer/internal/prompt"
)

// Outcome is the coordinator's terminal result: always a usable image on a
// non-exceptional path, plus the method that produced it and any opportunistic
// suggestions text from the generative stage.
type Outcome struct {
	Image       []byte
	MIME        string
	Method      domain.EnhancementMethod
	Suggestions string
}

// Generative abstracts the retry-wrapped generative stage for the pipeline.
type Generative interface {
	Run(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// Pipeline sequences the deterministic and generative stages and selects the
// final usable output.
type Pipeline struct {
	// Deterministic is the local tonal transform; defaults to
	// ApplyAdjustments.
	Deterministic func(src []byte, adj Adjustments) ([]byte, string, error)
	Generative    Generative
	Logger        zerolog.Logger
}

func NewPipeline(generative Generative, logger zerolog.Logger) *Pipeline {
	return &Pipeline{Deterministic: ApplyAdjustments, Generative: generative, Logger: logger}
}

// Run executes the fallback cascade:
//
//	deterministic → baseline (or source bytes on failure)
//	generative(baseline, prompt) → final image when one is returned
//	otherwise final := baseline
//
// An error is returned only when both stages failed, in which case there is
// no usable enhancement to persist.
func (p *Pipeline) Run(ctx context.Context, source []byte, sourceMIME string, adj Adjustments, composed prompt.ComposedPrompt) (Outcome, error) {
	baseline := source
	baselineMIME := sourceMIME
	method := domain.MethodDeterministic

	detFn := p.Deterministic
	if detFn == nil {
		detFn = ApplyAdjustments
	}
	adjusted, mime, detErr := detFn(source, adj)
	if detErr != nil {
		p.Logger.Warn().Err(detErr).Msg("pipeline: deterministic stage failed, seeding generative stage with source bytes")
		method = domain.MethodSkipped
	} else {
		baseline = adjusted
		baselineMIME = mime
	}

	result, genErr := p.Generative.Run(ctx, GenerateRequest{
		Prompt:    composed.Text(),
		SeedImage: baseline,
		SeedMIME:  baselineMIME,
		Format:    composed.Format,
	})
	if genErr != nil {
		p.Logger.Warn().Err(genErr).Msg("pipeline: generative stage exhausted, falling back to baseline")
	}

	outcome := Outcome{Image: baseline, MIME: baselineMIME, Method: method}
	if result != nil {
		outcome.Suggestions = result.Text
	}
	if result.HasImage() {
		outcome.Image = result.Image
		outcome.MIME = result.MIME
		if outcome.MIME == "" {
			outcome.MIME = baselineMIME
		}
		if method == domain.MethodSkipped {
			outcome.Method = domain.MethodGenerative
		} else {
			outcome.Method = domain.MethodGenerativeDeterministic
		}
		return outcome, nil
	}

	// No generative image. The deterministic baseline is the recovery path;
	// when it also failed the run fails rather than handing back the
	// untouched source: credits move only for a delivered transformation.
	if method == domain.MethodSkipped {
		if genErr != nil {
			return Outcome{}, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, genErr)
		}
		return Outcome{}, fmt.Errorf("%w: no image produced and deterministic stage failed: %v", domain.ErrUpstreamFailure, detErr)
	}
	return outcome, nil
}
