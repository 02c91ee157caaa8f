package enhance

import (
	"context"
	"time"

	"enhancer/internal/prompt"
	"enhancer/internal/retry"
)

// GenerateRequest is the narrow contract handed to the external generative
// capability: instruction text, a seed image, and format hints.
type GenerateRequest struct {
	Prompt    string
	SeedImage []byte
	SeedMIME  string
	Format    prompt.FormatSpec
}

// GenerateResult may carry an image, explanatory text, both, or neither.
type GenerateResult struct {
	Image []byte
	MIME  string
	Text  string
}

// HasImage reports whether the capability returned usable image bytes.
func (r *GenerateResult) HasImage() bool {
	return r != nil && len(r.Image) > 0
}

// Capability is the injected external image-generation collaborator. It is
// constructed once at process start and passed explicitly into the pipeline.
type Capability interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// DefaultRetryPolicy is the documented generative-stage policy: 3 attempts,
// 2s base delay doubling to a 5s cap, 20s per attempt. Callers sizing an
// outer deadline must budget for the full wall-clock bound.
func DefaultRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:       3,
		BaseDelay:         2 * time.Second,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2,
		PerAttemptTimeout: 20 * time.Second,
	}
}

// GenerativeStage invokes the external capability through the retry executor.
type GenerativeStage struct {
	capability Capability
	policy     retry.Policy
}

func NewGenerativeStage(capability Capability, policy retry.Policy) *GenerativeStage {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return &GenerativeStage{capability: capability, policy: policy}
}

// Run drives one generative transformation. All retryable failures are
// absorbed by the executor; the returned error is the exhausted last error or
// a fatal one.
func (s *GenerativeStage) Run(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	return retry.Do(ctx, s.policy, func(ctx context.Context) (*GenerateResult, error) {
		return s.capability.Generate(ctx, req)
	})
}
