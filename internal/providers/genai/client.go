// Package genai implements the external generative capability against a
// Gemini-style generateContent HTTP API.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"enhancer/internal/enhance"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("genai: api key is required")

// APIError carries the upstream HTTP status so the retry classifier can
// distinguish overload and availability failures from fatal ones.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("genai: status %d", e.Status)
	}
	return fmt.Sprintf("genai: status %d: %s", e.Status, e.Message)
}

// HTTPStatus implements the retry package's status contract.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// Options configures the client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client is constructed once at process start and injected into the pipeline;
// there is no lazily-built global handle.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.5-flash-image"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	CandidateCount int `json:"candidateCount,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// Generate sends the composed instruction plus the seed image and normalises
// the response parts into image bytes and/or explanatory text.
func (c *Client) Generate(ctx context.Context, req enhance.GenerateRequest) (*enhance.GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seedMIME := req.SeedMIME
	if seedMIME == "" {
		seedMIME = "image/png"
	}
	parts := []part{{Text: req.Prompt}}
	if len(req.SeedImage) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: seedMIME,
			Data:     base64.StdEncoding.EncodeToString(req.SeedImage),
		}})
	}
	payload := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{CandidateCount: 1},
	}

	var response generateContentResponse
	if err := c.invoke(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model)), payload, &response); err != nil {
		return nil, err
	}

	result := &enhance.GenerateResult{}
	for _, cand := range response.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" && len(result.Image) == 0 {
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					c.logger.Warn().Err(err).Msg("genai: skipping undecodable inline part")
					continue
				}
				result.Image = data
				result.MIME = p.InlineData.MimeType
			}
			if text := strings.TrimSpace(p.Text); text != "" {
				if result.Text != "" {
					result.Text += "\n"
				}
				result.Text += text
			}
		}
	}

	c.logger.Debug().
		Str("model", c.model).
		Bool("has_image", result.HasImage()).
		Bool("has_text", result.Text != "").
		Msg("genai: generation response normalised")

	return result, nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: encode request: %w", err)
	}
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var detail apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil && detail.Error.Message != "" {
			apiErr.Message = detail.Error.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}

var _ enhance.Capability = (*Client)(nil)
