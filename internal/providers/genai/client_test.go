package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"enhancer/internal/enhance"
	"enhancer/internal/retry"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGenerateParsesImageAndText(t *testing.T) {
	imageBytes := []byte("generated image bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("api key not forwarded: %s", r.URL.RawQuery)
		}
		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Errorf("expected prompt plus seed image, got %+v", req.Contents)
		}
		if req.Contents[0].Parts[1].InlineData.MimeType != "image/png" {
			t.Errorf("seed mime not forwarded: %+v", req.Contents[0].Parts[1])
		}

		resp := generateContentResponse{Candidates: []candidate{{Content: content{Parts: []part{
			{Text: "  brightened and recomposed  "},
			{InlineData: &inlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(imageBytes)}},
		}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Generate(context.Background(), enhance.GenerateRequest{
		Prompt:    "enhance this photo",
		SeedImage: []byte("seed"),
		SeedMIME:  "image/png",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.HasImage() || string(result.Image) != string(imageBytes) {
		t.Fatalf("image not decoded: %+v", result)
	}
	if result.MIME != "image/png" {
		t.Fatalf("mime not carried: %s", result.MIME)
	}
	if result.Text != "brightened and recomposed" {
		t.Fatalf("text not trimmed and captured: %q", result.Text)
	}
}

func TestGenerateTextOnlyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := generateContentResponse{Candidates: []candidate{{Content: content{Parts: []part{
			{Text: "the image could not be regenerated, consider better lighting"},
		}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	result, err := client.Generate(context.Background(), enhance.GenerateRequest{Prompt: "enhance"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.HasImage() {
		t.Fatal("no image expected")
	}
	if result.Text == "" {
		t.Fatal("text part must be surfaced")
	}
}

func TestGenerateUpstreamErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Generate(context.Background(), enhance.GenerateRequest{Prompt: "enhance"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Message != "quota exhausted" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if !retry.DefaultClassifier(err) {
		t.Fatal("429 responses must be classified retryable")
	}
}

func TestGenerateFatalErrorIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid argument"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Generate(context.Background(), enhance.GenerateRequest{Prompt: "enhance"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if retry.DefaultClassifier(err) {
		t.Fatal("400 responses must not be retried")
	}
}
