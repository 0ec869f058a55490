package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModelsPath     = "/models"
	geminiListPageSize   = 200

	// Upstream error bodies are summarized before they can reach logs or
	// callers; this caps the summary length.
	maxErrorSummaryLen = 200
)

// GeminiBackend implements Backend against the Google Generative Language
// REST API.
type GeminiBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// GeminiOption configures a GeminiBackend.
type GeminiOption func(*GeminiBackend)

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(b *GeminiBackend) { b.client = c }
}

// WithGeminiBaseURL overrides the API base URL (used by tests).
func WithGeminiBaseURL(u string) GeminiOption {
	return func(b *GeminiBackend) { b.baseURL = strings.TrimRight(u, "/") }
}

// NewGeminiBackend creates a backend client. The API key travels in a
// request header, never in URLs, so it cannot leak through access logs.
func NewGeminiBackend(apiKey string, opts ...GeminiOption) *GeminiBackend {
	b := &GeminiBackend{
		baseURL: geminiDefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// -- wire types --

type gmnPart struct {
	Text string `json:"text,omitempty"`
}

type gmnContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []gmnPart `json:"parts"`
}

type gmnGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type gmnGenerateRequest struct {
	Contents          []gmnContent        `json:"contents"`
	SystemInstruction *gmnContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  gmnGenerationConfig `json:"generationConfig"`
}

type gmnCandidate struct {
	Content      gmnContent `json:"content"`
	FinishReason string     `json:"finishReason,omitempty"`
}

type gmnUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type gmnGenerateResponse struct {
	Candidates    []gmnCandidate `json:"candidates"`
	UsageMetadata gmnUsage       `json:"usageMetadata"`
}

type gmnModelList struct {
	Models        []ModelInfo `json:"models"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type gmnErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ListModels fetches the full model catalog, following pagination, in the
// API's own listing order.
func (b *GeminiBackend) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("pageSize", fmt.Sprint(geminiListPageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		endpoint := b.baseURL + geminiModelsPath + "?" + q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		b.setHeaders(req)

		resp, err := b.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backendError(resp.StatusCode, body)
		}

		var page gmnModelList
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("unmarshal model list: %w", err)
		}
		models = append(models, page.Models...)
		if page.NextPageToken == "" {
			return models, nil
		}
		pageToken = page.NextPageToken
	}
}

// Generate runs one content-generation call against the given model.
func (b *GeminiBackend) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	wire := gmnGenerateRequest{
		Contents: []gmnContent{
			{Role: "user", Parts: []gmnPart{{Text: req.UserPrompt}}},
		},
		GenerationConfig: gmnGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	if req.SystemPrompt != "" {
		wire.SystemInstruction = &gmnContent{Parts: []gmnPart{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := b.baseURL + "/" + modelPath(req.Model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	b.setHeaders(httpReq)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backendError(resp.StatusCode, body)
	}

	var wireResp gmnGenerateResponse
	if err := json.Unmarshal(body, &wireResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(wireResp.Candidates) == 0 {
		return nil, &BackendError{StatusCode: resp.StatusCode, Message: "no candidates returned"}
	}

	var sb strings.Builder
	for _, part := range wireResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return &GenerateResponse{
		Text:         sb.String(),
		FinishReason: wireResp.Candidates[0].FinishReason,
		InputTokens:  wireResp.UsageMetadata.PromptTokenCount,
		OutputTokens: wireResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (b *GeminiBackend) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("x-goog-api-key", b.apiKey)
	}
}

// modelPath normalizes catalog names ("models/gemini-x") and bare ids
// ("gemini-x") into the REST path segment.
func modelPath(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func backendError(status int, body []byte) *BackendError {
	var eb gmnErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return &BackendError{
			StatusCode: status,
			Status:     eb.Error.Status,
			Message:    summarize(eb.Error.Message),
		}
	}
	return &BackendError{
		StatusCode: status,
		Message:    summarize(string(body)),
	}
}

func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxErrorSummaryLen {
		return s[:maxErrorSummaryLen] + "..."
	}
	return s
}
