package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/book-expert/pdf2audio/internal/config"
)

// defaultOpenAIBaseURL is the production API endpoint; tests override it
// through the base_url config field.
const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// System prompts for each transformation.
const (
	cleanSystemPrompt   = "You are a text cleaning assistant."
	ssmlSystemPrompt    = "You are an SSML tagging assistant."
	summarySystemPrompt = "You produce concise, coherent audiobook-style summaries."
	mergeSystemPrompt   = "You merge and compress summaries into a single " +
		"coherent narrative without losing details."
	expandSystemPrompt = "You expand summaries by adding missing but " +
		"consistent detail; no hallucinations."
)

// chatMessage is one message in a chat completion request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatResponse is the subset of the chat completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// openAIProvider implements TextTransformer against the OpenAI chat
// completions API.
type openAIProvider struct {
	apiKey     string
	baseURL    string
	cfg        config.LLMConfig
	httpClient *http.Client
}

// newOpenAI creates the OpenAI provider.
func newOpenAI(apiKey string, cfg config.LLMConfig) *openAIProvider {
	baseURL := cfg.API.OpenAI.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &openAIProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// CleanText rewrites extracted text for narration.
func (p *openAIProvider) CleanText(ctx context.Context, text string) (string, error) {
	if text == "" {
		return text, nil
	}

	return p.complete(ctx, cleanSystemPrompt, p.cfg.CleaningPrompt+"\n\n"+text)
}

// ApplySSML adds SSML markup to text.
func (p *openAIProvider) ApplySSML(ctx context.Context, text string) (string, error) {
	if text == "" {
		return text, nil
	}

	return p.complete(ctx, ssmlSystemPrompt, p.cfg.SSMLPrompt+"\n\n"+text)
}

// SummarizeText produces an audiobook-style summary of text.
func (p *openAIProvider) SummarizeText(
	ctx context.Context, text, language string, targetWords int,
) (string, error) {
	if text == "" {
		return text, nil
	}

	prompt := summaryPrompt(p.cfg.SummaryPrompt, language, targetWords)

	return p.complete(ctx, summarySystemPrompt, prompt+"\n\n"+text)
}

// MergeSummaries combines per-chunk summaries into one narrative.
func (p *openAIProvider) MergeSummaries(
	ctx context.Context, text, language string, targetWords int,
) (string, error) {
	if text == "" {
		return text, nil
	}

	prompt := mergePrompt(p.cfg.SummaryMergePrompt, language, targetWords)

	return p.complete(ctx, mergeSystemPrompt, prompt+"\n\n"+text)
}

// ExpandSummary lengthens a too-short summary.
func (p *openAIProvider) ExpandSummary(
	ctx context.Context, summary, source, language string, targetWords int,
) (string, error) {
	prompt := expandPrompt(summary, source, language, targetWords)

	return p.complete(ctx, expandSystemPrompt, prompt)
}

// complete sends a chat completion request and returns the first choice.
func (p *openAIProvider) complete(
	ctx context.Context, systemPrompt, userPrompt string,
) (string, error) {
	requestBody := chatRequest{
		Model: p.cfg.API.OpenAI.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   p.cfg.API.OpenAI.MaxTokens,
		Temperature: p.cfg.API.OpenAI.Temperature,
	}

	payload, marshalErr := json.Marshal(requestBody)
	if marshalErr != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", marshalErr)
	}

	endpoint := p.baseURL + "/chat/completions"

	request, requestErr := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		bytes.NewReader(payload),
	)
	if requestErr != nil {
		return "", fmt.Errorf("failed to create chat request: %w", requestErr)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+p.apiKey)

	response, doErr := p.httpClient.Do(request)
	if doErr != nil {
		return "", fmt.Errorf("failed to send chat request: %w", doErr)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)

		return "", fmt.Errorf(
			"chat request failed with status %d: %s",
			response.StatusCode,
			string(body),
		)
	}

	var parsed chatResponse

	decodeErr := json.NewDecoder(response.Body).Decode(&parsed)
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", decodeErr)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Choices[0].Message.Content, nil
}
