package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/book-expert/pdf2audio/internal/config"
)

// geminiFallbackModels is tried in order when the configured model is not
// available, fast first.
var geminiFallbackModels = []string{
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-1.0-pro",
}

// geminiProvider implements TextTransformer against the Gemini API. A client
// is created per call; the underlying SDK keeps no per-call state worth
// pooling and this keeps the provider safe for concurrent use.
type geminiProvider struct {
	apiKey string
	cfg    config.LLMConfig
}

// newGemini creates the Gemini provider.
func newGemini(apiKey string, cfg config.LLMConfig) *geminiProvider {
	return &geminiProvider{
		apiKey: apiKey,
		cfg:    cfg,
	}
}

// CleanText rewrites extracted text for narration.
func (p *geminiProvider) CleanText(ctx context.Context, text string) (string, error) {
	if text == "" {
		return text, nil
	}

	return p.generateWithFallback(ctx, p.cfg.CleaningPrompt+"\n\n"+text)
}

// ApplySSML adds SSML markup to text.
func (p *geminiProvider) ApplySSML(ctx context.Context, text string) (string, error) {
	if text == "" {
		return text, nil
	}

	return p.generateWithFallback(ctx, p.cfg.SSMLPrompt+"\n\n"+text)
}

// SummarizeText produces an audiobook-style summary of text.
func (p *geminiProvider) SummarizeText(
	ctx context.Context, text, language string, targetWords int,
) (string, error) {
	if text == "" {
		return text, nil
	}

	prompt := summaryPrompt(p.cfg.SummaryPrompt, language, targetWords)

	return p.generateWithFallback(ctx, prompt+"\n\n"+text)
}

// MergeSummaries combines per-chunk summaries into one narrative.
func (p *geminiProvider) MergeSummaries(
	ctx context.Context, text, language string, targetWords int,
) (string, error) {
	if text == "" {
		return text, nil
	}

	prompt := mergePrompt(p.cfg.SummaryMergePrompt, language, targetWords)

	return p.generateWithFallback(ctx, prompt+"\n\n"+text)
}

// ExpandSummary lengthens a too-short summary.
func (p *geminiProvider) ExpandSummary(
	ctx context.Context, summary, source, language string, targetWords int,
) (string, error) {
	return p.generateWithFallback(
		ctx,
		expandPrompt(summary, source, language, targetWords),
	)
}

// generateWithFallback generates with the configured model and falls through
// the fallback chain when a model is not available.
func (p *geminiProvider) generateWithFallback(
	ctx context.Context, prompt string,
) (string, error) {
	models := candidateModels(p.cfg.API.Gemini.Model)

	var lastErr error

	for _, model := range models {
		text, generateErr := p.generate(ctx, model, prompt)
		if generateErr == nil {
			return text, nil
		}

		lastErr = generateErr

		if !isModelUnavailable(generateErr) {
			return "", generateErr
		}
	}

	return "", fmt.Errorf("all gemini models failed: %w", lastErr)
}

// generate runs a single generation call against one model.
func (p *geminiProvider) generate(
	ctx context.Context, model, prompt string,
) (string, error) {
	client, clientErr := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if clientErr != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", clientErr)
	}

	result, generateErr := client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(prompt),
		nil,
	)
	if generateErr != nil {
		return "", fmt.Errorf("gemini generation failed: %w", generateErr)
	}

	if result == nil || len(result.Candidates) == 0 ||
		result.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var builder strings.Builder

	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			builder.WriteString(part.Text)
		}
	}

	if builder.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return builder.String(), nil
}

// candidateModels returns the configured model followed by the fallbacks,
// deduplicated.
func candidateModels(configured string) []string {
	models := make([]string, 0, len(geminiFallbackModels)+1)

	if configured != "" {
		models = append(models, configured)
	}

	for _, fallback := range geminiFallbackModels {
		if fallback != configured {
			models = append(models, fallback)
		}
	}

	return models
}

// isModelUnavailable reports whether an error means the model does not exist
// or is unsupported, which warrants trying the next fallback.
func isModelUnavailable(err error) bool {
	message := strings.ToLower(err.Error())

	return strings.Contains(message, "not found") ||
		strings.Contains(message, "unsupported") ||
		strings.Contains(message, "404")
}
