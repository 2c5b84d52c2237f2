package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/book-expert/pdf2audio/internal/config"
)

// OpenAI speech endpoint settings.
const (
	defaultOpenAISpeechBaseURL = "https://api.openai.com/v1"
	openAISpeechKeyEnv         = "OPENAI_API_KEY"
)

// openAISpeechMaxChars stays below the documented 4096-character request
// limit.
const openAISpeechMaxChars = 4000

// speechRequest is the request body for the speech endpoint.
type speechRequest struct {
	Model string  `json:"model"`
	Voice string  `json:"voice"`
	Input string  `json:"input"`
	Speed float64 `json:"speed,omitempty"`
}

// openAISpeech synthesizes speech through the OpenAI audio API. The speaking
// rate is passed natively as the request speed.
type openAISpeech struct {
	apiKey     string
	baseURL    string
	cfg        config.TTSConfig
	httpClient *http.Client
}

// newOpenAISpeech creates the OpenAI provider, failing when the API key is
// not set.
func newOpenAISpeech(cfg config.TTSConfig) (*openAISpeech, error) {
	apiKey := os.Getenv(openAISpeechKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf(
			"%w: %s not set",
			ErrMissingCredential,
			openAISpeechKeyEnv,
		)
	}

	baseURL := cfg.Voice.OpenAI.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAISpeechBaseURL
	}

	return &openAISpeech{
		apiKey:     apiKey,
		baseURL:    baseURL,
		cfg:        cfg,
		httpClient: &http.Client{},
	}, nil
}

// Synthesize returns MP3 audio for text. The language is implicit in the
// input text for this provider.
func (o *openAISpeech) Synthesize(
	ctx context.Context, text, _ string,
) ([]byte, error) {
	requestBody := speechRequest{
		Model: o.cfg.Voice.OpenAI.Model,
		Voice: o.cfg.Voice.OpenAI.Voice,
		Input: text,
		Speed: o.cfg.SpeakingRate,
	}

	payload, marshalErr := json.Marshal(requestBody)
	if marshalErr != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", marshalErr)
	}

	endpoint := o.baseURL + "/audio/speech"

	request, requestErr := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		bytes.NewReader(payload),
	)
	if requestErr != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", requestErr)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+o.apiKey)

	response, doErr := o.httpClient.Do(request)
	if doErr != nil {
		return nil, fmt.Errorf("failed to send speech request: %w", doErr)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)

		return nil, fmt.Errorf(
			"speech request failed with status %d: %s",
			response.StatusCode,
			string(body),
		)
	}

	audio, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", readErr)
	}

	return audio, nil
}

// MaxInputChars returns the per-request input limit.
func (o *openAISpeech) MaxInputChars(_ bool) int {
	return openAISpeechMaxChars
}

// SupportsSSML reports that the endpoint takes plain text only.
func (o *openAISpeech) SupportsSSML() bool {
	return false
}

// AppliesSpeakingRate reports that the rate rides on the request natively.
func (o *openAISpeech) AppliesSpeakingRate() bool {
	return true
}
