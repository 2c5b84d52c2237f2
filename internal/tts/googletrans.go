package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/book-expert/pdf2audio/internal/config"
)

// The unofficial Google Translate TTS endpoint used by the gtts provider.
const (
	googleTranslateTTSURL = "https://translate.google.com/translate_tts"
	googleTranslateClient = "tw-ob"
)

// googleTranslateMaxChars is the practical per-request limit of the
// endpoint.
const googleTranslateMaxChars = 200

// Playback speed values understood by the endpoint.
const (
	googleTranslateNormalSpeed = "1"
	googleTranslateSlowSpeed   = "0.24"
)

// googleTranslate synthesizes speech through the public Google Translate TTS
// endpoint. No credential is required; the endpoint accepts only short
// inputs and plain text.
type googleTranslate struct {
	cfg        config.TTSConfig
	httpClient *http.Client
}

// newGoogleTranslate creates the gtts provider.
func newGoogleTranslate(cfg config.TTSConfig) *googleTranslate {
	return &googleTranslate{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// Synthesize fetches MP3 audio for text in the given language.
func (g *googleTranslate) Synthesize(
	ctx context.Context, text, language string,
) ([]byte, error) {
	speed := googleTranslateNormalSpeed
	if g.cfg.Slow {
		speed = googleTranslateSlowSpeed
	}

	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", googleTranslateClient)
	query.Set("tl", language)
	query.Set("ttsspeed", speed)
	query.Set("q", text)

	endpoint := googleTranslateTTSURL + "?" + query.Encode()

	request, requestErr := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		endpoint,
		nil,
	)
	if requestErr != nil {
		return nil, fmt.Errorf("failed to create gtts request: %w", requestErr)
	}

	response, doErr := g.httpClient.Do(request)
	if doErr != nil {
		return nil, fmt.Errorf("failed to send gtts request: %w", doErr)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"gtts request failed with status %d",
			response.StatusCode,
		)
	}

	audio, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read gtts response: %w", readErr)
	}

	return audio, nil
}

// MaxInputChars returns the per-request input limit.
func (g *googleTranslate) MaxInputChars(_ bool) int {
	return googleTranslateMaxChars
}

// SupportsSSML reports that the endpoint takes plain text only.
func (g *googleTranslate) SupportsSSML() bool {
	return false
}

// AppliesSpeakingRate reports that rate adjustment happens in
// post-processing; the endpoint only distinguishes normal and slow.
func (g *googleTranslate) AppliesSpeakingRate() bool {
	return false
}
