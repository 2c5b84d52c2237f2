package tts

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/book-expert/logger"

	"github.com/book-expert/pdf2audio/internal/config"
)

// AWS credential environment variables checked before client construction.
const (
	awsAccessKeyEnv = "AWS_ACCESS_KEY_ID"
	awsSecretKeyEnv = "AWS_SECRET_ACCESS_KEY"
	awsRegionEnv    = "AWS_DEFAULT_REGION"
)

// Polly billable-character limits, kept below the service's ~3000 cap. SSML
// input leaves room for the prosody wrapper and markup.
const (
	pollyMaxChars     = 2800
	pollyMaxCharsSSML = 2400
)

// PollyClient is the Polly capability the provider consumes.
type PollyClient interface {
	SynthesizeSpeech(
		ctx context.Context,
		params *polly.SynthesizeSpeechInput,
		optFns ...func(*polly.Options),
	) (*polly.SynthesizeSpeechOutput, error)
}

// pollySpeech synthesizes speech through AWS Polly. Input is wrapped in an
// SSML prosody element so the speaking rate is applied natively.
type pollySpeech struct {
	client PollyClient
	cfg    config.TTSConfig
	log    *logger.Logger
}

// newPolly creates the AWS Polly provider, failing when credentials are not
// set.
func newPolly(
	ctx context.Context,
	cfg config.TTSConfig,
	log *logger.Logger,
) (*pollySpeech, error) {
	if os.Getenv(awsAccessKeyEnv) == "" || os.Getenv(awsSecretKeyEnv) == "" {
		return nil, fmt.Errorf(
			"%w: %s and %s must be set",
			ErrMissingCredential,
			awsAccessKeyEnv,
			awsSecretKeyEnv,
		)
	}

	region := cfg.Voice.AWS.Region
	if envRegion := os.Getenv(awsRegionEnv); envRegion != "" {
		region = envRegion
	}

	awsCfg, loadErr := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
	)
	if loadErr != nil {
		return nil, fmt.Errorf("failed to load aws configuration: %w", loadErr)
	}

	return &pollySpeech{
		client: polly.NewFromConfig(awsCfg),
		cfg:    cfg,
		log:    log,
	}, nil
}

// newPollyWithClient wires a caller-supplied Polly client, used by tests.
func newPollyWithClient(
	client PollyClient,
	cfg config.TTSConfig,
	log *logger.Logger,
) *pollySpeech {
	return &pollySpeech{
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// Synthesize returns MP3 audio for text in the given language.
func (p *pollySpeech) Synthesize(
	ctx context.Context, text, language string,
) ([]byte, error) {
	ssml := wrapProsody(text, language, p.cfg.SpeakingRate)

	output, synthErr := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(ssml),
		TextType:     pollytypes.TextTypeSsml,
		OutputFormat: pollytypes.OutputFormatMp3,
		VoiceId:      pollytypes.VoiceId(p.cfg.Voice.AWS.VoiceID),
		Engine:       pollytypes.Engine(p.cfg.Voice.AWS.Engine),
		LanguageCode: pollytypes.LanguageCode(language),
	})
	if synthErr != nil {
		return nil, fmt.Errorf("polly synthesis failed: %w", synthErr)
	}

	defer func() {
		_ = output.AudioStream.Close()
	}()

	audio, readErr := io.ReadAll(output.AudioStream)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read polly audio stream: %w", readErr)
	}

	return audio, nil
}

// MaxInputChars returns the per-request input limit.
func (p *pollySpeech) MaxInputChars(ssml bool) int {
	if ssml {
		return pollyMaxCharsSSML
	}

	return pollyMaxChars
}

// SupportsSSML reports that Polly interprets SSML input.
func (p *pollySpeech) SupportsSSML() bool {
	return true
}

// AppliesSpeakingRate reports that the rate rides in the prosody wrapper.
func (p *pollySpeech) AppliesSpeakingRate() bool {
	return true
}

// wrapProsody wraps text in a speak/prosody envelope carrying the speaking
// rate as a percentage offset from normal speed. An envelope already present
// on the input is stripped first; Polly rejects nested speak elements.
func wrapProsody(text, language string, rate float64) string {
	ratePercent := int((rate - 1.0) * 100)

	rateValue := "0%"
	if ratePercent != 0 {
		rateValue = fmt.Sprintf("%+d%%", ratePercent)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang=%q><prosody rate=%q>%s</prosody></speak>`,
		language,
		rateValue,
		stripSpeakEnvelope(text),
	)
}
