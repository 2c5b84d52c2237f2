// main package for the pdf2audio command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/joho/godotenv"

	"github.com/book-expert/pdf2audio/internal/audio"
	"github.com/book-expert/pdf2audio/internal/chunker"
	"github.com/book-expert/pdf2audio/internal/config"
	"github.com/book-expert/pdf2audio/internal/extract"
	"github.com/book-expert/pdf2audio/internal/fsutil"
	"github.com/book-expert/pdf2audio/internal/llm"
	"github.com/book-expert/pdf2audio/internal/manifest"
	"github.com/book-expert/pdf2audio/internal/pipeline"
	"github.com/book-expert/pdf2audio/internal/preclean"
	"github.com/book-expert/pdf2audio/internal/transform"
	"github.com/book-expert/pdf2audio/internal/tts"
)

// Flag names.
const (
	flagPDF           = "pdf"
	flagMP3           = "mp3"
	flagJob           = "job"
	flagLang          = "lang"
	flagConfig        = "config"
	flagNoLLM         = "no-llm"
	flagCleanerLLM    = "cleaner-llm"
	flagTTSProvider   = "ttsprovider"
	flagSSML          = "ssml"
	flagSummarize     = "summarize"
	flagSummaryLang   = "summary-lang"
	flagChunkStrategy = "chunk-strategy"
	flagChunkSize     = "chunk-size"
	flagDryRun        = "dry-run"
	flagVerbose       = "verbose"
)

// Flag descriptions.
const (
	flagPDFDesc           = "Input PDF path"
	flagMP3Desc           = "Output MP3 path"
	flagJobDesc           = "Job manifest path to resume instead of --pdf/--mp3"
	flagLangDesc          = "Language code for synthesis (default from config)"
	flagConfigDesc        = "Path to config.toml (defaults to ~/.pdf2audio/config.toml)"
	flagNoLLMDesc         = "Skip LLM text processing entirely"
	flagCleanerLLMDesc    = "LLM provider for text processing (openai, gemini)"
	flagTTSProviderDesc   = "TTS provider (gtts, openai, aws)"
	flagSSMLDesc          = "Tag text with SSML before synthesis"
	flagSummarizeDesc     = "Summarize the document instead of narrating it in full"
	flagSummaryLangDesc   = "Language for the summary (defaults to --lang)"
	flagChunkStrategyDesc = "Chunking strategy (paragraph, sentence)"
	flagChunkSizeDesc     = "Maximum characters per chunk"
	flagDryRunDesc        = "Stop after chunking; write manifest, skip synthesis"
	flagVerboseDesc       = "Enable verbose output"
)

// Validation messages.
const (
	errNeedPDFAndMP3     = "either both --pdf and --mp3, or --job, must be provided"
	errJobExcludesPaths  = "--job cannot be combined with --pdf or --mp3"
	errSummarizeNoLLM    = "--summarize cannot be combined with --no-llm"
	errSummarizeNeedsLLM = "--summarize requires an explicit --cleaner-llm provider"
	logInterrupted       = "Interrupted, exiting cleanly"
	bootstrapLogFileName = "pdf2audio-bootstrap.log"
	logFileName          = "pdf2audio.log"
	localEnvFileName     = ".env"
	completedMessage     = "Wrote %s (%d chunks)\n"
	dryRunMessage        = "Dry run complete, manifest at %s (%d chunks)\n"
	interruptedMessage   = "Interrupted.\n"
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	pdf           string
	mp3           string
	job           string
	lang          string
	config        string
	cleanerLLM    string
	ttsProvider   string
	summaryLang   string
	chunkStrategy string
	chunkSize     int
	noLLM         bool
	ssml          bool
	summarize     bool
	dryRun        bool
	verbose       bool
}

func main() {
	err := run()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprint(os.Stderr, interruptedMessage)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(1)
	}
}

// run is the main application entry point, returning an error on failure.
func run() error {
	flags := parseFlags()

	validationErr := validateFlags(flags)
	if validationErr != nil {
		flag.Usage()

		return validationErr
	}

	loadEnvFiles()

	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	runErr := execute(ctx, flags, cfg, log)
	if runErr != nil {
		if ctx.Err() != nil {
			log.Warn(logInterrupted)

			return context.Canceled
		}

		log.Error("Run failed: %v", runErr)

		return runErr
	}

	return nil
}

// parseFlags defines and parses command-line flags, returning them in a
// struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.pdf, flagPDF, "", flagPDFDesc)
	flag.StringVar(&flags.mp3, flagMP3, "", flagMP3Desc)
	flag.StringVar(&flags.job, flagJob, "", flagJobDesc)
	flag.StringVar(&flags.lang, flagLang, "", flagLangDesc)
	flag.StringVar(&flags.config, flagConfig, "", flagConfigDesc)
	flag.StringVar(&flags.cleanerLLM, flagCleanerLLM, "", flagCleanerLLMDesc)
	flag.StringVar(&flags.ttsProvider, flagTTSProvider, "", flagTTSProviderDesc)
	flag.StringVar(&flags.summaryLang, flagSummaryLang, "", flagSummaryLangDesc)
	flag.StringVar(&flags.chunkStrategy, flagChunkStrategy, "", flagChunkStrategyDesc)
	flag.IntVar(&flags.chunkSize, flagChunkSize, 0, flagChunkSizeDesc)
	flag.BoolVar(&flags.noLLM, flagNoLLM, false, flagNoLLMDesc)
	flag.BoolVar(&flags.ssml, flagSSML, false, flagSSMLDesc)
	flag.BoolVar(&flags.summarize, flagSummarize, false, flagSummarizeDesc)
	flag.BoolVar(&flags.dryRun, flagDryRun, false, flagDryRunDesc)
	flag.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	flag.Parse()

	return flags
}

// validateFlags rejects invalid flag combinations before any I/O work.
func validateFlags(flags appFlags) error {
	hasPaths := flags.pdf != "" && flags.mp3 != ""
	hasJob := flags.job != ""

	if hasJob && (flags.pdf != "" || flags.mp3 != "") {
		return errors.New(errJobExcludesPaths)
	}

	if !hasPaths && !hasJob {
		return errors.New(errNeedPDFAndMP3)
	}

	if flags.summarize && flags.noLLM {
		return errors.New(errSummarizeNoLLM)
	}

	if flags.summarize && flags.cleanerLLM == "" {
		return errors.New(errSummarizeNeedsLLM)
	}

	return nil
}

// loadEnvFiles loads credentials from the working directory and the user
// profile. Missing files are fine; real shell environment wins over both.
func loadEnvFiles() {
	candidates := []string{localEnvFileName, config.UserEnvPath()}

	for _, path := range candidates {
		if path == "" || !fsutil.FileExists(path) {
			continue
		}

		_ = godotenv.Load(path)
	}
}

// setup loads the configuration and initializes the final logger, using a
// bootstrap logger until the log directory is known.
func setup(flags appFlags) (*config.Config, *logger.Logger, error) {
	bootstrapLog, bootstrapErr := logger.New(os.TempDir(), bootstrapLogFileName)
	if bootstrapErr != nil {
		return nil, nil, fmt.Errorf(
			"failed to create bootstrap logger: %w",
			bootstrapErr,
		)
	}

	cfg, configErr := config.Load(flags.config)
	if configErr != nil {
		bootstrapLog.Error("Failed to load configuration: %v", configErr)
		_ = bootstrapLog.Close()

		return nil, nil, configErr
	}

	applyFlagOverrides(cfg, flags)

	finalLog, logErr := logger.New(cfg.Output.LogsDir, logFileName)
	if logErr != nil {
		bootstrapLog.Error("Failed to create logger: %v", logErr)
		_ = bootstrapLog.Close()

		return nil, nil, fmt.Errorf("failed to create logger: %w", logErr)
	}

	_ = bootstrapLog.Close()

	return cfg, finalLog, nil
}

// applyFlagOverrides layers CLI flags over the loaded configuration.
func applyFlagOverrides(cfg *config.Config, flags appFlags) {
	if flags.ttsProvider != "" {
		cfg.TTS.Provider = flags.ttsProvider
	}

	if flags.lang != "" {
		cfg.TTS.DefaultLanguage = flags.lang
	}

	if flags.cleanerLLM != "" {
		cfg.LLM.Provider = flags.cleanerLLM
	}

	if flags.chunkStrategy != "" {
		cfg.LLM.ChunkStrategy = flags.chunkStrategy
	}

	if flags.chunkSize > 0 {
		cfg.LLM.MaxChunkChars = flags.chunkSize
	}

	if flags.verbose {
		cfg.Output.Verbose = true
	}
}

// execute builds the providers and runs the pipeline.
func execute(
	ctx context.Context,
	flags appFlags,
	cfg *config.Config,
	log *logger.Logger,
) error {
	opts, prior, optsErr := buildOptions(flags, cfg)
	if optsErr != nil {
		return optsErr
	}

	strategy, strategyErr := chunker.ParseStrategy(cfg.LLM.ChunkStrategy)
	if strategyErr != nil {
		return strategyErr
	}

	opts.ChunkStrategy = strategy
	opts.MaxChunkChars = cfg.LLM.MaxChunkChars

	rateErr := audio.ValidateSpeakingRate(cfg.TTS.SpeakingRate)
	if rateErr != nil {
		return rateErr
	}

	transformer, transformerErr := buildTransformer(opts, cfg, log)
	if transformerErr != nil {
		return transformerErr
	}

	dispatcher, ssmlSupported, dispatcherErr := buildDispatcher(ctx, opts, cfg, log)
	if dispatcherErr != nil {
		return dispatcherErr
	}

	opts.SSMLSupported = ssmlSupported

	pipe := pipeline.New(extract.NewPDF(), transformer, dispatcher, log)

	result, runErr := pipe.Run(ctx, opts, prior)
	if runErr != nil {
		return runErr
	}

	report(result, opts)

	return nil
}

// buildOptions derives the run options from flags and config, loading the
// prior manifest when resuming.
func buildOptions(
	flags appFlags,
	cfg *config.Config,
) (pipeline.Options, *manifest.Manifest, error) {
	var prior *manifest.Manifest

	opts := pipeline.Options{
		PDFPath:         flags.pdf,
		MP3Path:         flags.mp3,
		ConfigPath:      flags.config,
		Language:        cfg.MapLanguage(cfg.TTS.DefaultLanguage),
		SummaryLanguage: flags.summaryLang,
		TTSProvider:     cfg.TTS.Provider,
		LLMProvider:     cfg.LLM.Provider,
		SpeakingRate:    cfg.TTS.SpeakingRate,
		Slow:            cfg.TTS.Slow,
		NoLLM:           flags.noLLM,
		Summarize:       flags.summarize,
		SSML:            flags.ssml,
		SSMLSupported:   false,
		DryRun:          flags.dryRun,
		ChunkStrategy:   "",
		MaxChunkChars:   0,
	}

	if flags.job == "" {
		return opts, nil, nil
	}

	loaded, loadErr := manifest.Load(flags.job)
	if loadErr != nil {
		return opts, nil, loadErr
	}

	prior = loaded

	// The manifest replays the original request.
	opts.PDFPath = prior.Inputs.PDFPath
	opts.MP3Path = prior.Outputs.MP3Path
	opts.Language = prior.Params.Language
	opts.TTSProvider = prior.Params.TTSProvider
	opts.SpeakingRate = prior.Params.SpeakingRate
	opts.Slow = prior.Params.Slow

	if prior.Params.LLMProvider != "" {
		opts.LLMProvider = prior.Params.LLMProvider
	}

	if !flags.summarize {
		opts.Summarize = prior.Params.Summarize
	}

	if !flags.ssml {
		opts.SSML = prior.Params.SSML
	}

	if flags.summaryLang == "" {
		opts.SummaryLanguage = prior.Params.SummaryLanguage
	}

	// A recorded run with neither cleaning nor summarization ran without an
	// LLM; replaying it must not start demanding provider credentials.
	if flags.cleanerLLM == "" && !flags.summarize &&
		!prior.Params.Clean && !prior.Params.Summarize {
		opts.NoLLM = true
	}

	// Chunking and synthesis settings replay from the record, not from the
	// current configuration, unless overridden on the command line.
	if flags.chunkStrategy == "" && prior.Params.ChunkStrategy != "" {
		cfg.LLM.ChunkStrategy = prior.Params.ChunkStrategy
	}

	if flags.chunkSize == 0 && prior.Params.MaxChunkChars > 0 {
		cfg.LLM.MaxChunkChars = prior.Params.MaxChunkChars
	}

	cfg.TTS.Provider = prior.Params.TTSProvider
	cfg.TTS.SpeakingRate = prior.Params.SpeakingRate
	cfg.TTS.Slow = prior.Params.Slow

	return opts, prior, nil
}

// buildTransformer constructs the LLM-backed transformer, or nil when LLM
// processing is disabled or the run never reaches it.
func buildTransformer(
	opts pipeline.Options,
	cfg *config.Config,
	log *logger.Logger,
) (pipeline.Transformer, error) {
	if opts.NoLLM || opts.DryRun {
		return nil, nil
	}

	kind, kindErr := llm.ParseKind(opts.LLMProvider)
	if kindErr != nil {
		return nil, kindErr
	}

	provider, providerErr := llm.New(kind, cfg.LLM)
	if providerErr != nil {
		return nil, providerErr
	}

	var cleaner *preclean.Cleaner
	if cfg.LLM.Preclean.Enabled {
		cleaner = preclean.New(preclean.Thresholds{
			MinRepeats:    cfg.LLM.Preclean.MinRepeats,
			MaxLineLength: cfg.LLM.Preclean.MaxLineLength,
		})
	}

	return transform.New(provider, cleaner, cfg.LLM, log)
}

// buildDispatcher constructs the TTS provider and synthesis dispatcher. In
// dry-run mode no synthesis happens and no provider credential is needed.
func buildDispatcher(
	ctx context.Context,
	opts pipeline.Options,
	cfg *config.Config,
	log *logger.Logger,
) (pipeline.Dispatcher, bool, error) {
	if opts.DryRun {
		return nil, false, nil
	}

	kind, kindErr := tts.ParseKind(opts.TTSProvider)
	if kindErr != nil {
		return nil, false, kindErr
	}

	synth, synthErr := tts.New(ctx, kind, cfg.TTS, log)
	if synthErr != nil {
		return nil, false, synthErr
	}

	ssmlSupported := synth.SupportsSSML()

	dispatcher, dispatchErr := tts.NewDispatcher(
		synth,
		audio.NewFFmpeg(""),
		log,
		cfg.TTS.SpeakingRate,
		opts.SSML && ssmlSupported,
	)
	if dispatchErr != nil {
		return nil, false, dispatchErr
	}

	return dispatcher, ssmlSupported, nil
}

// report prints the run outcome.
func report(result *pipeline.Result, opts pipeline.Options) {
	if result.State == manifest.StateDryRunCompleted {
		fmt.Printf(dryRunMessage, manifest.PathFor(opts.MP3Path), result.ChunkCount)

		return
	}

	fmt.Printf(completedMessage, opts.MP3Path, result.ChunkCount)
}
