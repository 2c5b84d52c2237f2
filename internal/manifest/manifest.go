// Package manifest defines the persistent job record for a conversion run.
//
// A manifest is written next to the output audio file and captures everything
// needed to resume an interrupted run: input and output paths, the requested
// parameters, the pipeline state reached, and the on-disk artifacts produced
// so far. Manifests are versioned JSON documents validated against an
// embedded schema on load, so a corrupt or foreign file is rejected before
// the pipeline acts on it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/book-expert/pdf2audio/internal/fsutil"
)

// Version is the current manifest schema version.
const Version = 1

// manifestSuffix is appended to the output stem to form the manifest path.
const manifestSuffix = ".job.json"

// Pipeline states recorded in the manifest.
const (
	StateCreated         = "created"
	StateExtracted       = "extracted"
	StateCleaned         = "cleaned"
	StateSummarized      = "summarized"
	StateSynthesized     = "synthesized"
	StateCompleted       = "completed"
	StateDryRunCompleted = "dry_run_completed"
	StateFailed          = "failed"
)

// Static errors for manifest handling.
var (
	// ErrManifestNotFound indicates the manifest file does not exist.
	ErrManifestNotFound = errors.New("manifest file not found")
	// ErrUnsupportedVersion indicates the manifest was written by an
	// incompatible version of the tool.
	ErrUnsupportedVersion = errors.New("unsupported manifest version")
	// ErrInvalidManifest indicates the manifest failed schema validation.
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Inputs records the source files for the job.
type Inputs struct {
	PDFPath    string `json:"pdf_path"`
	ConfigPath string `json:"config_path,omitempty"`
}

// Outputs records where results are written.
type Outputs struct {
	MP3Path      string `json:"mp3_path"`
	ArtifactsDir string `json:"artifacts_dir,omitempty"`
}

// Params records the effective processing parameters after config and flag
// layering. The record is self-describing: replaying it alone reproduces the
// run, including the chunking settings, without consulting the current
// configuration.
type Params struct {
	TTSProvider     string  `json:"tts_provider"`
	Language        string  `json:"language"`
	SpeakingRate    float64 `json:"speaking_rate"`
	Slow            bool    `json:"slow,omitempty"`
	LLMProvider     string  `json:"llm_provider,omitempty"`
	Clean           bool    `json:"clean,omitempty"`
	Summarize       bool    `json:"summarize,omitempty"`
	SummaryLanguage string  `json:"summary_language,omitempty"`
	SSML            bool    `json:"ssml,omitempty"`
	DryRun          bool    `json:"dry_run,omitempty"`
	ChunkStrategy   string  `json:"chunk_strategy"`
	MaxChunkChars   int     `json:"max_chunk_chars"`
}

// Artifacts records intermediate files produced by completed stages. A
// non-empty path whose file still exists lets a resumed run skip the stage
// that produced it.
type Artifacts struct {
	RawText     string   `json:"raw_text,omitempty"`
	CleanedText string   `json:"cleaned_text,omitempty"`
	SummaryText string   `json:"summary_text,omitempty"`
	SSMLText    string   `json:"ssml_text,omitempty"`
	ChunksDir   string   `json:"chunks_dir,omitempty"`
	Chunks      []string `json:"chunks,omitempty"`
}

// Manifest is the versioned job record.
type Manifest struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Params    Params    `json:"params"`
	Artifacts Artifacts `json:"artifacts,omitempty"`
}

// New creates a manifest for a fresh job in the created state.
func New(inputs Inputs, outputs Outputs, params Params) *Manifest {
	now := time.Now().UTC()

	return &Manifest{
		Version:   Version,
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		State:     StateCreated,
		Error:     "",
		Inputs:    inputs,
		Outputs:   outputs,
		Params:    params,
		Artifacts: Artifacts{
			RawText:     "",
			CleanedText: "",
			SummaryText: "",
			SSMLText:    "",
			ChunksDir:   "",
			Chunks:      nil,
		},
	}
}

// PathFor returns the manifest path for a given output audio path: the audio
// file's stem plus the manifest suffix, in the same directory.
func PathFor(mp3Path string) string {
	stem := strings.TrimSuffix(mp3Path, filepath.Ext(mp3Path))

	return stem + manifestSuffix
}

// SetState transitions the manifest to a new state and refreshes the update
// timestamp.
func (m *Manifest) SetState(state string) {
	m.State = state
	m.UpdatedAt = time.Now().UTC()
}

// SetFailure marks the manifest failed and records the error message.
func (m *Manifest) SetFailure(runErr error) {
	m.State = StateFailed
	m.Error = runErr.Error()
	m.UpdatedAt = time.Now().UTC()
}

// Save writes the manifest atomically to path.
func (m *Manifest) Save(path string) error {
	data, marshalErr := json.MarshalIndent(m, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal manifest: %w", marshalErr)
	}

	data = append(data, '\n')

	writeErr := fsutil.WriteFileAtomic(path, data)
	if writeErr != nil {
		return fmt.Errorf("failed to save manifest %s: %w", path, writeErr)
	}

	return nil
}

// Load reads a manifest from path, validates it against the embedded schema,
// and rejects unsupported versions.
func Load(path string) (*Manifest, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}

		return nil, fmt.Errorf("failed to read manifest %s: %w", path, readErr)
	}

	violations, validateErr := ValidateBytes(data)
	if validateErr != nil {
		return nil, fmt.Errorf("failed to validate manifest %s: %w", path, validateErr)
	}

	if len(violations) > 0 {
		return nil, fmt.Errorf(
			"%w: %s: %s",
			ErrInvalidManifest,
			path,
			violations[0].Error(),
		)
	}

	var loaded Manifest

	unmarshalErr := json.Unmarshal(data, &loaded)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, unmarshalErr)
	}

	if loaded.Version != Version {
		return nil, fmt.Errorf(
			"%w: got %d, want %d",
			ErrUnsupportedVersion,
			loaded.Version,
			Version,
		)
	}

	return &loaded, nil
}
