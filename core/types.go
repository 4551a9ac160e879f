// Package core defines the shared types, configuration, and output helpers
// for flac-autofix.
package core

// Status is the terminal outcome of processing one file.
type Status string

const (
	StatusSkip   Status = "SKIP"   // not a native FLAC
	StatusOK     Status = "OK"     // native FLAC, no anomaly found
	StatusDryRun Status = "DRYRUN" // anomaly found, dry-run mode, nothing touched
	StatusFixed  Status = "FIXED"  // repair executed and verified
	StatusFail   Status = "FAIL"   // repair attempted but unusable, or no tool
	StatusError  Status = "ERROR"  // unexpected failure, contained to this file
)

// Action is the repair strategy selected for an anomalous file.
type Action string

const (
	// ActionReencodePrimary re-muxes losslessly with ffmpeg, carrying
	// container-level tags over and dropping video/subtitle streams.
	ActionReencodePrimary Action = "reencode-primary"
	// ActionReencodeSecondary decodes to an intermediate WAV with the flac
	// CLI and re-encodes it, a two-step path used when ffmpeg is absent.
	ActionReencodeSecondary Action = "reencode-secondary"
	// ActionStripMetadata clears every metadata block in place with metaflac.
	ActionStripMetadata Action = "strip-metadata"
	// ActionSkip means no installed tool can handle the file.
	ActionSkip Action = "skip"
)

// ToolKind names an external tool flac-autofix can drive. The values are
// the executable names looked up on PATH.
type ToolKind string

const (
	ToolFFmpeg   ToolKind = "ffmpeg"
	ToolFlacCLI  ToolKind = "flac"
	ToolMetaflac ToolKind = "metaflac"
)

// Capabilities records which external tools were found on PATH. It is built
// once before the worker pool starts and only ever read afterwards.
type Capabilities map[ToolKind]bool

// Has reports whether the tool was found at startup.
func (c Capabilities) Has(k ToolKind) bool { return c[k] }

// Config is the process-lifetime run configuration. It is constructed once
// in the CLI and shared read-only by every worker.
type Config struct {
	Root               string
	Workers            int
	DryRun             bool
	Backup             bool
	BackupDir          string
	KeepCover          bool
	MaxCoverBytes      int64
	MetaThresholdBytes int64
	Prefer             string // "auto", "ffmpeg" or "flac"
	CSVPath            string
	Tools              Capabilities
}

// ProcessResult is the outcome record for one file.
type ProcessResult struct {
	Path    string
	Status  Status
	Reasons string // semicolon-joined anomaly descriptions, may be empty
	Action  string // chosen strategy name, may be empty
	Message string // free-text diagnostic
}
