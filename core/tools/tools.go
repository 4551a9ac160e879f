// Package tools wraps the external codec tools flac-autofix orchestrates:
// ffmpeg for lossless re-muxing, the flac CLI for decode/re-encode, and
// metaflac for cover art and metadata surgery.
package tools

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-audio/wav"

	"github.com/ankit-chaubey/flac-autofix/core"
)

// Detect probes PATH once for every tool and returns the capability table.
// The table is built before the worker pool starts; nothing re-probes PATH
// per file.
func Detect() core.Capabilities {
	caps := core.Capabilities{}
	for _, k := range []core.ToolKind{core.ToolFFmpeg, core.ToolFlacCLI, core.ToolMetaflac} {
		_, err := exec.LookPath(string(k))
		caps[k] = err == nil
	}
	return caps
}

// Runner invokes the installed tools. Every call on a tool absent from the
// capability table fails without shelling out.
type Runner struct {
	caps core.Capabilities
}

// NewRunner returns a Runner constrained to the given capability table.
func NewRunner(caps core.Capabilities) *Runner {
	return &Runner{caps: caps}
}

// run executes one tool invocation and collects its exit status.
func (r *Runner) run(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Debug("tool invocation failed",
			"tool", name, "error", err, "stderr", stderr.String())
		return false
	}
	return true
}

// ReencodePrimary re-muxes src into a fresh FLAC at dst with ffmpeg,
// keeping container-level tags, dropping video and subtitle streams, and
// re-encoding the audio losslessly.
func (r *Runner) ReencodePrimary(src, dst string) bool {
	if !r.caps.Has(core.ToolFFmpeg) {
		return false
	}
	return r.run("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-i", src, "-map_metadata", "0", "-vn", "-sn",
		"-c:a", "flac", "-compression_level", "5", dst)
}

// ReencodeSecondary decodes src to an intermediate WAV with the flac CLI,
// then re-encodes the WAV into dst. The intermediate lives next to src so
// every move stays on one volume.
func (r *Runner) ReencodeSecondary(src, dst string) bool {
	if !r.caps.Has(core.ToolFlacCLI) {
		return false
	}
	td, err := os.MkdirTemp(filepath.Dir(src), ".flacfix-wav-")
	if err != nil {
		return false
	}
	defer os.RemoveAll(td)

	wavPath := filepath.Join(td, "intermediate.wav")
	if !r.run("flac", "-d", "-f", "-o", wavPath, src) {
		return false
	}
	if !validWAV(wavPath) {
		slog.Debug("flac CLI produced an invalid intermediate WAV", "src", src)
		return false
	}
	if !r.run("flac", "-f", "-o", dst, wavPath) {
		return false
	}
	_, err = os.Stat(dst)
	return err == nil
}

// validWAV rejects a truncated or non-RIFF intermediate before it gets
// re-encoded into the candidate.
func validWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return false
	}
	return d.SampleRate > 0 && d.BitDepth > 0 && d.NumChans > 0
}

// ExportCover asks metaflac to export the embedded picture of src into dir.
// It returns the exported file's path, or ok=false when there is no
// picture, the export failed, or metaflac is not installed.
func (r *Runner) ExportCover(src, dir string) (string, bool) {
	if !r.caps.Has(core.ToolMetaflac) {
		return "", false
	}
	out := filepath.Join(dir, "cover.export")
	if !r.run("metaflac", "--export-picture-to="+out, src) {
		return "", false
	}
	if _, err := os.Stat(out); err != nil {
		return "", false
	}
	return out, true
}

// ImportCover embeds the picture at coverPath into dst.
func (r *Runner) ImportCover(dst, coverPath string) bool {
	if !r.caps.Has(core.ToolMetaflac) {
		return false
	}
	return r.run("metaflac", "--import-picture-from="+coverPath, dst)
}

// StripAllMetadata removes every metadata block of path in place, without
// leaving replacement padding.
func (r *Runner) StripAllMetadata(path string) bool {
	if !r.caps.Has(core.ToolMetaflac) {
		return false
	}
	return r.run("metaflac", "--remove-all", "--dont-use-padding", path)
}
