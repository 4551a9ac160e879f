// Package process runs the per-file repair pipeline: probe, decode check,
// decision, optional backup, tool dispatch, post-repair verification, and
// atomic replacement. Every failure is contained to the file it belongs to.
package process

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/ankit-chaubey/flac-autofix/core"
	"github.com/ankit-chaubey/flac-autofix/core/cover"
	"github.com/ankit-chaubey/flac-autofix/core/decode"
	"github.com/ankit-chaubey/flac-autofix/core/flac"
	"github.com/ankit-chaubey/flac-autofix/core/plan"
	"github.com/ankit-chaubey/flac-autofix/core/replace"
)

// ToolRunner is the slice of external tooling the processor drives.
type ToolRunner interface {
	ExportCover(src, dir string) (string, bool)
	ImportCover(dst, coverPath string) bool
	StripAllMetadata(path string) bool
	ReencodePrimary(src, dst string) bool
	ReencodeSecondary(src, dst string) bool
}

// Processor repairs one file at a time. It holds only shared read-only
// state and is safe to use from concurrent workers.
type Processor struct {
	cfg       *core.Config
	validator decode.Validator
	tools     ToolRunner
}

// New builds a Processor. A nil validator reports every file as
// undecodable with the engine-unavailable diagnostic.
func New(cfg *core.Config, v decode.Validator, tr ToolRunner) *Processor {
	return &Processor{cfg: cfg, validator: v, tools: tr}
}

// Run processes one file to a terminal status. It never returns an error:
// unexpected failures become StatusError results so one file can never
// abort the batch.
func (p *Processor) Run(path string) (res core.ProcessResult) {
	res = core.ProcessResult{Path: path, Status: core.StatusSkip}
	defer func() {
		if r := recover(); r != nil {
			res.Status = core.StatusError
			res.Message = fmt.Sprintf("panic: %v", r)
		}
	}()

	probe, err := flac.ProbeFile(path)
	if err != nil {
		res.Status = core.StatusError
		res.Message = err.Error()
		return res
	}
	if !probe.IsNativeFLAC {
		res.Message = probe.Reason
		return res
	}

	decOK, decMsg := p.canDecode(path)

	pl := plan.Decide(plan.Input{
		Probe:              probe,
		DecodeOK:           decOK,
		KeepCover:          p.cfg.KeepCover,
		MetaThresholdBytes: p.cfg.MetaThresholdBytes,
		MaxCoverBytes:      p.cfg.MaxCoverBytes,
		Prefer:             p.cfg.Prefer,
		Tools:              p.cfg.Tools,
	})
	res.Reasons = strings.Join(pl.Reasons, "; ")
	res.Action = string(pl.Action)

	if !pl.NeedsFix {
		res.Status = core.StatusOK
		res.Message = decMsg
		return res
	}
	if p.cfg.DryRun {
		res.Status = core.StatusDryRun
		res.Message = "would run: " + string(pl.Action)
		return res
	}

	// Backup happens before any mutation; a failed backup aborts the file.
	if p.cfg.Backup {
		if err := p.backup(path); err != nil {
			res.Status = core.StatusError
			res.Message = fmt.Sprintf("backup failed: %v", err)
			return res
		}
	}

	// Scratch space next to the original keeps every rename on one volume.
	scratch, err := os.MkdirTemp(filepath.Dir(path), ".flacfix-")
	if err != nil {
		res.Status = core.StatusError
		res.Message = fmt.Sprintf("cannot create scratch dir: %v", err)
		return res
	}
	defer os.RemoveAll(scratch)

	var coverPath, coverNote string
	if pl.KeepCover {
		if cp, ok := p.tools.ExportCover(path, scratch); ok {
			coverPath = cp
			if info, err := cover.Inspect(cp); err == nil && info.HasGPS {
				coverNote = " (cover carries GPS EXIF)"
			}
		}
	}

	if pl.Action == core.ActionStripMetadata {
		return p.stripInPlace(path, res)
	}

	candidate := filepath.Join(scratch, baseNoExt(path)+".fixed.flac")
	var produced bool
	switch pl.Action {
	case core.ActionReencodePrimary:
		produced = p.tools.ReencodePrimary(path, candidate)
	case core.ActionReencodeSecondary:
		produced = p.tools.ReencodeSecondary(path, candidate)
	default:
		res.Status = core.StatusFail
		res.Message = "no repair tool available (install ffmpeg or flac)"
		return res
	}
	if _, err := os.Stat(candidate); err != nil {
		produced = false
	}
	if !produced {
		res.Status = core.StatusFail
		res.Message = fmt.Sprintf("%s produced no usable output", pl.Action)
		return res
	}

	var notes string
	if coverPath != "" {
		if !p.tools.ImportCover(candidate, coverPath) {
			// The audio fix still counts; a lost cover is only a note.
			notes += " (cover import failed)"
		}
		notes += coverNote
	}
	if lost := tagsLost(path, candidate); lost {
		notes += " (tags changed during re-encode)"
	}

	if ok, msg := p.canDecode(candidate); !ok {
		res.Status = core.StatusFail
		res.Message = "post-repair verification failed: " + msg
		return res
	}

	if err := replace.Replace(candidate, path); err != nil {
		res.Status = core.StatusError
		res.Message = err.Error()
		return res
	}

	res.Status = core.StatusFixed
	res.Message = fmt.Sprintf("repaired via %s and verified", pl.Action) + notes
	return res
}

// stripInPlace mutates the original directly with metaflac; there is no
// candidate to verify or swap in, only a post-strip decode check.
func (p *Processor) stripInPlace(path string, res core.ProcessResult) core.ProcessResult {
	if !p.tools.StripAllMetadata(path) {
		res.Status = core.StatusFail
		res.Message = "metaflac strip failed"
		return res
	}
	if ok, msg := p.canDecode(path); !ok {
		res.Status = core.StatusFail
		res.Message = "still unreadable after metadata strip: " + msg
		return res
	}
	res.Status = core.StatusFixed
	res.Message = "stripped metadata and verified readable"
	return res
}

func (p *Processor) canDecode(path string) (bool, string) {
	if p.validator == nil {
		return false, decode.UnavailableMessage
	}
	return p.validator.CanFullyDecode(path)
}

// backup copies path into the backup directory, preserving the original's
// mod time. The name carries a short hash of the source directory so
// same-named files from different directories cannot clobber each other.
func (p *Processor) backup(path string) error {
	if err := os.MkdirAll(p.cfg.BackupDir, 0755); err != nil {
		return err
	}
	dst := filepath.Join(p.cfg.BackupDir, backupName(path))

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil {
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return nil
}

func backupName(path string) string {
	h := fnv.New32a()
	h.Write([]byte(filepath.Dir(path)))
	return fmt.Sprintf("%08x_%s", h.Sum32(), filepath.Base(path))
}

func baseNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// tagsLost reports whether the basic tags differ between the original and
// the re-encoded candidate; the primary re-encode is supposed to carry
// them over. Unreadable tags on either side prove nothing.
func tagsLost(orig, candidate string) bool {
	o, okO := readTags(orig)
	c, okC := readTags(candidate)
	if !okO || !okC {
		return false
	}
	return o != c
}

type basicTags struct {
	title, artist, album string
}

func readTags(path string) (basicTags, bool) {
	f, err := os.Open(path)
	if err != nil {
		return basicTags{}, false
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil {
		return basicTags{}, false
	}
	return basicTags{title: m.Title(), artist: m.Artist(), album: m.Album()}, true
}
