// Command flac-autofix recursively scans a directory tree for FLAC files,
// flags structurally or perceptually broken ones, and repairs them through
// whatever external codec tools are installed (ffmpeg, flac, metaflac).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ankit-chaubey/flac-autofix/core"
	"github.com/ankit-chaubey/flac-autofix/core/batch"
	"github.com/ankit-chaubey/flac-autofix/core/decode"
	"github.com/ankit-chaubey/flac-autofix/core/process"
	"github.com/ankit-chaubey/flac-autofix/core/tools"
)

func main() {
	workers := flag.Int("workers", 0, "concurrent workers (default: CPU count, minimum 4)")
	dryRun := flag.Bool("dry-run", false, "show what would be done without modifying anything")
	backup := flag.Bool("backup", false, "copy originals into the backup dir before repairing")
	backupDir := flag.String("backup-dir", "./.flac_bak", "backup directory (with -backup)")
	keepCover := flag.Bool("keep-cover", false, "try to keep embedded cover art (dropped when oversized)")
	maxCoverMB := flag.Float64("max-cover-mb", 1.5, "largest cover art to keep (MB)")
	metaThresholdMB := flag.Float64("meta-threshold-mb", 8.0, "metadata size treated as anomalous (MB)")
	csvPath := flag.String("csv", "", "write a CSV report to this path")
	prefer := flag.String("use", "auto", "preferred repair tool: auto, ffmpeg or flac")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flac-autofix [flags] [root]\n\nScans root (default: current directory) for broken FLAC files and repairs them.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}

	caps := tools.Detect()
	warnMissingTools(*prefer, *keepCover, caps)

	cfg := &core.Config{
		Root:               root,
		Workers:            *workers,
		DryRun:             *dryRun,
		Backup:             *backup,
		BackupDir:          *backupDir,
		KeepCover:          *keepCover,
		MaxCoverBytes:      int64(*maxCoverMB * 1024 * 1024),
		MetaThresholdBytes: int64(*metaThresholdMB * 1024 * 1024),
		Prefer:             *prefer,
		CSVPath:            *csvPath,
		Tools:              caps,
	}

	files, err := batch.FindFiles(cfg.Root)
	if err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}

	printer := core.NewPrinter()
	if len(files) == 0 {
		printer.PrintInfo("no .flac files found.")
		return
	}
	printer.PrintInfo(fmt.Sprintf("found %d FLAC files, scanning...\n", len(files)))

	proc := process.New(cfg, decode.New(), tools.NewRunner(caps))
	results, sum := batch.Run(files, cfg.Workers, proc, printer.PrintResult)

	printer.PrintSummary(sum.Total, sum.OKOrDry, sum.Fixed, sum.FailOrError)

	if cfg.CSVPath != "" {
		if err := core.WriteCSV(cfg.CSVPath, results); err != nil {
			core.PrintError(err.Error())
		} else if abs, err := filepath.Abs(cfg.CSVPath); err == nil {
			printer.PrintInfo("CSV report written: " + abs)
		}
	}

	if sum.FailOrError > 0 {
		os.Exit(1)
	}
}

// warnMissingTools surfaces degraded setups before the run starts.
func warnMissingTools(prefer string, keepCover bool, caps core.Capabilities) {
	if (prefer == "auto" || prefer == "ffmpeg") && !caps.Has(core.ToolFFmpeg) {
		slog.Warn("ffmpeg not found; repairs fall back to the flac CLI or metaflac")
	}
	if prefer == "flac" && !caps.Has(core.ToolFlacCLI) {
		slog.Warn("flac CLI not found; falling back to other tools")
	}
	if keepCover && !caps.Has(core.ToolMetaflac) {
		slog.Warn("metaflac not found; cover art may be lost during repair")
	}
}
