// Package batch discovers FLAC files under a root and fans them out across
// a bounded worker pool. Files are fully independent units of work; the
// only shared state is the read-only configuration.
package batch

import (
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ankit-chaubey/flac-autofix/core"
)

// FileProcessor runs one file to a terminal result.
type FileProcessor interface {
	Run(path string) core.ProcessResult
}

// Summary aggregates terminal statuses across one run.
type Summary struct {
	Total       int
	OKOrDry     int
	Fixed       int
	FailOrError int
}

// FindFiles returns every file under root whose extension is .flac,
// case-insensitive, walking recursively. Unreadable directories are
// skipped rather than failing discovery.
func FindFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".flac") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// DefaultWorkers derives the pool size from available parallelism, with a
// floor of 4.
func DefaultWorkers() int {
	if n := runtime.NumCPU(); n > 4 {
		return n
	}
	return 4
}

// Run processes every file with at most workers in flight and calls emit
// for each result as it completes. Completion order is arbitrary; the
// returned slice and summary cover every input exactly once.
func Run(files []string, workers int, proc FileProcessor, emit func(core.ProcessResult)) ([]core.ProcessResult, Summary) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	var (
		mu      sync.Mutex
		results = make([]core.ProcessResult, 0, len(files))
	)
	var g errgroup.Group
	g.SetLimit(workers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			res := proc.Run(f)
			mu.Lock()
			results = append(results, res)
			if emit != nil {
				emit(res)
			}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures live in their results.
	_ = g.Wait()

	return results, Summarize(results)
}

// Summarize counts results into the run-level summary.
func Summarize(results []core.ProcessResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case core.StatusOK, core.StatusDryRun:
			s.OKOrDry++
		case core.StatusFixed:
			s.Fixed++
		case core.StatusFail, core.StatusError:
			s.FailOrError++
		}
	}
	return s
}
