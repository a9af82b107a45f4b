package driver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dxfaudit/internal/audit"
	"dxfaudit/internal/diag"
	"dxfaudit/internal/dxf"
	"dxfaudit/internal/observ"
	"dxfaudit/internal/snapshot"
)

// Options configure AuditFiles.
type Options struct {
	Jobs       int // 0 - GOMAXPROCS
	StrictZero bool
	Timings    bool
	Cache      *DiskCache
	Logger     *slog.Logger
}

// Result is the outcome of auditing one file. Err is set when the file
// could not be read, decoded or audited; Diagnostics are then empty.
type Result struct {
	Path        string
	Version     dxf.Version
	Diagnostics []diag.Diagnostic
	Timing      *observ.Report
	Cached      bool
	Err         error
}

// Summary counts results of a batch.
type Summary struct {
	Files  int
	Failed int
	Issues int
	Clean  int
}

// Summarize folds results into counts.
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case len(r.Diagnostics) == 0:
			s.Clean++
		}
		s.Issues += len(r.Diagnostics)
	}
	return s
}

// AuditFiles audits every path in parallel. Each file gets its own document,
// auditor and sink; results are returned in input order. Per-file failures
// are reported in Result.Err, the returned error is only set when ctx is
// cancelled.
func AuditFiles(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = auditFile(path, opts, logger.With(slog.String("path", path)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func auditFile(path string, opts Options, logger *slog.Logger) (res Result) {
	res.Path = path
	defer func() {
		if r := recover(); r != nil {
			logger.Error("audit panicked", slog.Any("panic", r))
			res = Result{Path: path, Err: fmt.Errorf("%s: internal error: %v", path, r)}
		}
	}()

	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	finish := func() {
		if timer != nil {
			report := timer.Report()
			res.Timing = &report
		}
	}
	defer finish()

	idx := timer.Begin("read")
	data, err := os.ReadFile(path)
	timer.End(idx, "")
	if err != nil {
		res.Err = err
		return res
	}
	format, err := snapshot.FormatForPath(path)
	if err != nil {
		res.Err = err
		return res
	}

	var key Digest
	if opts.Cache != nil {
		key = CacheKey(data, opts.StrictZero)
		version, diags, ok, err := opts.Cache.Get(key)
		if err != nil {
			logger.Warn("cache read failed", slog.Any("error", err))
		} else if ok {
			logger.Debug("cache hit")
			res.Version, res.Diagnostics, res.Cached = version, diags, true
			return res
		}
	}

	idx = timer.Begin("decode")
	doc, err := snapshot.Decode(bytes.NewReader(data), format)
	timer.End(idx, format.String())
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}
	res.Version = doc.Version()

	a := audit.New(doc,
		audit.WithStrictZeroPointers(opts.StrictZero),
		audit.WithLogger(logger),
		audit.WithTimer(timer))
	if err := a.Run(); err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}
	res.Diagnostics = a.Diagnostics()

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, res.Version, res.Diagnostics); err != nil {
			logger.Warn("cache write failed", slog.Any("error", err))
		}
	}
	return res
}
