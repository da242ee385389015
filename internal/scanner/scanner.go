package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/logging"
	"promptindex/internal/services"
)

// ErrScanInProgress is returned when another process holds the index lock.
var ErrScanInProgress = errors.New("another scan is already running against this index")

// Extractor turns a file into a record.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (extract.Record, error)
}

// Index is the persistence the scanner needs.
type Index interface {
	Unchanged(ctx context.Context, path string, size int64, modTime time.Time) (bool, error)
	Upsert(ctx context.Context, rec extract.Record, scanID string) (int64, error)
}

// Options configures a Scanner.
type Options struct {
	Workers  int
	LockPath string
	Walk     WalkOptions
}

// OptionsFromConfig derives scanner options from the scan config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers:  cfg.Scan.Workers,
		LockPath: cfg.LockPath(),
		Walk: WalkOptions{
			Extensions:     cfg.Scan.Extensions,
			FollowSymlinks: cfg.Scan.FollowSymlinks,
			SkipHidden:     cfg.Scan.SkipHidden,
		},
	}
}

// Failure records one file that could not be indexed.
type Failure struct {
	Path string
	Err  error
}

// Summary reports the outcome of a scan.
type Summary struct {
	ScanID       string
	Discovered   int
	Indexed      int
	WithMetadata int
	NoMetadata   int
	Unchanged    int
	Failed       int
	Failures     []Failure
	Duration     time.Duration
}

// Scanner indexes media files found under library roots.
type Scanner struct {
	opts      Options
	extractor Extractor
	index     Index
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a scanner. A nil logger discards output.
func New(opts Options, extractor Extractor, index Index, logger *slog.Logger) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scanner{
		opts:      opts,
		extractor: extractor,
		index:     index,
		logger:    logging.NewComponentLogger(logger, "scanner"),
		now:       time.Now,
	}
}

type outcome uint8

const (
	outcomeIndexed outcome = iota
	outcomeNoMetadata
	outcomeUnchanged
	outcomeFailed
)

type result struct {
	file    File
	outcome outcome
	record  extract.Record
	err     error
}

// Run scans roots. With force set, files whose size and modification time
// match the index are extracted again. Per-file failures are collected in
// the summary; Run only returns an error when the scan as a whole fails or
// ctx is cancelled, in which case the partial summary is still returned.
func (s *Scanner) Run(ctx context.Context, roots []string, force bool) (Summary, error) {
	start := s.now()
	summary := Summary{ScanID: uuid.NewString()}
	if len(roots) == 0 {
		return summary, services.Wrap(services.ErrConfiguration, "scanner", "run",
			"no directories given and paths.library_dirs is empty", nil)
	}

	if s.opts.LockPath != "" {
		lock := flock.New(s.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return summary, fmt.Errorf("acquire scan lock: %w", err)
		}
		if !ok {
			return summary, fmt.Errorf("%w (lock %s)", ErrScanInProgress, s.opts.LockPath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	ctx = services.WithScanID(ctx, summary.ScanID)
	logger := logging.WithContext(ctx, s.logger)

	files, err := Walk(ctx, roots, s.opts.Walk)
	if err != nil {
		return summary, fmt.Errorf("walk library: %w", err)
	}
	summary.Discovered = len(files)
	logger.Info("scan started",
		logging.Int("files", len(files)),
		logging.Int("workers", s.opts.Workers),
		logging.Bool("force", force),
	)

	results := s.process(ctx, files, force)

	sampler := logging.NewProgressSampler(10)
	done := 0
	for res := range results {
		done++
		s.collect(ctx, logger, &summary, res)
		if sampler.ShouldLog("extract", done, len(files)) {
			logger.Info("scan progress",
				logging.Int("done", done),
				logging.Int("total", len(files)),
				logging.Float64("percent", logging.Percent(done, len(files))),
			)
		}
	}

	summary.Duration = s.now().Sub(start)
	if err := ctx.Err(); err != nil {
		logging.WarnWithContext(logger, "scan interrupted", "scan_interrupted",
			logging.Int("done", done),
			logging.Int("total", len(files)),
			logging.String(logging.FieldErrorHint, "rerun the scan; finished files are skipped"),
			logging.String(logging.FieldImpact, "remaining files were not indexed"),
		)
		return summary, err
	}
	logger.Info("scan complete",
		logging.Int("indexed", summary.Indexed),
		logging.Int("with_metadata", summary.WithMetadata),
		logging.Int("no_metadata", summary.NoMetadata),
		logging.Int("unchanged", summary.Unchanged),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// process fans files out to the worker pool. The returned channel closes
// once every dispatched file has a result.
func (s *Scanner) process(ctx context.Context, files []File, force bool) <-chan result {
	jobs := make(chan File)
	results := make(chan result, s.opts.Workers)

	var wg sync.WaitGroup
	wg.Add(s.opts.Workers)
	for i := 0; i < s.opts.Workers; i++ {
		go func() {
			defer wg.Done()
			for file := range jobs {
				results <- s.handle(ctx, file, force)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func (s *Scanner) handle(ctx context.Context, file File, force bool) result {
	res := result{file: file}
	if !force {
		same, err := s.index.Unchanged(ctx, file.Path, file.Size, file.ModTime)
		if err != nil {
			res.outcome, res.err = outcomeFailed, err
			return res
		}
		if same {
			res.outcome = outcomeUnchanged
			return res
		}
	}

	record, err := s.extractor.ExtractFile(services.WithFilePath(ctx, file.Path), file.Path)
	switch {
	case err == nil:
		res.outcome, res.record = outcomeIndexed, record
	case errors.Is(err, extract.ErrNoMetadata):
		res.outcome, res.record = outcomeNoMetadata, record
	default:
		res.outcome, res.err = outcomeFailed, err
	}
	return res
}

func (s *Scanner) collect(ctx context.Context, logger *slog.Logger, summary *Summary, res result) {
	fileLogger := logger.With(logging.Path(res.file.Path))

	switch res.outcome {
	case outcomeUnchanged:
		summary.Unchanged++
		return
	case outcomeIndexed, outcomeNoMetadata:
		if _, err := s.index.Upsert(ctx, res.record, summary.ScanID); err != nil {
			res.err = fmt.Errorf("store record: %w", err)
			break
		}
		summary.Indexed++
		if res.outcome == outcomeIndexed {
			summary.WithMetadata++
			fileLogger.Debug("indexed file", logging.String(logging.FieldSource, string(res.record.Source)))
		} else {
			summary.NoMetadata++
			fileLogger.Debug("no generation metadata")
		}
		return
	}

	summary.Failed++
	summary.Failures = append(summary.Failures, Failure{Path: res.file.Path, Err: res.err})
	logging.WarnWithContext(fileLogger, "file skipped", "file_skipped",
		logging.Error(res.err),
		logging.String(logging.FieldErrorHint, services.Hint(res.err)),
		logging.String(logging.FieldImpact, "file not indexed; scan continues"),
	)
}
