// Package scanner coordinates a scan: it enumerates the project tree, fans
// file evaluation out across a bounded worker pool and merges the issues.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/nextaudit/internal/config"
	"github.com/harrison/nextaudit/internal/fileutil"
	"github.com/harrison/nextaudit/internal/models"
	"github.com/harrison/nextaudit/internal/rules"
)

// Fatal scan errors. Everything else degrades to a file contributing no issues.
var (
	ErrRootNotFound     = errors.New("scan root does not exist")
	ErrRootNotDirectory = errors.New("scan root is not a directory")
)

// Logger receives scan progress events.
// Implementations must be safe for concurrent use.
type Logger interface {
	LogScanStart(root string, workers int)
	LogFileSkipped(outcome models.FileOutcome)
	LogWalkError(err error)
	LogScanComplete(result *models.ScanResult)
}

// Evaluator evaluates a single file. rules.Evaluate is the production implementation.
type Evaluator func(fsys billy.Filesystem, cand models.FileCandidate, cfg config.ScanConfig) models.FileOutcome

// Scanner runs scans. The zero value is not usable; use New.
type Scanner struct {
	logger   Logger
	evaluate Evaluator
}

// New creates a Scanner. The logger parameter is optional and can be nil to disable logging.
func New(logger Logger) *Scanner {
	return &Scanner{
		logger:   logger,
		evaluate: rules.Evaluate,
	}
}

// NewWithEvaluator creates a Scanner with a custom per-file evaluator.
func NewWithEvaluator(logger Logger, evaluate Evaluator) *Scanner {
	s := New(logger)
	if evaluate != nil {
		s.evaluate = evaluate
	}
	return s
}

// Scan scans the directory tree rooted at root.
// It fails only when root does not exist or is not a directory, or when ctx
// is cancelled before the scan completes.
func (s *Scanner) Scan(ctx context.Context, root string, cfg config.ScanConfig) (*models.ScanResult, error) {
	resolved, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	return s.ScanFS(ctx, osfs.New(resolved), filepath.Clean(root), cfg)
}

// ResolveRoot checks that root is an existing directory and returns its
// absolute path with symlinks resolved.
func ResolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return "", fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	return resolved, nil
}

// ScanFS runs the scan pipeline over fsys. Issue messages name files as
// displayRoot joined with their path inside fsys.
func (s *Scanner) ScanFS(ctx context.Context, fsys billy.Filesystem, displayRoot string, cfg config.ScanConfig) (*models.ScanResult, error) {
	start := time.Now()

	workers := cfg.Workers()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if s.logger != nil {
		s.logger.LogScanStart(displayRoot, workers)
	}

	walk, err := fileutil.Enumerate(fsys, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, displayRoot)
		}
		return nil, err
	}
	if s.logger != nil {
		for _, walkErr := range walk.Errors {
			s.logger.LogWalkError(walkErr)
		}
	}

	candidates := make([]models.FileCandidate, len(walk.Files))
	for i, rel := range walk.Files {
		candidates[i] = models.FileCandidate{
			Path:        rel,
			DisplayPath: filepath.Join(displayRoot, filepath.FromSlash(rel)),
		}
	}

	outcomes, err := s.evaluateAll(ctx, fsys, candidates, cfg, workers)
	if err != nil {
		return nil, err
	}

	result := &models.ScanResult{
		RunID:     uuid.New().String(),
		Root:      displayRoot,
		StartedAt: start,
		Issues:    make([]models.Issue, 0),
		Stats: models.ScanStats{
			FilesFound:   len(candidates),
			FilesSkipped: make(map[models.SkipReason]int),
			WalkErrors:   len(walk.Errors),
			Workers:      workers,
		},
	}

	for _, outcome := range outcomes {
		if outcome.Skipped() {
			result.Stats.FilesSkipped[outcome.Skip]++
			if s.logger != nil {
				s.logger.LogFileSkipped(outcome)
			}
			continue
		}
		result.Stats.FilesEvaluated++
		result.Issues = append(result.Issues, outcome.Issues...)
	}

	result.Duration = time.Since(start)
	if s.logger != nil {
		s.logger.LogScanComplete(result)
	}

	return result, nil
}

// evaluateAll evaluates candidates on a pool of at most workers goroutines.
// Each worker appends to its own slice; the slices are concatenated once the
// pool drains, so a file's outcome is never split or reordered.
func (s *Scanner) evaluateAll(ctx context.Context, fsys billy.Filesystem, candidates []models.FileCandidate, cfg config.ScanConfig, workers int) ([]models.FileOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan models.FileCandidate)
	perWorker := make([][]models.FileOutcome, workers)

	g.Go(func() error {
		defer close(jobs)
		for _, cand := range candidates {
			select {
			case jobs <- cand:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for cand := range jobs {
				perWorker[w] = append(perWorker[w], s.evaluate(fsys, cand, cfg))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	total := 0
	for _, local := range perWorker {
		total += len(local)
	}
	outcomes := make([]models.FileOutcome, 0, total)
	for _, local := range perWorker {
		outcomes = append(outcomes, local...)
	}
	return outcomes, nil
}
