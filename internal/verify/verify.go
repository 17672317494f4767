package verify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"relocator/internal/locator"
	"relocator/internal/logging"
	"relocator/internal/workers"
)

// DefaultTimeout is the batch deadline used when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Minute

// Finder looks up a single filename. *locator.Locator implements it.
type Finder interface {
	Locate(ctx context.Context, root, name string) locator.Match
}

// Outcome is the lookup result for one distinct filename.
type Outcome struct {
	Filename string
	Found    bool
	Path     string
	Direct   bool
}

// Outcomes maps each distinct filename to its outcome.
type Outcomes map[string]Outcome

// Progress reports how far a batch has got.
type Progress struct {
	Processed int
	Total     int
	Percent   float64
}

// Options configures one batch.
type Options struct {
	Root string
	// Workers sizes the pool; <= 0 sizes it automatically.
	Workers    int
	Timeout    time.Duration
	Sequential bool
	// Progress, when set, is called from a single goroutine every
	// ProgressInterval(total) completed lookups and on the last one.
	Progress func(Progress)
}

// Verifier runs batches against a Finder.
type Verifier struct {
	finder Finder
	logger *slog.Logger
}

// New constructs a Verifier.
func New(finder Finder, logger *slog.Logger) *Verifier {
	return &Verifier{
		finder: finder,
		logger: logging.NewComponentLogger(logger, "verify"),
	}
}

// ProgressInterval returns how many lookups pass between progress reports:
// a tenth of the batch, at least 1 and at most 100.
func ProgressInterval(total int) int {
	return max(1, min(100, total/10))
}

// Distinct returns the non-empty names in order of first appearance.
func Distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Verify looks up every distinct filename once. On success the returned map
// holds exactly one outcome per distinct filename. When the deadline fires or
// ctx is canceled it returns a *BatchError and a nil map.
func (v *Verifier) Verify(ctx context.Context, names []string, opts Options) (Outcomes, error) {
	distinct := Distinct(names)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	poolSize := opts.Workers
	if poolSize <= 0 {
		poolSize = workers.Resolve(0).Workers
	}
	poolSize = max(1, min(poolSize, len(distinct)))

	mode := "pool"
	if opts.Sequential {
		mode = "sequential"
	}
	v.logger.Info("verification started",
		logging.Int("filenames", len(names)),
		logging.Int("distinct", len(distinct)),
		logging.String("mode", mode),
		logging.Int("workers", poolSize),
		logging.Duration("timeout", timeout),
		logging.String(logging.FieldEventType, "batch_start"),
	)
	start := time.Now()

	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		outcomes Outcomes
		err      error
	)
	if opts.Sequential {
		outcomes, err = v.runSequential(batchCtx, distinct, opts)
	} else {
		outcomes, err = v.runPool(batchCtx, distinct, poolSize, opts)
	}
	if err != nil {
		batchErr := classify(ctx, err, len(outcomes), len(distinct), timeout)
		logging.WarnWithContext(v.logger, "verification incomplete", "batch_incomplete",
			logging.Int("completed", batchErr.Completed),
			logging.Int("distinct", batchErr.Total),
			logging.Duration("elapsed", time.Since(start)),
			logging.Error(batchErr),
			logging.String(logging.FieldErrorHint, "retry with fewer --workers, --sequential, or a longer --timeout"),
			logging.String(logging.FieldImpact, "catalog left unchanged"),
		)
		return nil, batchErr
	}

	found := 0
	for _, o := range outcomes {
		if o.Found {
			found++
		}
	}
	v.logger.Info("verification finished",
		logging.Int("distinct", len(distinct)),
		logging.Int("found", found),
		logging.Int("missing", len(distinct)-found),
		logging.Duration("elapsed", time.Since(start)),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	return outcomes, nil
}

func classify(parent context.Context, err error, completed, total int, timeout time.Duration) *BatchError {
	kind := ErrBatchTimeout
	if parent.Err() != nil || errors.Is(err, context.Canceled) {
		kind = ErrBatchCanceled
	}
	return &BatchError{Kind: kind, Completed: completed, Total: total, Timeout: timeout, Cause: err}
}

func (v *Verifier) lookup(ctx context.Context, root, name string) Outcome {
	m := v.finder.Locate(ctx, root, name)
	return Outcome{Filename: name, Found: m.Found, Path: m.Path, Direct: m.Direct}
}

func (v *Verifier) runSequential(ctx context.Context, names []string, opts Options) (Outcomes, error) {
	outcomes := make(Outcomes, len(names))
	report := newReporter(len(names), opts.Progress)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o := v.lookup(ctx, opts.Root, name)
		if err := ctx.Err(); err != nil {
			// The lookup may have been cut short; its answer is not trusted.
			return outcomes, err
		}
		outcomes[name] = o
		report.step()
	}
	return outcomes, nil
}

func (v *Verifier) runPool(ctx context.Context, names []string, poolSize int, opts Options) (Outcomes, error) {
	jobs := make(chan string)
	results := make(chan Outcome, poolSize)

	var wg sync.WaitGroup
	for range poolSize {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				o := v.lookup(ctx, opts.Root, name)
				if ctx.Err() != nil {
					return
				}
				select {
				case results <- o:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, name := range names {
			select {
			case jobs <- name:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// This goroutine is the only writer of the map.
	outcomes := make(Outcomes, len(names))
	report := newReporter(len(names), opts.Progress)
	for o := range results {
		outcomes[o.Filename] = o
		report.step()
	}

	if len(outcomes) == len(names) {
		return outcomes, nil
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, context.Canceled
}

type reporter struct {
	total     int
	interval  int
	processed int
	fn        func(Progress)
}

func newReporter(total int, fn func(Progress)) *reporter {
	return &reporter{total: total, interval: ProgressInterval(total), fn: fn}
}

func (r *reporter) step() {
	r.processed++
	if r.fn == nil {
		return
	}
	if r.processed%r.interval != 0 && r.processed != r.total {
		return
	}
	percent := 100.0
	if r.total > 0 {
		percent = float64(r.processed) / float64(r.total) * 100
	}
	r.fn(Progress{Processed: r.processed, Total: r.total, Percent: percent})
}
