// Package engine orchestrates one translation job: it partitions catalog
// units into cache hits and misses, drives the chosen backend in batch,
// parallel, or sequential mode through bounded retries, and periodically
// checkpoints progress so interrupted jobs can resume.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/polyglot-cli/potran/internal/catalog"
	"github.com/polyglot-cli/potran/internal/placeholder"
	"github.com/polyglot-cli/potran/internal/provider"
	"github.com/polyglot-cli/potran/internal/retry"
	"github.com/polyglot-cli/potran/internal/store"
)

// State is the lifecycle of one job.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateInterrupted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateInterrupted:
		return "interrupted"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// DefaultCheckpointEvery is how many terminal units pass between
// checkpoint flushes.
const DefaultCheckpointEvery = 50

// Config is the scheduling configuration of one job.
type Config struct {
	TargetLang string

	// BatchSize > 1 requests batch dispatch (requires a batch-capable
	// provider). Workers > 1 requests parallel dispatch. Setting both
	// above 1 is rejected: the job must pick exactly one of the two.
	BatchSize int
	Workers   int

	// Delay is the inter-request spacing. The provider's RateLimitHint
	// acts as a floor. In parallel mode the delay is divided across
	// active workers.
	Delay time.Duration

	CacheEnabled bool
	Resume       bool

	CheckpointEvery int

	MaxAttempts    int
	RetryBaseDelay time.Duration

	// Logf receives progress diagnostics; defaults to stderr.
	Logf func(format string, args ...any)
}

// ConfigError is a job precondition failure; nothing is processed.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// Summary reports the outcome of one job.
type Summary struct {
	State      State
	Total      int
	FromCache  int
	Translated int // translated via a backend call this run
	Failed     int
	Pending    int // unprocessed (interruption or skipped resume prefix)
	ResumedAt  int // units skipped due to an applicable checkpoint
}

// Engine coordinates one provider, one optional store, and one
// scheduling configuration. A single Engine runs one job at a time.
type Engine struct {
	provider provider.Provider
	store    *store.Store
	cfg      Config
	retry    retry.Executor
	logf     func(format string, args ...any)
}

// New validates cfg and builds an Engine. st may be nil when both the
// cache and resume are disabled.
func New(p provider.Provider, st *store.Store, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, &ConfigError{Reason: "no provider configured"}
	}
	if cfg.TargetLang == "" {
		return nil, &ConfigError{Reason: "target language is required"}
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize > 1 && cfg.Workers > 1 {
		return nil, &ConfigError{Reason: "batch and parallel dispatch cannot be combined; set either batch-size or workers to 1"}
	}
	if cfg.CacheEnabled && st == nil {
		return nil, &ConfigError{Reason: "cache enabled but no store configured"}
	}
	if cfg.Resume && st == nil {
		return nil, &ConfigError{Reason: "resume requires the cache database"}
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = DefaultCheckpointEvery
	}
	if hint := p.Capability().RateLimitHint; cfg.Delay < hint {
		cfg.Delay = hint
	}

	logf := cfg.Logf
	if logf == nil {
		logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	return &Engine{
		provider: p,
		store:    st,
		cfg:      cfg,
		retry:    retry.New(cfg.MaxAttempts, cfg.RetryBaseDelay),
		logf:     logf,
	}, nil
}

// run carries the mutable bookkeeping of one job.
type run struct {
	jobID      string
	runID      string
	digest     string
	outputPath string
	cap        provider.Capability

	mu          sync.Mutex
	terminal    []bool
	prefix      int // contiguous terminal prefix, the checkpointable offset
	sinceFlush  int
	interrupted bool
}

type item struct {
	idx  int
	unit *catalog.Unit
}

// Run translates units in place and returns a summary. Units are the
// job's ordered sequence; outputPath identifies the job for checkpoint
// purposes. Per-unit failures are contained: a failed unit is marked and
// the job continues. Cancelling ctx stops the job cooperatively:
// in-flight requests finish, a checkpoint is persisted, and the summary
// reports StateInterrupted.
func (e *Engine) Run(ctx context.Context, units []*catalog.Unit, outputPath string) (*Summary, error) {
	summary := &Summary{Total: len(units), State: StateRunning}

	r := &run{
		jobID:      store.JobID(outputPath),
		runID:      uuid.New().String(),
		digest:     catalogDigest(units),
		outputPath: outputPath,
		cap:        e.provider.Capability(),
		terminal:   make([]bool, len(units)),
	}

	offset, err := e.resumeOffset(ctx, r, len(units))
	if err != nil {
		summary.State = StateFailed
		return summary, err
	}
	summary.ResumedAt = offset

	// Units before the resume offset were completed by a previous run.
	// Their translations are recovered from the cache; a prefix unit
	// missing there stays pending rather than costing a backend call.
	for i, u := range units[:offset] {
		r.terminal[i] = true
		if e.cfg.CacheEnabled {
			if cached, found, cerr := e.store.GetCached(ctx, u.Source, e.cfg.TargetLang, e.provider.Name()); cerr == nil && found {
				u.Target = cached
				u.Status = catalog.StatusTranslated
				summary.FromCache++
			}
		}
	}
	r.prefix = offset

	// Partition the remaining units into cache hits and misses.
	var misses []item
	for i, u := range units[offset:] {
		idx := offset + i
		if e.cfg.CacheEnabled {
			if cached, found, cerr := e.store.GetCached(ctx, u.Source, e.cfg.TargetLang, e.provider.Name()); cerr == nil && found {
				u.Target = cached
				u.Status = catalog.StatusTranslated
				summary.FromCache++
				e.markDone(ctx, r, idx)
				continue
			}
		}
		misses = append(misses, item{idx: idx, unit: u})
	}

	switch {
	case e.cfg.BatchSize > 1 && r.cap.SupportsBatch:
		e.runBatch(ctx, r, misses)
	case e.cfg.Workers > 1:
		e.runParallel(ctx, r, misses)
	default:
		if e.cfg.BatchSize > 1 {
			e.logf("Provider %s does not support batching, falling back to sequential dispatch", e.provider.Name())
		}
		e.runSequential(ctx, r, misses)
	}

	e.flushCheckpoint(ctx, r, true)

	for _, u := range units {
		switch u.Status {
		case catalog.StatusTranslated:
			// counted via FromCache or Translated below
		case catalog.StatusFailed:
			summary.Failed++
		default:
			summary.Pending++
		}
	}
	translatedTotal := len(units) - summary.Failed - summary.Pending
	summary.Translated = translatedTotal - summary.FromCache

	if r.interrupted {
		summary.State = StateInterrupted
		return summary, nil
	}

	summary.State = StateCompleted
	if e.store != nil {
		if err := e.store.CompleteCheckpoint(ctx, r.jobID); err != nil {
			e.logf("Warning: failed to finalize checkpoint: %v", err)
		}
	}
	return summary, nil
}

// resumeOffset loads the job's checkpoint and validates it against the
// current catalog. A checkpoint whose fingerprint no longer matches (the
// catalog changed between runs) is ignored and the job restarts.
func (e *Engine) resumeOffset(ctx context.Context, r *run, total int) (int, error) {
	if !e.cfg.Resume || e.store == nil {
		return 0, nil
	}

	cp, err := e.store.LoadCheckpoint(ctx, r.jobID)
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return 0, nil
	}
	if cp.CatalogDigest != r.digest {
		e.logf("Checkpoint for job %s does not match the current catalog, restarting from zero", r.jobID)
		return 0, nil
	}

	offset := cp.CompletedCount
	if offset > total {
		offset = total
	}
	e.logf("Resuming job %s from unit %d/%d", r.jobID, offset, total)
	return offset, nil
}

// runSequential processes misses one at a time with the full configured
// delay between calls.
func (e *Engine) runSequential(ctx context.Context, r *run, misses []item) {
	for i, it := range misses {
		if ctx.Err() != nil {
			e.interrupt(r)
			return
		}
		if i > 0 {
			e.pause(ctx, e.cfg.Delay)
		}
		e.translateUnit(ctx, r, it.unit)
		e.markDone(ctx, r, it.idx)
	}
}

// runParallel fans misses out over a bounded worker pool. Results land
// in the unit each item points at, so output order is the input order
// regardless of completion order. The inter-request delay is divided
// across workers to keep the aggregate request rate unchanged.
func (e *Engine) runParallel(ctx context.Context, r *run, misses []item) {
	perWorkerDelay := e.cfg.Delay / time.Duration(e.cfg.Workers)

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)

	for _, it := range misses {
		if ctx.Err() != nil {
			e.interrupt(r)
			break
		}
		it := it
		g.Go(func() error {
			e.translateUnit(ctx, r, it.unit)
			e.markDone(ctx, r, it.idx)
			e.pause(context.Background(), perWorkerDelay)
			return nil
		})
	}

	g.Wait()
}

// runBatch groups misses into provider-sized chunks. A chunk that still
// fails after retries degrades to per-unit dispatch so one poisoned text
// cannot take down its neighbours.
func (e *Engine) runBatch(ctx context.Context, r *run, misses []item) {
	size := e.cfg.BatchSize
	if limit := r.cap.MaxBatchSize; limit > 0 && size > limit {
		size = limit
	}

	for ci, chunk := range chunkItems(misses, size) {
		if ctx.Err() != nil {
			e.interrupt(r)
			return
		}
		if ci > 0 {
			e.pause(ctx, e.cfg.Delay)
		}
		e.translateChunk(ctx, r, chunk)
		for _, it := range chunk {
			e.markDone(ctx, r, it.idx)
		}
	}
}

// translateChunk sends one batch through the retry executor and restores
// results per unit. On whole-batch failure every unit is attempted
// individually, succeeding or failing on its own.
func (e *Engine) translateChunk(ctx context.Context, r *run, chunk []item) {
	texts := make([]string, len(chunk))
	tokens := make([][]string, len(chunk))
	for i, it := range chunk {
		if r.cap.PreservesMarkup {
			texts[i] = it.unit.Source
		} else {
			texts[i], tokens[i] = placeholder.Isolate(it.unit.Source)
		}
	}

	callCtx := context.WithoutCancel(ctx)
	var outs []string
	err := e.retry.Do(callCtx, func(ctx context.Context) error {
		var berr error
		outs, berr = e.provider.TranslateBatch(ctx, texts, e.cfg.TargetLang)
		return berr
	})
	if err != nil {
		e.logf("Batch of %d failed (%v), retrying units individually", len(chunk), err)
		for i, it := range chunk {
			if i > 0 {
				e.pause(ctx, e.cfg.Delay)
			}
			e.translateUnit(ctx, r, it.unit)
		}
		return
	}

	for i, it := range chunk {
		out := outs[i]
		if !r.cap.PreservesMarkup {
			restored, rerr := placeholder.Restore(out, tokens[i])
			if rerr != nil {
				e.failUnit(it.unit, rerr)
				continue
			}
			out = restored
		}
		e.completeUnit(ctx, it.unit, out)
	}
}

// translateUnit runs one isolate → translate → restore cycle for a
// single unit, through the retry executor.
func (e *Engine) translateUnit(ctx context.Context, r *run, u *catalog.Unit) {
	text := u.Source
	var tokens []string
	if !r.cap.PreservesMarkup {
		text, tokens = placeholder.Isolate(u.Source)
	}

	callCtx := context.WithoutCancel(ctx)
	var out string
	err := e.retry.Do(callCtx, func(ctx context.Context) error {
		var terr error
		out, terr = e.provider.Translate(ctx, text, e.cfg.TargetLang)
		return terr
	})
	if err != nil {
		e.failUnit(u, err)
		return
	}

	if !r.cap.PreservesMarkup {
		restored, rerr := placeholder.Restore(out, tokens)
		if rerr != nil {
			e.failUnit(u, rerr)
			return
		}
		out = restored
	}

	e.completeUnit(ctx, u, out)
}

// completeUnit records a successful translation and caches the fully
// restored text so later hits need no placeholder handling.
func (e *Engine) completeUnit(ctx context.Context, u *catalog.Unit, translated string) {
	u.Target = translated
	u.Status = catalog.StatusTranslated
	if e.cfg.CacheEnabled {
		if err := e.store.SaveTranslation(context.WithoutCancel(ctx), u.Source, e.cfg.TargetLang, e.provider.Name(), translated); err != nil {
			e.logf("Warning: failed to cache translation: %v", err)
		}
	}
}

// failUnit marks a unit failed. Its target stays empty so the output
// catalog keeps the source untranslated, never a blank or partially
// substituted string.
func (e *Engine) failUnit(u *catalog.Unit, err error) {
	u.Target = ""
	u.Status = catalog.StatusFailed
	e.logf("Failed to translate %q: %v", snippet(u.Source), err)
}

// markDone records a terminal unit and advances the contiguous
// checkpointable prefix. Every CheckpointEvery terminal units the
// checkpoint is flushed.
func (e *Engine) markDone(ctx context.Context, r *run, idx int) {
	r.mu.Lock()
	r.terminal[idx] = true
	for r.prefix < len(r.terminal) && r.terminal[r.prefix] {
		r.prefix++
	}
	r.sinceFlush++
	flush := r.sinceFlush >= e.cfg.CheckpointEvery
	if flush {
		r.sinceFlush = 0
	}
	r.mu.Unlock()

	if flush {
		e.flushCheckpoint(ctx, r, false)
	}
}

func (e *Engine) interrupt(r *run) {
	r.mu.Lock()
	if !r.interrupted {
		r.interrupted = true
		e.logf("Stop requested, letting in-flight requests finish")
	}
	r.mu.Unlock()
}

// flushCheckpoint persists the current completed prefix. Writes are
// serialized: one caller at a time acquires, writes, releases.
func (e *Engine) flushCheckpoint(ctx context.Context, r *run, final bool) {
	if e.store == nil {
		return
	}

	r.mu.Lock()
	cp := store.Checkpoint{
		JobID:          r.jobID,
		RunID:          r.runID,
		OutputPath:     r.outputPath,
		CatalogDigest:  r.digest,
		TargetLang:     e.cfg.TargetLang,
		Provider:       e.provider.Name(),
		CompletedCount: r.prefix,
		Status:         "running",
	}
	r.mu.Unlock()

	if err := e.store.SaveCheckpoint(context.WithoutCancel(ctx), cp); err != nil {
		e.logf("Warning: failed to save checkpoint: %v", err)
	} else if final {
		e.logf("Checkpoint saved at %d/%d units", cp.CompletedCount, len(r.terminal))
	}
}

// pause sleeps for d unless the context ends first.
func (e *Engine) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// catalogDigest fingerprints the ordered source texts of a job so a
// stale checkpoint is never applied to a changed catalog.
func catalogDigest(units []*catalog.Unit) string {
	h := sha256.New()
	for _, u := range units {
		h.Write([]byte(u.Source))
		h.Write([]byte{0})
		h.Write([]byte(u.Context))
		h.Write([]byte{0xff})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func chunkItems(items []item, size int) [][]item {
	if size < 1 {
		size = 1
	}
	var chunks [][]item
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func snippet(s string) string {
	const max = 60
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
