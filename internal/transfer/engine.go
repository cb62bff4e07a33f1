// Package transfer implements the strategy-resolving transfer engine.
//
// A transfer request names the strategies the caller will accept as a
// Capability set; the engine tries them in a fixed priority order
// (hardlink, then copy, then move) and reports the one that actually
// completed. Verified transfers confirm byte length after the fact and
// retry transient mismatches; verified moves emulate atomicity across
// volumes with a transient hardlink backup of the source.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/jottr/shift/internal/event"
	"github.com/jottr/shift/internal/filter"
	"github.com/jottr/shift/internal/stats"
	"github.com/jottr/shift/internal/storage"
)

// DefaultRetryCount is how many times a verified copy is retried after its
// first attempt produces a size mismatch.
const DefaultRetryCount = 2

// backupSuffix is appended to the source path to name the transient
// hardlink a verified move works through.
const backupSuffix = ".movebackup"

// Options configures an Engine. The zero value is usable: no events, no
// stats, no filter, DefaultRetryCount retries.
type Options struct {
	Stats      *stats.Collector
	Events     chan<- event.Event
	Filter     *filter.Chain
	RetryCount int  // <0 means zero retries
	DryRun     bool // resolve and report without mutating the backend
}

// FileOptions are the per-call knobs of TransferFile.
type FileOptions struct {
	// Overwrite deletes an existing target before transferring. Without it,
	// an existing target is left to the backend to reject or clobber.
	Overwrite bool
	// Verify confirms each transfer by size comparison and retries
	// mismatches (copies) or falls back safely (moves).
	Verify bool
}

// Engine orchestrates file and folder transfers over a storage.Backend.
// All traversal is sequential and depth-first; the engine holds no state
// between top-level calls.
type Engine struct {
	backend storage.Backend
	stats   *stats.Collector
	events  chan<- event.Event
	filter  *filter.Chain
	retries int
	dryRun  bool
}

// New creates an Engine over the given backend.
func New(backend storage.Backend, opts Options) *Engine {
	retries := opts.RetryCount
	if retries == 0 {
		retries = DefaultRetryCount
	} else if retries < 0 {
		retries = 0
	}
	st := opts.Stats
	if st == nil {
		st = stats.NewCollector()
	}
	return &Engine{
		backend: backend,
		stats:   st,
		events:  opts.Events,
		filter:  opts.Filter,
		retries: retries,
		dryRun:  opts.DryRun,
	}
}

// Stats exposes the engine's collector for presenters and summaries.
func (e *Engine) Stats() *stats.Collector { return e.stats }

// TransferFile transfers a single file from src to dst and returns the
// strategy that completed. Strategies are tried in priority order: a
// requested hardlink first (success short-circuits, it is free), then copy,
// then move. With opts.Verify set, copies and moves go through the verified
// algorithms; otherwise a single raw backend call is trusted.
func (e *Engine) TransferFile(ctx context.Context, src, dst string, mode Capability, opts FileOptions) (Capability, error) {
	src, dst, err := guardPaths(src, dst)
	if err != nil {
		return None, err
	}
	if err := ctx.Err(); err != nil {
		return None, err
	}

	size, _ := e.backend.FileSize(src)
	e.emit(event.Event{Type: event.FileStarted, Path: src, Size: size})

	achieved, err := e.transferFile(ctx, src, dst, mode, opts)
	if err != nil {
		e.stats.AddFilesFailed(1)
		e.emit(event.Event{Type: event.FileFailed, Path: src, Size: size, Error: err})
		return None, err
	}

	e.record(achieved, size)
	e.emit(event.Event{Type: event.FileCompleted, Path: src, Size: size, Achieved: achieved.String()})
	return achieved, nil
}

func (e *Engine) transferFile(ctx context.Context, src, dst string, mode Capability, opts FileOptions) (Capability, error) {
	if e.dryRun {
		return e.resolveDryRun(mode)
	}

	if opts.Overwrite {
		exists, err := e.backend.FileExists(dst)
		if err != nil {
			return None, fmt.Errorf("check target %s: %w", dst, err)
		}
		if exists {
			// Fail loudly here: silently proceeding over a target we could
			// not clear would turn the transfer into a partial overwrite.
			if err := e.backend.DeleteFile(dst); err != nil {
				return None, fmt.Errorf("delete existing target %s: %w", dst, err)
			}
		}
	}

	if mode.Has(HardLink) {
		if e.backend.TryCreateHardLink(src, dst) {
			e.emit(event.Event{Type: event.HardlinkCreated, Path: dst})
			return HardLink, nil
		}
		if !mode.Has(Copy) {
			return None, fmt.Errorf("%w: %s -> %s: %w", ErrTransferFailed, src, dst, ErrHardLinkFailed)
		}
		// Hardlink refused but copy was also requested: fall through.
	}

	if !opts.Verify {
		switch {
		case mode.Has(Copy):
			if err := e.backend.CopyFile(ctx, src, dst); err != nil {
				return None, fmt.Errorf("%w: copy %s -> %s: %w", ErrTransferFailed, src, dst, err)
			}
			return Copy, nil
		case mode.Has(Move):
			if err := e.backend.MoveFile(ctx, src, dst); err != nil {
				return None, fmt.Errorf("%w: move %s -> %s: %w", ErrTransferFailed, src, dst, err)
			}
			return Move, nil
		}
		return None, fmt.Errorf("%w: no strategy requested for %s", ErrTransferFailed, src)
	}

	switch {
	case mode.Has(Copy):
		if err := e.verifiedCopy(ctx, src, dst); err != nil {
			return None, err
		}
		return Copy, nil
	case mode.Has(Move):
		if err := e.verifiedMove(ctx, src, dst); err != nil {
			return None, err
		}
		return Move, nil
	}
	return None, fmt.Errorf("%w: no strategy requested for %s", ErrTransferFailed, src)
}

// verifiedCopy copies src to dst and confirms the target's byte length
// matches the source's, retrying up to the engine's retry budget. A corrupt
// or partial target is deleted between attempts and after exhaustion. Size
// equality is the sole integrity signal; content is never checksummed.
func (e *Engine) verifiedCopy(ctx context.Context, src, dst string) error {
	originalSize, err := e.backend.FileSize(src)
	if err != nil {
		return fmt.Errorf("size of %s: %w", src, err)
	}

	attempts := e.retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		copyErr := e.backend.CopyFile(ctx, src, dst)
		if copyErr == nil {
			targetSize, sizeErr := e.backend.FileSize(dst)
			if sizeErr == nil && targetSize == originalSize {
				return nil
			}
		}

		// Partial or unreadable target: clear it before the next attempt so
		// a later success is not confused with this attempt's leftovers.
		if exists, _ := e.backend.FileExists(dst); exists {
			if err := e.backend.DeleteFile(dst); err != nil {
				return fmt.Errorf("%w: remove partial target %s: %w", ErrTransferFailed, dst, err)
			}
		}

		if attempt < attempts {
			e.stats.AddCopyRetries(1)
			e.emit(event.Event{Type: event.CopyRetried, Path: src, Attempt: attempt, Error: copyErr})
		}
	}

	return fmt.Errorf("%w: copy %s -> %s: size mismatch after %d attempts", ErrTransferFailed, src, dst, attempts)
}

// verifiedMove moves src to dst while guaranteeing that a crash at any point
// leaves the data reachable at one of the two paths. It hardlinks the source
// to a transient backup alias, moves the alias (so an in-volume rename fast
// path can apply and the original inode stays reachable), and only deletes
// the source once the target's size checks out. When hardlinks are
// unavailable it degrades to verified copy plus delete.
func (e *Engine) verifiedMove(ctx context.Context, src, dst string) error {
	originalSize, err := e.backend.FileSize(src)
	if err != nil {
		return fmt.Errorf("size of %s: %w", src, err)
	}

	backup := src + backupSuffix

	// A leftover artifact from a crashed prior attempt is stale by
	// definition; clear it before creating our own.
	if exists, _ := e.backend.FileExists(backup); exists {
		if err := e.backend.DeleteFile(backup); err != nil {
			return fmt.Errorf("remove stale backup %s: %w", backup, err)
		}
	}

	moved, err := e.moveViaBackup(ctx, src, dst, backup, originalSize)
	if err != nil {
		return err
	}
	if moved {
		return nil
	}

	// Fallback: verified copy, then release the source. The source is only
	// deleted after the copy verified, so failure leaves it untouched.
	if err := e.verifiedCopy(ctx, src, dst); err != nil {
		return err
	}
	if err := e.backend.DeleteFile(src); err != nil {
		return fmt.Errorf("remove source after move %s: %w", src, err)
	}
	return nil
}

// moveViaBackup attempts the hardlink-alias move. It reports whether the
// move completed; false with a nil error means the caller should fall back
// to verified copy. The backup artifact is released on every exit path.
func (e *Engine) moveViaBackup(ctx context.Context, src, dst, backup string, originalSize int64) (moved bool, err error) {
	if !e.backend.TryCreateHardLink(src, backup) {
		// Cross-device or unsupported; nothing was created.
		e.emit(event.Event{Type: event.MoveFellBack, Path: src})
		return false, nil
	}
	defer func() {
		// The artifact has no lifetime beyond this attempt. On success the
		// backend consumed it via the move; otherwise it is deleted here,
		// including on early error returns.
		if exists, _ := e.backend.FileExists(backup); exists {
			if delErr := e.backend.DeleteFile(backup); delErr != nil && err == nil {
				err = fmt.Errorf("release backup %s: %w", backup, delErr)
			}
		}
	}()

	if moveErr := e.backend.MoveFile(ctx, backup, dst); moveErr != nil {
		e.emit(event.Event{Type: event.MoveFellBack, Path: src, Error: moveErr})
		return false, nil
	}

	targetSize, sizeErr := e.backend.FileSize(dst)
	if sizeErr != nil || targetSize != originalSize {
		e.emit(event.Event{Type: event.MoveFellBack, Path: src, Error: sizeErr})
		return false, nil
	}

	if delErr := e.backend.DeleteFile(src); delErr != nil {
		return false, fmt.Errorf("remove source after move %s: %w", src, delErr)
	}
	return true, nil
}

// resolveDryRun reports the strategy that would be attempted first.
func (e *Engine) resolveDryRun(mode Capability) (Capability, error) {
	switch {
	case mode.Has(HardLink):
		return HardLink, nil
	case mode.Has(Copy):
		return Copy, nil
	case mode.Has(Move):
		return Move, nil
	}
	return None, ErrTransferFailed
}

func (e *Engine) record(achieved Capability, size int64) {
	switch achieved {
	case HardLink:
		e.stats.AddFilesHardlinked(1)
	case Copy:
		e.stats.AddFilesCopied(1)
		e.stats.AddBytesTransferred(size)
	case Move:
		e.stats.AddFilesMoved(1)
		e.stats.AddBytesTransferred(size)
	}
}

func (e *Engine) emit(ev event.Event) {
	if e.events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case e.events <- ev:
	default:
	}
}
