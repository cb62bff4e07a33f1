package transfer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jottr/shift/internal/event"
)

// TransferFolder transfers the tree rooted at src into dst, depth-first.
// Every file is transferred with Overwrite set (the destination tree is
// being populated or merged, so same-named files are replaced). The
// returned capability is the AND across every contained item: a bit
// survives only if the whole subtree achieved it. The first failing item
// aborts the traversal; already-migrated items are left as-is. Entries the
// filter excludes are skipped and stay at the source, so a move removes a
// source directory only when nothing under it was held back.
func (e *Engine) TransferFolder(ctx context.Context, src, dst string, mode Capability, verify bool) (Capability, error) {
	src, dst, err := guardPaths(src, dst)
	if err != nil {
		return None, err
	}
	achieved, _, err := e.transferFolder(ctx, src, dst, mode, verify)
	return achieved, err
}

// transferFolder reports, alongside the aggregate capability, whether any
// entry in the subtree was skipped by the filter. A skipped entry still
// lives at the source; its ancestors must not be recursively deleted.
func (e *Engine) transferFolder(ctx context.Context, src, dst string, mode Capability, verify bool) (Capability, bool, error) {
	if err := ctx.Err(); err != nil {
		return None, false, err
	}

	exists, err := e.backend.DirExists(dst)
	if err != nil {
		return None, false, fmt.Errorf("check target dir %s: %w", dst, err)
	}
	if !exists && !e.dryRun {
		if err := e.backend.CreateDir(dst); err != nil {
			return None, false, fmt.Errorf("create target dir %s: %w", dst, err)
		}
		e.stats.AddDirsCreated(1)
		e.emit(event.Event{Type: event.DirCreated, Path: dst})
	}

	achieved := mode
	skipped := false

	dirs, err := e.backend.ListDirs(src)
	if err != nil {
		return None, false, fmt.Errorf("list dirs of %s: %w", src, err)
	}
	for _, d := range dirs {
		if e.excluded(d.Path, true, 0) {
			e.emit(event.Event{Type: event.FileSkipped, Path: d.Path})
			e.stats.AddFilesSkipped(1)
			skipped = true
			continue
		}
		sub, subSkipped, err := e.transferFolder(ctx, d.Path, filepath.Join(dst, d.Name), mode, verify)
		if err != nil {
			return None, false, err
		}
		achieved = achieved.And(sub)
		skipped = skipped || subSkipped
	}

	files, err := e.backend.ListFiles(src)
	if err != nil {
		return None, false, fmt.Errorf("list files of %s: %w", src, err)
	}
	for _, f := range files {
		size, _ := e.backend.FileSize(f.Path)
		if e.excluded(f.Path, false, size) {
			e.emit(event.Event{Type: event.FileSkipped, Path: f.Path})
			e.stats.AddFilesSkipped(1)
			skipped = true
			continue
		}
		got, err := e.TransferFile(ctx, f.Path, filepath.Join(dst, f.Name), mode, FileOptions{
			Overwrite: true,
			Verify:    verify,
		})
		if err != nil {
			return None, false, err
		}
		achieved = achieved.And(got)
	}

	// A move relocates the children; the emptied source tree is cleanup.
	// Anything skipped in this subtree is still here, so the directory must
	// survive (child directories with no skips removed themselves already).
	if mode.Has(Move) && !e.dryRun && !skipped {
		if err := e.backend.DeleteDir(src, true); err != nil {
			return None, false, fmt.Errorf("remove source dir %s: %w", src, err)
		}
		e.emit(event.Event{Type: event.SourceRemoved, Path: src})
	}

	return achieved, skipped, nil
}

func (e *Engine) excluded(path string, isDir bool, size int64) bool {
	if e.filter == nil {
		return false
	}
	return !e.filter.Match(filepath.Base(path), isDir, size)
}

// CountFolder walks the tree rooted at src through the backend and returns
// the file and byte totals a transfer of it would process. Used to seed
// progress reporting; filtering is applied the same way TransferFolder does.
func (e *Engine) CountFolder(ctx context.Context, src string) (files, bytes int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	dirs, err := e.backend.ListDirs(src)
	if err != nil {
		return 0, 0, fmt.Errorf("list dirs of %s: %w", src, err)
	}
	for _, d := range dirs {
		if e.excluded(d.Path, true, 0) {
			continue
		}
		f, b, err := e.CountFolder(ctx, d.Path)
		if err != nil {
			return 0, 0, err
		}
		files += f
		bytes += b
	}

	entries, err := e.backend.ListFiles(src)
	if err != nil {
		return 0, 0, fmt.Errorf("list files of %s: %w", src, err)
	}
	for _, f := range entries {
		size, err := e.backend.FileSize(f.Path)
		if err != nil {
			return 0, 0, fmt.Errorf("size of %s: %w", f.Path, err)
		}
		if e.excluded(f.Path, false, size) {
			continue
		}
		files++
		bytes += size
	}
	return files, bytes, nil
}
