// Package storage defines the filesystem abstraction the transfer engine
// runs on top of. The engine never touches the OS directly; every primitive
// (existence checks, single-file copy and move, hardlinks, sizes, listings,
// deletes) goes through a Backend so that local disks, remote SFTP trees and
// in-memory test filesystems are interchangeable.
package storage

import "context"

// Entry is a single directory listing result.
type Entry struct {
	Name string // base name
	Path string // full path within the backend
}

// Backend is the set of filesystem primitives the transfer engine consumes.
// Implementations report failures instead of swallowing them; a copy or move
// may be non-atomic and may leave a partial target behind on error.
type Backend interface {
	// FileExists reports whether a regular file exists at path.
	FileExists(path string) (bool, error)
	// DirExists reports whether a directory exists at path.
	DirExists(path string) (bool, error)

	// CreateDir creates the directory at path, including missing parents.
	CreateDir(path string) error
	// DeleteFile removes the file at path.
	DeleteFile(path string) error
	// DeleteDir removes the directory at path. With recursive set it removes
	// the directory's contents as well; otherwise the directory must be empty.
	DeleteDir(path string, recursive bool) error

	// CopyFile copies a single file. The result may be partial on error.
	CopyFile(ctx context.Context, src, dst string) error
	// MoveFile moves a single file. Not guaranteed atomic across volumes.
	MoveFile(ctx context.Context, src, dst string) error

	// TryCreateHardLink attempts to create a hardlink at dst aliasing src.
	// It never returns an error: false covers both unsupported backends and
	// failed attempts (e.g. cross-device links).
	TryCreateHardLink(src, dst string) bool

	// FileSize returns the size in bytes of the file at path.
	FileSize(path string) (int64, error)

	// ListDirs enumerates the immediate subdirectories of path.
	// Enumeration order is backend-defined.
	ListDirs(path string) ([]Entry, error)
	// ListFiles enumerates the regular files directly under path.
	ListFiles(path string) ([]Entry, error)
}
