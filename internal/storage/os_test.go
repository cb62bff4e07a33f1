package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jottr/shift/internal/storage"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestOSExists(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	writeFile(t, filepath.Join(dir, "a.txt"), []byte("x"))

	ok, err := backend.FileExists(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = backend.FileExists(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.False(t, ok)

	// A directory is not a file.
	ok, err = backend.FileExists(dir)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = backend.DirExists(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = backend.DirExists(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOSCopyFile(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "out", "dst.bin")
	payload := []byte("some file contents that survive the round trip")
	writeFile(t, src, payload)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))

	require.NoError(t, backend.CopyFile(context.Background(), src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// No temp file debris next to the target.
	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOSCopyFilePreservesMode(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	src := filepath.Join(dir, "run.sh")
	dst := filepath.Join(dir, "run-copy.sh")
	writeFile(t, src, []byte("#!/bin/sh\n"))
	require.NoError(t, os.Chmod(src, 0o755))

	require.NoError(t, backend.CopyFile(context.Background(), src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestOSCopyFileCancelledContext(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	writeFile(t, src, []byte("contents"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, backend.CopyFile(ctx, src, dst))
	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}

func TestOSCopyFileWithBWLimit(t *testing.T) {
	dir := t.TempDir()
	// Limit far above the payload size so the test does not stall; the point
	// is that the rate-limited path produces identical output.
	backend := storage.NewOS(storage.OSOptions{BWLimit: 10 << 20})

	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	writeFile(t, src, payload)

	require.NoError(t, backend.CopyFile(context.Background(), src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestOSTryCreateHardLink(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	writeFile(t, src, []byte("contents"))

	assert.True(t, backend.TryCreateHardLink(src, dst))

	srcInfo, err := os.Stat(src)
	require.NoError(t, err)
	dstInfo, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, dstInfo))

	// Existing target refuses the link.
	assert.False(t, backend.TryCreateHardLink(src, dst))
	// Missing source refuses the link.
	assert.False(t, backend.TryCreateHardLink(filepath.Join(dir, "nope"), filepath.Join(dir, "other")))
}

func TestOSMoveFile(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	writeFile(t, src, []byte("contents"))

	require.NoError(t, backend.MoveFile(context.Background(), src, dst))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("contents"), got)
}

func TestOSFileSize(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	path := filepath.Join(dir, "a.bin")
	writeFile(t, path, make([]byte, 1234))

	n, err := backend.FileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)

	_, err = backend.FileSize(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestOSList(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	writeFile(t, filepath.Join(dir, "a.txt"), []byte("a"))
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("b"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, filepath.Join(dir, "sub", "nested.txt"), []byte("n"))

	files, err := backend.ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, filepath.Join(dir, "a.txt"), files[0].Path)

	dirs, err := backend.ListDirs(dir)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "sub", dirs[0].Name)
}

func TestOSListSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	writeFile(t, filepath.Join(dir, "real.txt"), []byte("r"))
	require.NoError(t, os.Symlink(filepath.Join(dir, "real.txt"), filepath.Join(dir, "alias.txt")))

	files, err := backend.ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "real.txt", files[0].Name)
}

func TestOSDeleteDir(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewOS(storage.OSOptions{})

	target := filepath.Join(dir, "tree")
	writeFile(t, filepath.Join(target, "a.txt"), []byte("a"))

	// Non-recursive refuses a populated directory.
	require.Error(t, backend.DeleteDir(target, false))

	require.NoError(t, backend.DeleteDir(target, true))
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}
