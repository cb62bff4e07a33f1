package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jottr/shift/internal/platform"
)

// OSOptions configures the local-disk backend.
type OSOptions struct {
	// BWLimit caps copy throughput in bytes/sec. Zero means unlimited.
	// A limit forces the buffered read/write path so reads can be paced.
	BWLimit int64
}

// OS is the Backend implementation for the local filesystem. Copies land in
// a uniquely-named temp file next to the target and are renamed into place,
// so a crashed copy never leaves a half-written file at the target path.
type OS struct {
	limiter *rate.Limiter
}

// NewOS creates a local-disk backend.
func NewOS(opts OSOptions) *OS {
	o := &OS{}
	if opts.BWLimit > 0 {
		o.limiter = newBWLimiter(opts.BWLimit)
	}
	return o
}

func (o *OS) FileExists(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (o *OS) DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (o *OS) CreateDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (o *OS) DeleteFile(path string) error {
	return os.Remove(path)
}

func (o *OS) DeleteDir(path string, recursive bool) error {
	if recursive {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func (o *OS) FileSize(path string) (int64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (o *OS) TryCreateHardLink(src, dst string) bool {
	return os.Link(src, dst) == nil
}

func (o *OS) CopyFile(ctx context.Context, src, dst string) error {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	dir := filepath.Dir(dst)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.shift-tmp", filepath.Base(dst), uuid.New().String()[:8]))

	tmpFd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}
	defer func() {
		_ = os.Remove(tmpPath) // no-op once the rename succeeded
	}()

	if err := o.copyData(ctx, src, tmpFd, srcInfo.Size()); err != nil {
		tmpFd.Close()
		return fmt.Errorf("copy data %s: %w", src, err)
	}
	if err := tmpFd.Close(); err != nil {
		return fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, dst, err)
	}
	return nil
}

func (o *OS) copyData(ctx context.Context, src string, dstFd *os.File, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if o.limiter != nil {
		srcFd, err := os.Open(src)
		if err != nil {
			return err
		}
		defer srcFd.Close()
		_, err = io.Copy(dstFd, newRateLimitedReader(ctx, srcFd, o.limiter))
		return err
	}

	_, err := platform.Copy(platform.CopyParams{
		SrcPath: src,
		DstFd:   dstFd,
		SrcSize: size,
	})
	return err
}

func (o *OS) MoveFile(ctx context.Context, src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("rename %s -> %s: %w", src, dst, err)
	}

	// Cross-device: copy then remove. The caller's verification layer is
	// responsible for treating this as non-atomic.
	if err := o.CopyFile(ctx, src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source %s: %w", src, err)
	}
	return nil
}

func (o *OS) ListDirs(path string) ([]Entry, error) {
	return o.list(path, true)
}

func (o *OS) ListFiles(path string) ([]Entry, error) {
	return o.list(path, false)
}

func (o *OS) list(path string, dirs bool) ([]Entry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", path, err)
	}
	var out []Entry
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		if !dirs && !e.Type().IsRegular() {
			continue
		}
		out = append(out, Entry{Name: e.Name(), Path: filepath.Join(path, e.Name())})
	}
	return out, nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
