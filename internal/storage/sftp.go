package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Compile-time interface check.
var _ Backend = (*SFTP)(nil)

// SFTP is a Backend over a remote filesystem reached through SFTP. Hardlink
// creation uses the protocol's link extension where the server offers it;
// servers that refuse simply drive the engine down its fallback paths.
type SFTP struct {
	client *sftp.Client
	ssh    *ssh.Client
}

// NewSFTP creates a backend on top of an established SSH connection.
// The caller must call Close when done; Close also closes the SSH client.
func NewSFTP(sshClient *ssh.Client) (*SFTP, error) {
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	return &SFTP{client: client, ssh: sshClient}, nil
}

// Close releases the SFTP session and the underlying SSH connection.
func (s *SFTP) Close() error {
	err := s.client.Close()
	if s.ssh != nil {
		if sshErr := s.ssh.Close(); err == nil {
			err = sshErr
		}
	}
	return err
}

func (s *SFTP) FileExists(p string) (bool, error) {
	info, err := s.client.Lstat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *SFTP) DirExists(p string) (bool, error) {
	info, err := s.client.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (s *SFTP) CreateDir(p string) error {
	return s.client.MkdirAll(p)
}

func (s *SFTP) DeleteFile(p string) error {
	return s.client.Remove(p)
}

func (s *SFTP) DeleteDir(p string, recursive bool) error {
	if recursive {
		return s.client.RemoveAll(p)
	}
	return s.client.RemoveDirectory(p)
}

func (s *SFTP) FileSize(p string) (int64, error) {
	info, err := s.client.Lstat(p)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *SFTP) TryCreateHardLink(src, dst string) bool {
	return s.client.Link(src, dst) == nil
}

func (s *SFTP) CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	srcFd, err := s.client.Open(src)
	if err != nil {
		return fmt.Errorf("sftp open %s: %w", src, err)
	}
	defer srcFd.Close()

	dstFd, err := s.client.Create(dst)
	if err != nil {
		return fmt.Errorf("sftp create %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFd, srcFd); err != nil {
		dstFd.Close()
		return fmt.Errorf("sftp copy %s -> %s: %w", src, dst, err)
	}
	return dstFd.Close()
}

func (s *SFTP) MoveFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// POSIX rename overwrites an existing target, matching local semantics.
	if err := s.client.PosixRename(src, dst); err == nil {
		return nil
	}
	if err := s.CopyFile(ctx, src, dst); err != nil {
		return err
	}
	return s.client.Remove(src)
}

func (s *SFTP) ListDirs(p string) ([]Entry, error) {
	return s.list(p, true)
}

func (s *SFTP) ListFiles(p string) ([]Entry, error) {
	return s.list(p, false)
}

func (s *SFTP) list(p string, dirs bool) ([]Entry, error) {
	infos, err := s.client.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("sftp readdir %s: %w", p, err)
	}
	var out []Entry
	for _, info := range infos {
		if info.IsDir() != dirs {
			continue
		}
		if !dirs && !info.Mode().IsRegular() {
			continue
		}
		out = append(out, Entry{Name: info.Name(), Path: path.Join(p, info.Name())})
	}
	return out, nil
}
