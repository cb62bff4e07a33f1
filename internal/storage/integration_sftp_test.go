//go:build integration

package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/ssh"

	"github.com/jottr/shift/internal/storage"
	"github.com/jottr/shift/internal/transfer"
)

// startSFTPContainer starts an atmoz/sftp container with the given directory
// bind-mounted at /home/testuser/data. Returns host and port for SSH.
func startSFTPContainer(t *testing.T, bindMountDir string) (host string, port int) {
	t.Helper()
	ctx := context.Background()

	// Use the host user's uid/gid so files written via SFTP are owned by the
	// test process, allowing t.TempDir() cleanup to delete them.
	uid := os.Getuid()
	gid := os.Getgid()
	userSpec := fmt.Sprintf("testuser:testpass:%d:%d:data", uid, gid)

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "atmoz/sftp:latest",
			ExposedPorts: []string{"22/tcp"},
			Cmd:          []string{userSpec},
			Mounts: testcontainers.Mounts(
				testcontainers.BindMount(bindMountDir, "/home/testuser/data"),
			),
			WaitingFor: wait.ForListeningPort("22/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	}

	ctr, err := testcontainers.GenericContainer(ctx, req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	h, err := ctr.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := ctr.MappedPort(ctx, "22/tcp")
	require.NoError(t, err)

	p, err := strconv.Atoi(mappedPort.Port())
	require.NoError(t, err)

	return h, p
}

// dialTestSSH connects to an SSH server with password auth and retry logic.
// Does NOT register cleanup — the backend's Close() handles that.
func dialTestSSH(t *testing.T, host string, port int) *ssh.Client {
	t.Helper()

	config := &ssh.ClientConfig{
		User:            "testuser",
		Auth:            []ssh.AuthMethod{ssh.Password("testpass")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", host, port)

	var client *ssh.Client
	var err error
	for range 10 {
		client, err = ssh.Dial("tcp", addr, config)
		if err == nil {
			return client
		}
		time.Sleep(500 * time.Millisecond)
	}

	require.NoError(t, err, "failed to connect to SFTP container at %s after retries", addr)
	return nil
}

func newSFTPBackend(t *testing.T, mountDir string) *storage.SFTP {
	t.Helper()

	// chmod 0777 so the container user can read and write the mount.
	require.NoError(t, os.Chmod(mountDir, 0o777))

	host, port := startSFTPContainer(t, mountDir)
	sshClient := dialTestSSH(t, host, port)

	backend, err := storage.NewSFTP(sshClient)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestIntegrationSFTPPrimitives(t *testing.T) {
	t.Parallel()

	mountDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(mountDir, "a.bin"), []byte("remote payload"), 0o644))

	backend := newSFTPBackend(t, mountDir)
	ctx := context.Background()

	ok, err := backend.FileExists("/data/a.bin")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := backend.FileSize("/data/a.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(14), n)

	require.NoError(t, backend.CreateDir("/data/sub"))
	ok, err = backend.DirExists("/data/sub")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, backend.CopyFile(ctx, "/data/a.bin", "/data/sub/a-copy.bin"))
	got, err := os.ReadFile(filepath.Join(mountDir, "sub", "a-copy.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("remote payload"), got)

	require.NoError(t, backend.MoveFile(ctx, "/data/sub/a-copy.bin", "/data/sub/a-moved.bin"))
	ok, err = backend.FileExists("/data/sub/a-copy.bin")
	require.NoError(t, err)
	assert.False(t, ok)

	files, err := backend.ListFiles("/data/sub")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a-moved.bin", files[0].Name)

	require.NoError(t, backend.DeleteFile("/data/sub/a-moved.bin"))
	require.NoError(t, backend.DeleteDir("/data/sub", false))
}

func TestIntegrationSFTPHardlink(t *testing.T) {
	t.Parallel()

	mountDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(mountDir, "a.bin"), []byte("payload"), 0o644))

	backend := newSFTPBackend(t, mountDir)

	if !backend.TryCreateHardLink("/data/a.bin", "/data/a-link.bin") {
		t.Skip("sftp server refuses hardlink extension")
	}

	srcInfo, err := os.Stat(filepath.Join(mountDir, "a.bin"))
	require.NoError(t, err)
	dstInfo, err := os.Stat(filepath.Join(mountDir, "a-link.bin"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, dstInfo))
}

func TestIntegrationSFTPEngineTransfer(t *testing.T) {
	t.Parallel()

	mountDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(mountDir, "src", "s01"), 0o777))
	require.NoError(t, os.WriteFile(filepath.Join(mountDir, "src", "s01", "e01.mkv"), []byte("episode one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mountDir, "src", "top.txt"), []byte("top"), 0o644))

	backend := newSFTPBackend(t, mountDir)
	eng := transfer.New(backend, transfer.Options{})

	achieved, err := eng.TransferFolder(context.Background(), "/data/src", "/data/dst", transfer.Copy, true)
	require.NoError(t, err)
	assert.Equal(t, transfer.Copy, achieved)

	got, err := os.ReadFile(filepath.Join(mountDir, "dst", "s01", "e01.mkv"))
	require.NoError(t, err)
	assert.Equal(t, []byte("episode one"), got)

	got, err = os.ReadFile(filepath.Join(mountDir, "dst", "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("top"), got)
}
