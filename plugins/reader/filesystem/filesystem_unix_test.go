//go:build !windows

package filesystem

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWalkDirNonRegular 递归时跳过 FIFO 等非常规文件。
func TestWalkDirNonRegular(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, syscall.Mkfifo(filepath.Join(root, "fifo"), 0o644))
	got, err := run(t, New(&Options{Recursive: true}), root)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestIterateSymlink 指向常规文件的符号链接以链接路径为 FileID。
func TestIterateSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "t.txt")
	write(t, target, "ok")
	link := filepath.Join(dir, "l.txt")
	require.NoError(t, os.Symlink(target, link))
	got, err := run(t, New(nil), link)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "l.txt", filepath.Base(got[0].id))
	assert.Equal(t, "ok", got[0].data)
}

// TestIterateSymlinkDir 指向目录的符号链接被忽略（显式 root 与递归遍历均如此）。
func TestIterateSymlinkDir(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	write(t, filepath.Join(sub, "ok.txt"), "o")
	link := filepath.Join(root, "sub_link")
	require.NoError(t, os.Symlink(sub, link))

	got, err := run(t, New(&Options{Recursive: true}), link)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = run(t, New(&Options{Recursive: true}), root)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok.txt", filepath.Base(got[0].id))
}

// TestIterateSymlinkDangling 失效的符号链接作为打开错误回调。
func TestIterateSymlinkDangling(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(dir, "no"), link))
	got, err := run(t, New(nil), link)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Error(t, got[0].err)
}
