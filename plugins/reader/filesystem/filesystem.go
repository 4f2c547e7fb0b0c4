package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"uwc/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `mapstructure:"buf_size"`
	// Recursive: 目录 root 是否递归遍历；为 false 时目录作为该 root 的打开错误回调。
	Recursive bool `mapstructure:"recursive"`
	// ExcludeDirNames: 递归时跳过这些目录名（基名匹配，大小写不敏感）。
	ExcludeDirNames []string `mapstructure:"exclude_dir_names"`
}

// FileSystem 实现基于文件系统、通配符与 STDIN 的 Reader。
type FileSystem struct {
	bufSize    int
	recursive  bool
	excludeDir map[string]struct{}
	stdin      io.Reader
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	r := &FileSystem{bufSize: defaultBuf, excludeDir: map[string]struct{}{}, stdin: os.Stdin}
	if opts == nil {
		return r
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	r.recursive = opts.Recursive
	for _, name := range opts.ExcludeDirNames {
		if name != "" {
			r.excludeDir[strings.ToLower(name)] = struct{}{}
		}
	}
	return r
}

type yieldFunc = func(contract.FileID, io.ReadCloser, error) error

// Iterate 按 roots 顺序逐个输入调用 yield。
// roots 为空或仅为 "-" 时读取 STDIN；通配符按字典序展开；
// 单个输入的打开失败经 openErr 回调，不中断其余输入。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser, openErr error) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		// STDIN 不由我们关闭
		return yield(contract.StdinID, newBufferedCloser(io.NopCloser(r.stdin), r.bufSize), nil)
	}
	for _, s := range roots {
		if s == "-" {
			return fmt.Errorf("%w: stdin '-' cannot be mixed with other inputs", contract.ErrInvalidInput)
		}
	}
	for _, root := range roots {
		if err := r.iterateRoot(ctx, root, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) iterateRoot(ctx context.Context, root string, yield yieldFunc) error {
	if !hasMeta(root) {
		return r.iterateOne(ctx, root, yield)
	}
	matches, err := filepath.Glob(root)
	if err != nil {
		return yield(contract.NormalizeFileID(root), nil, fmt.Errorf("%w: %s: %w", contract.ErrPathInvalid, root, err))
	}
	if len(matches) == 0 {
		return yield(contract.NormalizeFileID(root), nil, fmt.Errorf("%w: %s: no match", contract.ErrPathInvalid, root))
	}
	sort.Strings(matches)
	for _, m := range matches {
		if err := r.iterateOne(ctx, m, yield); err != nil {
			return err
		}
	}
	return nil
}

func hasMeta(p string) bool { return strings.ContainsAny(p, `*?[`) }

// iterateOne 处理单个显式路径。显式给出的非常规文件（FIFO、设备）照常读取。
func (r *FileSystem) iterateOne(ctx context.Context, root string, yield yieldFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := contract.NormalizeFileID(root)
	info, err := os.Stat(root)
	if err != nil {
		return yield(id, nil, err)
	}
	if info.IsDir() {
		lst, err := os.Lstat(root)
		if err == nil && lst.Mode()&os.ModeSymlink != 0 {
			// 指向目录的符号链接不跟随
			return nil
		}
		if !r.recursive {
			return yield(id, nil, fmt.Errorf("%w: %s: is a directory", contract.ErrPathInvalid, root))
		}
		return r.walkDir(ctx, root, yield)
	}
	return r.open(root, yield)
}

func (r *FileSystem) open(p string, yield yieldFunc) error {
	id := contract.NormalizeFileID(p)
	f, err := os.Open(p)
	if err != nil {
		return yield(id, nil, err)
	}
	brc := newBufferedCloser(f, r.bufSize)
	if err := yield(id, brc, nil); err != nil {
		_ = brc.Close()
		return err
	}
	return nil
}

// walkDir 先递归子目录、再处理文件，均按字典序；跳过目录符号链接与非常规文件。
func (r *FileSystem) walkDir(ctx context.Context, dir string, yield yieldFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield(contract.NormalizeFileID(dir), nil, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, skip := r.excludeDir[strings.ToLower(e.Name())]; skip {
			continue
		}
		if err := r.walkDir(ctx, filepath.Join(dir, e.Name()), yield); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if e.Type()&os.ModeSymlink != 0 {
			t, err := os.Stat(p)
			if err != nil {
				if yerr := yield(contract.NormalizeFileID(p), nil, err); yerr != nil {
					return yerr
				}
				continue
			}
			if !t.Mode().IsRegular() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}
		if err := r.open(p, yield); err != nil {
			return err
		}
	}
	return nil
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }

var _ contract.Reader = (*FileSystem)(nil)
