package filesystem

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// Sink 是写出目标：标准输出，或在 Commit 时原子替换的文件。
// 文件模式下先写同目录临时文件，Commit 刷盘后替换目标；Abort 删除临时文件，目标保持不变。
type Sink struct {
	bw      *bufio.Writer
	f       *os.File
	tmpPath string
	dest    string
	done    bool
}

// SinkOptions: 输出文件的最小必要选项。
type SinkOptions struct {
	// Path: 目标文件；为空时写入 stdout。
	Path string
	// Atomic: 是否使用原子替换；nil 视为 true。
	Atomic   *bool
	PermFile os.FileMode
	BufSize  int
}

// OpenSink 打开写出目标。
func OpenSink(opts SinkOptions, stdout io.Writer) (*Sink, error) {
	bsz := opts.BufSize
	if bsz <= 0 {
		bsz = 64 * 1024
	}
	if opts.Path == "" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return &Sink{bw: bufio.NewWriterSize(stdout, bsz)}, nil
	}
	perm := opts.PermFile
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, err
	}
	s := &Sink{dest: opts.Path}
	if opts.Atomic != nil && !*opts.Atomic {
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
		if err != nil {
			return nil, err
		}
		s.f = f
	} else {
		f, err := os.CreateTemp(filepath.Dir(opts.Path), ".tmp-*")
		if err != nil {
			return nil, err
		}
		_ = os.Chmod(f.Name(), perm)
		s.f, s.tmpPath = f, f.Name()
	}
	s.bw = bufio.NewWriterSize(s.f, bsz)
	return s, nil
}

func (s *Sink) Write(p []byte) (int, error) { return s.bw.Write(p) }

// Path 返回目标路径（stdout 时为空）。
func (s *Sink) Path() string { return s.dest }

// Commit 刷新缓冲；文件模式下同步并替换目标。重复调用无副作用。
func (s *Sink) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.bw.Flush(); err != nil {
		s.discard()
		return err
	}
	if s.f == nil {
		return nil
	}
	if err := s.f.Sync(); err != nil {
		s.discard()
		return err
	}
	if err := s.f.Close(); err != nil {
		s.removeTmp()
		return err
	}
	if s.tmpPath == "" {
		return nil
	}
	if err := osReplace(s.tmpPath, s.dest); err != nil {
		s.removeTmp()
		return err
	}
	// 最佳努力：同步父目录
	_ = syncDir(filepath.Dir(s.dest))
	return nil
}

// Abort 放弃写出；原子模式下目标文件保持原状。
func (s *Sink) Abort() {
	if s.done {
		return
	}
	s.done = true
	s.discard()
}

func (s *Sink) discard() {
	if s.f != nil {
		_ = s.f.Close()
	}
	s.removeTmp()
}

func (s *Sink) removeTmp() {
	if s.tmpPath != "" {
		_ = os.Remove(s.tmpPath)
	}
}
