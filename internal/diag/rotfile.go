package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultRotateBytes: 日志文件默认轮转阈值。
const DefaultRotateBytes = 10 * 1024 * 1024

// RotatingFile 将日志写入固定路径，并按大小轮转。
// - 当前文件即 path；
// - 轮转：写入将超过 maxBytes 时，把 path 重命名为 <name>-YYYYMMDD-HHMMSS.nnnnnnnnn<ext>，再重新创建 path。
// 实现 zapcore.WriteSyncer，供 Logger 作为输出端。
type RotatingFile struct {
	path     string
	maxBytes int64
	mu       sync.Mutex
	f        *os.File
	curSize  int64
}

func NewRotatingFile(path string, maxBytes int64) *RotatingFile {
	if maxBytes <= 0 {
		maxBytes = DefaultRotateBytes
	}
	return &RotatingFile{path: path, maxBytes: maxBytes}
}

// Write 写入一条完整日志（zap 每条记录调用一次）。
func (w *RotatingFile) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureOpen(); err != nil {
		return 0, err
	}
	// 空文件时不轮转，避免单条超长记录反复轮转
	if w.curSize > 0 && w.curSize+int64(len(b)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(b)
	w.curSize += int64(n)
	return n, err
}

// Sync 刷盘。
func (w *RotatingFile) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

func (w *RotatingFile) ensureOpen() error {
	if w.f != nil {
		return nil
	}
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.curSize = 0
	if st, err := f.Stat(); err == nil {
		w.curSize = st.Size()
	}
	return nil
}

func (w *RotatingFile) rotate() error {
	if w.f == nil {
		return w.ensureOpen()
	}
	_ = w.f.Close()
	w.f = nil
	// 高精度时间戳，避免同秒冲突覆盖
	ts := time.Now().UTC().Format("20060102-150405.000000000")
	ext := filepath.Ext(w.path)
	rotated := fmt.Sprintf("%s-%s%s", strings.TrimSuffix(w.path, ext), ts, ext)
	if err := os.Rename(w.path, rotated); err != nil {
		return fmt.Errorf("rename rotated file: %w", err)
	}
	return w.ensureOpen()
}

// Close 关闭当前打开的文件句柄。
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f != nil {
		err := w.f.Close()
		w.f = nil
		return err
	}
	return nil
}

var _ zapcore.WriteSyncer = (*RotatingFile)(nil)
