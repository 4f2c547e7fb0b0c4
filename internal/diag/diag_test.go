package diag

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"uwc/pkg/contract"
)

// UT-DIAG-01: 日志轮转写入
func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "uwc.log")
	w := NewRotatingFile(path, 30)
	if _, err := w.Write([]byte("first line that is very long\n")); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("第二次写入失败: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	ents, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("读取目录失败: %v", err)
	}
	hasCurrent, hasRotated := false, false
	for _, e := range ents {
		switch {
		case e.Name() == "uwc.log":
			hasCurrent = true
		case strings.HasPrefix(e.Name(), "uwc-") && strings.HasSuffix(e.Name(), ".log"):
			hasRotated = true
		}
	}
	if !hasCurrent || !hasRotated {
		t.Fatalf("expect both current and rotated files, got current=%v rotated=%v", hasCurrent, hasRotated)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "second\n" {
		t.Fatalf("current file should hold only the last line, got %q", b)
	}
}

// 单条超长记录写入空文件时不轮转
func TestRotatingFileOversizedFirstWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingFile(filepath.Join(dir, "a.log"), 4)
	defer w.Close()
	if _, err := w.Write([]byte("0123456789\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	ents, _ := os.ReadDir(dir)
	if len(ents) != 1 {
		t.Fatalf("expect single file, got %d", len(ents))
	}
	// 默认阈值
	if NewRotatingFile("x", 0).maxBytes != DefaultRotateBytes {
		t.Fatalf("default maxBytes")
	}
}

// UT-DIAG-02: 指标计数
func TestMetrics(t *testing.T) {
	before := testutil.ToFloat64(opTotal.WithLabelValues("comp", "stage", "success"))
	IncOp("comp", "stage", "success")
	if got := testutil.ToFloat64(opTotal.WithLabelValues("comp", "stage", "success")); got != before+1 {
		t.Fatalf("op_total = %v, want %v", got, before+1)
	}

	IncError("comp", CodeUnknown)
	IncError("comp", CodeIO)
	if got := testutil.ToFloat64(errorTotal.WithLabelValues("comp", "unknown")); got != 0 {
		t.Fatalf("unknown code should not be counted, got %v", got)
	}
	if got := testutil.ToFloat64(errorTotal.WithLabelValues("comp", "io")); got < 1 {
		t.Fatalf("io error not counted")
	}

	l0, c0 := testutil.ToFloat64(linesCounted), testutil.ToFloat64(chunksDispatched)
	AddWork(3, 120)
	if testutil.ToFloat64(linesCounted) != l0+120 || testutil.ToFloat64(chunksDispatched) != c0+3 {
		t.Fatalf("AddWork not applied")
	}
	ObserveDuration("comp", "finish", 3*time.Millisecond)

	path := filepath.Join(t.TempDir(), "uwc.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("textfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	for _, name := range []string{"uwc_op_total", "uwc_lines_counted_total", "uwc_op_duration_seconds_bucket"} {
		if !strings.Contains(string(b), name) {
			t.Fatalf("textfile missing %s", name)
		}
	}
}

// 错误分类
func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, CodeUnknown},
		{context.Canceled, CodeCancel},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), CodeCancel},
		{fmt.Errorf("%w: dup", contract.ErrInvariantViolation), CodeInvariant},
		{contract.ErrInvalidInput, CodeInput},
		{contract.ErrPathInvalid, CodeInput},
		{fmt.Errorf("%w: f: %w", contract.ErrStreamRead, errors.New("eio")), CodeIO},
		{&fs.PathError{Op: "open", Path: "/", Err: errors.New("x")}, CodeIO},
		{errors.New("other"), CodeUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Fatalf("Classify(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

// Logger 事件字段
func TestLoggerEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore("corr", core)
	timer := l.StartWith("splitter", "split", "a.txt", "3")
	timer.Finish("split", 7)
	l.ErrorWith("reader", CodeIO, "open failed", errors.New("boom"), "b.txt", "")
	l.Debug("dispatch", "chunk", zap.Int64("lines", 2))
	l.Warn("config", "deprecated key")

	all := logs.All()
	if len(all) != 5 {
		t.Fatalf("expect 5 entries, got %d", len(all))
	}
	start := all[0].ContextMap()
	if start["corr_id"] != "corr" || start["comp"] != "splitter" || start["stage"] != "start" || start["file_id"] != "a.txt" || start["chunk"] != "3" {
		t.Fatalf("bad start fields: %v", start)
	}
	fin := all[1].ContextMap()
	if fin["stage"] != "finish" || fin["count"] != int64(7) {
		t.Fatalf("bad finish fields: %v", fin)
	}
	errEv := all[2]
	if errEv.Level != zapcore.ErrorLevel || errEv.ContextMap()["code"] != "io" || errEv.ContextMap()["error"] != "boom" {
		t.Fatalf("bad error event: %v", errEv.ContextMap())
	}
	if _, ok := errEv.ContextMap()["chunk"]; ok {
		t.Fatalf("empty chunk should be omitted")
	}
	if all[3].Level != zapcore.DebugLevel || all[4].Level != zapcore.WarnLevel {
		t.Fatalf("bad levels")
	}
}

// 级别解析、none 与文件输出端
func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("c", LogOptions{Level: "verbose"}); err == nil {
		t.Fatalf("unknown level should fail")
	}
	if _, err := NewLogger("c", LogOptions{Format: "xml"}); err == nil {
		t.Fatalf("unknown format should fail")
	}
	if lv, _ := ParseLevel(""); lv != zapcore.WarnLevel {
		t.Fatalf("default level should be warn")
	}
	none, err := NewLogger("c", LogOptions{Level: "none"})
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	none.Error("x", CodeIO, "ignored", nil)

	path := filepath.Join(t.TempDir(), "uwc.log")
	l, err := NewLogger("corr-1", LogOptions{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Start("pipeline", "run").Finish("run", 1)
	if err := l.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not found: %v", err)
	}
	if !strings.Contains(string(b), `"corr_id":"corr-1"`) || !strings.Contains(string(b), `"stage":"finish"`) {
		t.Fatalf("unexpected log content: %s", b)
	}
}

// nil Logger / Timer 为 no-op
func TestLoggerNilReceiver(t *testing.T) {
	var l *Logger
	tm := l.Start("comp", "msg")
	tm.Finish("ok", 1)
	l.Error("comp", CodeIO, "msg", nil)
	l.Debug("comp", "msg")
	l.Warn("comp", "msg")
	if err := l.Sync(); err != nil {
		t.Fatalf("nil sync: %v", err)
	}
	var tn *Timer
	tn.Finish("x", 0)
	if tn.Since() != 0 {
		t.Fatalf("nil timer since")
	}
}

// UT-DIAG-03: 终端（非 TTY）关键节点输出
func TestTerminalNonTTYFlow(t *testing.T) {
	var sb strings.Builder
	term := NewTerminal(&sb, true)
	if term.isTTY {
		t.Fatalf("expect non-tty")
	}
	term.RunStart(4, "total")
	term.FileStart("docs/guide.md")
	term.ChunkDispatched(100)
	term.ChunkDispatched(20)
	term.FileFinish(true, 5100*time.Millisecond)
	term.FileStart("docs/missing.md")
	term.FileFinish(false, 0)
	term.RunFinish(false, 41300*time.Millisecond)

	out := sb.String()
	if strings.Contains(out, "\r") {
		t.Fatalf("non-tty should not contain carriage returns: %q", out)
	}
	for _, want := range []string{
		"[run] 并发=4 | 模式=total",
		"[file] guide.md",
		"[done] guide.md | 块 2 | 行 120 | 用时 5.1s",
		"[fail] missing.md | 块 0 | 行 0 | 用时 0ms",
		"[fail] 全部完成 | 文件 1 | 失败 1 | 总用时 41.3s",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

// UT-DIAG-04: 终端（TTY）进度节流与清尾
func TestTerminalTTYProgressThrottleAndClear(t *testing.T) {
	var sb strings.Builder
	term := NewTerminal(&sb, true)
	term.isTTY = true
	term.RunStart(2, "line")
	term.FileStart("/a/b/c/longfilename.txt")

	term.ChunkDispatched(10)
	first := sb.String()
	if !strings.Contains(first, "\r[file] longfilename.txt | 块 1 | 行 10") {
		t.Fatalf("first progress should be inline with CR: %q", first)
	}
	term.ChunkDispatched(10)
	if sb.String() != first {
		t.Fatalf("second progress should be throttled")
	}
	time.Sleep(120 * time.Millisecond)
	term.ChunkDispatched(10)
	if !strings.Contains(sb.String(), "块 3 | 行 30") {
		t.Fatalf("third progress should be printed: %q", sb.String())
	}
	term.FileFinish(true, 2200*time.Millisecond)
	final := sb.String()
	idx := strings.LastIndex(final, "[done]")
	if idx < 0 {
		t.Fatalf("finish should include done line: %q", final)
	}
	seg := final[:idx]
	cr := strings.LastIndex(seg, "\r")
	if cr < 0 || !strings.Contains(seg[cr+1:], " ") {
		t.Fatalf("clear tail should write spaces after CR: %q", seg)
	}
}

type flakyWriter struct{ fail bool }

func (w *flakyWriter) Write(p []byte) (int, error) {
	if w.fail {
		w.fail = false
		return 0, fmt.Errorf("boom")
	}
	return len(p), nil
}

// UT-DIAG-05: 写失败降级为禁用态
func TestTerminalDisableOnWriteError(t *testing.T) {
	fw := &flakyWriter{fail: true}
	term := NewTerminal(fw, true)
	term.RunStart(1, "total")
	if term.enabled {
		t.Fatalf("terminal should be disabled after write error")
	}
	term.FileStart("a")
	term.ChunkDispatched(1)
	term.FileFinish(true, 0)
	term.RunFinish(true, 0)

	var tn *Terminal
	tn.RunStart(1, "x")
	tn.FileStart("a")
	tn.ChunkDispatched(0)
	tn.FileFinish(true, 0)
	tn.RunFinish(true, 0)
}

// UT-DIAG-06: 工具函数
func TestHelpers(t *testing.T) {
	if got := shortenBase("/x/y/这是一个很长的文件名用于截断测试abcdefghijk.txt", 10); visLen(got) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("shortenBase: %q", got)
	}
	if shortenBase("x", 0) != "" {
		t.Fatalf("shortenBase max<=0 should be empty")
	}
	if safe("a\nb\rc") != "a b c" {
		t.Fatalf("safe replace failed")
	}
	if formatDur(0) != "0ms" {
		t.Fatalf("formatDur 0ms failed")
	}
	if formatDur(1500*time.Millisecond) != "1.5s" {
		t.Fatalf("formatDur 1.5s failed: %s", formatDur(1500*time.Millisecond))
	}
	t.Setenv("CI", "true")
	if NewTerminal(os.Stderr, true).isTTY {
		t.Fatalf("CI env should force non-tty")
	}
}
