package diag

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogOptions 为日志器配置（来自 logging.* 配置段）。
type LogOptions struct {
	// Level: none|debug|info|warn|error；空串视为 warn。
	Level string
	// Format: console|json；空串视为 console。
	Format string
	// File: 非空时写入该文件并按 MaxBytes 轮转；否则写 stderr。
	File     string
	MaxBytes int64
}

// Logger 包装 zap，提供按组件/阶段的结构化事件。
// 每条事件固定带 corr_id/comp/stage；nil *Logger 为 no-op。
type Logger struct {
	z    *zap.Logger
	sink *RotatingFile
}

// NewLogger 按配置构造日志器。
func NewLogger(corrID string, opts LogOptions) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(strings.TrimSpace(opts.Level), "none") {
		return &Logger{z: zap.NewNop()}, nil
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.CallerKey = ""
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "console", "text":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	l := &Logger{}
	var ws zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if opts.File != "" {
		l.sink = NewRotatingFile(opts.File, opts.MaxBytes)
		ws = l.sink
	}
	l.z = zap.New(zapcore.NewCore(enc, ws, lvl)).With(zap.String("corr_id", corrID))
	return l, nil
}

// NewWithCore 以给定 core 构造日志器（测试注入 observer 等）。
func NewWithCore(corrID string, core zapcore.Core) *Logger {
	return &Logger{z: zap.New(core).With(zap.String("corr_id", corrID))}
}

// ParseLevel 解析日志级别；none 返回一个高于 error 的级别。
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel, nil
	case "info":
		return zap.InfoLevel, nil
	case "", "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	case "none":
		return zap.FatalLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	return l.StartWith(comp, msg, "", "")
}

// StartWith 记录带 file_id/chunk 的 start。
func (l *Logger) StartWith(comp, msg, fileID, chunk string) *Timer {
	t := &Timer{l: l, comp: comp, fileID: fileID, chunk: chunk, t0: time.Now()}
	if l != nil {
		l.z.Info(msg, t.fields("start")...)
	}
	return t
}

// Error 记录 error 事件。
func (l *Logger) Error(comp string, code Code, msg string, err error) {
	l.ErrorWith(comp, code, msg, err, "", "")
}

// ErrorWith 支持 file_id/chunk。
func (l *Logger) ErrorWith(comp string, code Code, msg string, err error, fileID, chunk string) {
	if l == nil {
		return
	}
	fs := []zap.Field{zap.String("comp", comp), zap.String("stage", "error"), zap.String("code", string(code))}
	fs = appendIDs(fs, fileID, chunk)
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	l.z.Error(msg, fs...)
}

// Warn 记录非致命告警。
func (l *Logger) Warn(comp, msg string, kv ...zap.Field) {
	if l == nil {
		return
	}
	l.z.Warn(msg, append([]zap.Field{zap.String("comp", comp)}, kv...)...)
}

// Debug 输出调试事件（仅在 level=debug 时生效）。
func (l *Logger) Debug(comp, msg string, kv ...zap.Field) {
	if l == nil {
		return
	}
	l.z.Debug(msg, append([]zap.Field{zap.String("comp", comp)}, kv...)...)
}

// Sync 刷新缓冲并关闭文件输出端。
func (l *Logger) Sync() error {
	if l == nil || l.z == nil {
		return nil
	}
	err := l.z.Sync()
	if l.sink != nil {
		if cerr := l.sink.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	fileID string
	chunk  string
	t0     time.Time
}

// Finish 记录 finish 事件与阶段耗时指标；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil {
		return
	}
	d := time.Since(t.t0)
	ObserveDuration(t.comp, "finish", d)
	IncOp(t.comp, "finish", "success")
	if t.l == nil {
		return
	}
	fs := append(t.fields("finish"), zap.Int64("dur_ms", d.Milliseconds()), zap.Int64("count", count))
	t.l.z.Info(msg, fs...)
}

// Since 返回自 start 起的耗时。
func (t *Timer) Since() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.t0)
}

func (t *Timer) fields(stage string) []zap.Field {
	fs := []zap.Field{zap.String("comp", t.comp), zap.String("stage", stage)}
	return appendIDs(fs, t.fileID, t.chunk)
}

func appendIDs(fs []zap.Field, fileID, chunk string) []zap.Field {
	if fileID != "" {
		fs = append(fs, zap.String("file_id", fileID))
	}
	if chunk != "" {
		fs = append(fs, zap.String("chunk", chunk))
	}
	return fs
}
