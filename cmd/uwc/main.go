package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	cfgpkg "uwc/internal/config"
	"uwc/internal/diag"
	"uwc/internal/pipeline"
	"uwc/pkg/contract"
)

// 退出码
const (
	exitOK          = 0
	exitInputFailed = 1 // 至少一个输入失败，或运行期 I/O 失败
	exitInvariant   = 2 // 内部不变量违例
	exitConfig      = 3 // 配置/参数错误
)

var (
	pipelineRun = pipeline.Run
	version     = "dev"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError 携带退出码；err 为 nil 时不再额外输出。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error { return &exitError{code: code, err: err} }

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil && !errors.Is(ee.err, context.Canceled) {
			fprintf(stderr, "uwc: %v\n", ee.err)
		}
		return ee.code
	}
	// cobra 自身的参数解析错误
	fprintf(stderr, "uwc: %v\n", err)
	return exitConfig
}

// rootFlags 仅承载无法直接绑定到 viper 键的开关。
type rootFlags struct {
	configPath string
	lines      bool
	words      bool
	bytes      bool
	chars      bool
	codepoints bool
	all        bool
	lineMode   bool
	noElastic  bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := cfgpkg.NewViper()
	var rf rootFlags
	cmd := &cobra.Command{
		Use:   "uwc [flags] [file ...]",
		Short: "Count lines, words, bytes, graphemes and code points of Unicode text",
		Long: "uwc counts Unicode text units per input. Inputs may be files, glob patterns,\n" +
			"directories (with the fs reader's recursive option) or - for standard input.",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd, v, &rf, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	d := cfgpkg.Defaults()
	f := cmd.Flags()
	f.StringVar(&rf.configPath, "config", "", "配置文件路径（YAML）；缺省搜索 ./uwc.yaml 与 $HOME/.config/uwc/uwc.yaml")
	f.BoolVarP(&rf.lines, "lines", "l", false, "统计行数")
	f.BoolVarP(&rf.words, "words", "w", false, "统计单词数")
	f.BoolVarP(&rf.bytes, "bytes", "b", false, "统计字节数")
	f.BoolVarP(&rf.chars, "chars", "c", false, "统计字素簇（用户感知字符）数")
	f.BoolVarP(&rf.codepoints, "codepoints", "p", false, "统计 Unicode 码点数")
	f.BoolVarP(&rf.all, "all", "a", false, "统计全部单位")
	f.StringSlice("counters", d.Counters, "计数器列表（lines,words,bytes,graphemes,codepoints）")
	f.String("mode", d.Mode, "报告形态：total|line")
	f.BoolVarP(&rf.lineMode, "line-mode", "L", false, "逐行报告（等价于 --mode line）")
	f.Int("chunk-size", d.ChunkSize, "每个并行工作单元的行数")
	f.IntP("workers", "j", d.Workers, "并行计数的 goroutine 上限（0 为 GOMAXPROCS）")
	f.Bool("count-final-line", d.CountFinalUnterminatedLine, "无终止符的末行也计入行数")
	f.Bool("trailing-newlines-only", d.CountTrailingNewlinesOnly, "行数仅统计终止符（优先于 --count-final-line）")
	f.String("writer", d.Components.Writer, "输出实现：table|jsonl|dir")
	f.BoolVar(&rf.noElastic, "no-elastic", false, "table 输出不做列对齐")
	f.String("log-level", d.Logging.Level, "日志级别：none|debug|info|warn|error")
	f.String("log-format", d.Logging.Format, "日志格式：console|json")
	f.String("log-file", d.Logging.File, "日志文件（按大小轮转）；缺省写 stderr")
	f.String("metrics-textfile", d.Metrics.Textfile, "运行结束后以 Prometheus textfile 格式导出指标")
	f.Bool("status", d.Status, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")

	mustBindPFlag(v, "counters", f.Lookup("counters"))
	mustBindPFlag(v, "mode", f.Lookup("mode"))
	mustBindPFlag(v, "chunk_size", f.Lookup("chunk-size"))
	mustBindPFlag(v, "workers", f.Lookup("workers"))
	mustBindPFlag(v, "count_final_unterminated_line", f.Lookup("count-final-line"))
	mustBindPFlag(v, "count_trailing_newlines_only", f.Lookup("trailing-newlines-only"))
	mustBindPFlag(v, "components.writer", f.Lookup("writer"))
	mustBindPFlag(v, "logging.level", f.Lookup("log-level"))
	mustBindPFlag(v, "logging.format", f.Lookup("log-format"))
	mustBindPFlag(v, "logging.file", f.Lookup("log-file"))
	mustBindPFlag(v, "metrics.textfile", f.Lookup("metrics-textfile"))
	mustBindPFlag(v, "status", f.Lookup("status"))

	cmd.AddCommand(newInitConfigCmd(stdout))
	return cmd
}

// mustBindPFlag 绑定 flag 到 viper 键；仅在 flag 名写错时失败。
func mustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

func newInitConfigCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [dir]",
		Short: "在指定目录生成默认配置 uwc.yaml（已存在则报错，不覆盖）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := cfgpkg.WriteTemplate(dir)
			if err != nil {
				if errors.Is(err, fs.ErrExist) {
					return exitWith(exitConfig, fmt.Errorf("生成默认配置失败: %s 已存在", path))
				}
				return exitWith(exitConfig, fmt.Errorf("生成默认配置失败: %w", err))
			}
			fprintf(stdout, "%s\n", path)
			return nil
		},
	}
}

// applyShortcuts 将计数器/形态快捷开关与位置参数写入 viper（最高优先级）。
func applyShortcuts(cmd *cobra.Command, v *viper.Viper, rf *rootFlags, args []string) {
	var names []string
	if cmd.Flags().Changed("counters") {
		names = append(names, v.GetStringSlice("counters")...)
	}
	if rf.all {
		names = append(names, contract.AllSelection.String())
	}
	for _, s := range []struct {
		on bool
		c  contract.Counter
	}{
		{rf.lines, contract.Lines},
		{rf.words, contract.Words},
		{rf.bytes, contract.Bytes},
		{rf.chars, contract.Graphemes},
		{rf.codepoints, contract.CodePoints},
	} {
		if s.on {
			names = append(names, s.c.String())
		}
	}
	if len(names) > 0 {
		v.Set("counters", names)
	}
	if rf.lineMode {
		v.Set("mode", string(contract.ModeLine))
	}
	if len(args) > 0 {
		v.Set("inputs", args)
	}
}

func runCount(cmd *cobra.Command, v *viper.Viper, rf *rootFlags, args []string, stdout, stderr io.Writer) error {
	start := time.Now()
	corrID := uuid.NewString()
	applyShortcuts(cmd, v, rf, args)

	cfg, used, err := cfgpkg.Load(v, rf.configPath)
	if err != nil {
		return exitWith(exitConfig, fmt.Errorf("配置解析失败: %w", err))
	}
	if rf.noElastic {
		if cfg.Options.Writer == nil {
			cfg.Options.Writer = map[string]any{}
		}
		cfg.Options.Writer["no_elastic"] = true
	}
	if err := cfgpkg.Validate(cfg); err != nil {
		return exitWith(exitConfig, fmt.Errorf("配置校验失败: %w", err))
	}

	logger, err := diag.NewLogger(corrID, cfg.LogOptions())
	if err != nil {
		return exitWith(exitConfig, fmt.Errorf("日志初始化失败: %w", err))
	}
	defer logger.Sync()

	logger.Debug("config", "effective",
		zap.String("config_file", used),
		zap.Int("inputs_count", len(cfg.Inputs)),
		zap.Strings("counters", cfg.Counters),
		zap.String("mode", cfg.Mode),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Int("workers", cfg.Workers),
		zap.String("reader", cfg.Components.Reader),
		zap.String("splitter", cfg.Components.Splitter),
		zap.String("chunker", cfg.Components.Chunker),
		zap.String("oracle", cfg.Components.Oracle),
		zap.String("writer", cfg.Components.Writer),
	)

	comp, set, err := cfgpkg.Assemble(cfg, stdout)
	if err != nil {
		logger.Error("config", diag.Classify(err), "assemble failed", err)
		return exitWith(exitConfig, fmt.Errorf("装配失败: %w", err))
	}
	set.ErrOut = stderr
	set.Terminal = diag.NewTerminal(stderr, cfg.Status)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, runErr := pipelineRun(ctx, comp, set, logger)
	diag.ObserveDuration("cli", "finish", time.Since(start))
	if cfg.Metrics.Textfile != "" {
		if err := diag.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("cli", "metrics textfile failed", zap.Error(err))
			fprintf(stderr, "uwc: metrics: %v\n", err)
		}
	}
	switch {
	case runErr == nil && sum.Failed == 0:
		return nil
	case runErr == nil:
		// 各失败输入已由流水线逐条输出
		return exitWith(exitInputFailed, nil)
	case errors.Is(runErr, contract.ErrInvariantViolation):
		return exitWith(exitInvariant, fmt.Errorf("internal error: %w", runErr))
	default:
		return exitWith(exitInputFailed, fmt.Errorf("运行失败: %w", runErr))
	}
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }
