package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"uwc/internal/count"
	"uwc/internal/diag"
	"uwc/internal/pipeline"
	"uwc/pkg/contract"
	"uwc/pkg/registry"
)

// Validate 对最小必要边界做静态校验。返回的错误均包装 contract.ErrInvalidInput。
func Validate(cfg Config) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("%w: %w", contract.ErrInvalidInput, err)
	}
	return nil
}

func validate(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("config: inputs empty")
	}
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		if strings.TrimSpace(r) == "" {
			return errors.New("config: input path cannot be empty")
		}
		if strings.TrimSpace(r) == "-" {
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return errors.New("config: '-' cannot be mixed with other roots")
	}
	if cfg.ChunkSize < 1 {
		return errors.New("config: chunk_size must be >= 1")
	}
	if cfg.Workers < 0 {
		return errors.New("config: workers must be >= 0")
	}
	if _, err := contract.ParseSelection(cfg.Counters); err != nil {
		return fmt.Errorf("config: counters: %w", err)
	}
	if _, err := contract.ParseMode(cfg.Mode); err != nil {
		return fmt.Errorf("config: mode: %w", err)
	}
	if _, err := diag.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level: %w", err)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("config: logging.format %q must be console or json", cfg.Logging.Format)
	}
	if cfg.Logging.MaxBytes < 0 {
		return errors.New("config: logging.max_bytes must be >= 0")
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	d := Defaults().Components
	if name := effName(cfg.Components.Reader, d.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered (have %v)", name, registry.Names(registry.Reader))
	}
	if name := effName(cfg.Components.Splitter, d.Splitter); registry.Splitter[name] == nil {
		return fmt.Errorf("config: splitter %q not registered (have %v)", name, registry.Names(registry.Splitter))
	}
	if name := effName(cfg.Components.Chunker, d.Chunker); registry.Chunker[name] == nil {
		return fmt.Errorf("config: chunker %q not registered (have %v)", name, registry.Names(registry.Chunker))
	}
	if name := effName(cfg.Components.Oracle, d.Oracle); registry.Oracle[name] == nil {
		return fmt.Errorf("config: oracle %q not registered (have %v)", name, registry.Names(registry.Oracle))
	}
	if name := effName(cfg.Components.Writer, d.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered (have %v)", name, registry.Names(registry.Writer))
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传原样配置段。
// stdout 为 Writer 的默认输出；ErrOut/Terminal 由调用方补充。
func Assemble(cfg Config, stdout io.Writer) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	sel, _ := contract.ParseSelection(cfg.Counters)
	mode, _ := contract.ParseMode(cfg.Mode)

	// 有效名称
	d := Defaults().Components
	rn := effName(cfg.Components.Reader, d.Reader)
	on := effName(cfg.Components.Oracle, d.Oracle)
	sn := effName(cfg.Components.Splitter, d.Splitter)
	cn := effName(cfg.Components.Chunker, d.Chunker)
	wn := effName(cfg.Components.Writer, d.Writer)

	// 构造实例
	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("reader %s: %w", rn, err)
	}
	o, err := registry.Oracle[on](cfg.Options.Oracle)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("oracle %s: %w", on, err)
	}
	s, err := registry.Splitter[sn](cfg.Options.Splitter, o)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("splitter %s: %w", sn, err)
	}
	c, err := registry.Chunker[cn](cfg.Options.Chunker)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("chunker %s: %w", cn, err)
	}
	// Writer 最后构造：table/jsonl 在指定 output_path 时会创建临时文件
	w, err := registry.Writer[wn](cfg.Options.Writer, stdout)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer %s: %w", wn, err)
	}

	comp := pipeline.Components{
		Reader:   r,
		Splitter: s,
		Chunker:  c,
		Oracle:   o,
		Writer:   w,
	}
	set := pipeline.Settings{
		Inputs:    cloneStrings(cfg.Inputs),
		Selection: sel,
		Mode:      mode,
		ChunkSize: cfg.ChunkSize,
		Workers:   cfg.Workers,
		Policy: count.Policy{
			CountFinalUnterminated: cfg.CountFinalUnterminatedLine,
			TrailingNewlinesOnly:   cfg.CountTrailingNewlinesOnly,
		},
	}
	return comp, set, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
