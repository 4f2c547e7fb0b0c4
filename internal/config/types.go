package config

// Config: 运行期只读配置（一次解析，运行期不变）。
// 键使用 snake_case；配置文件中的未知键在解析期失败。
type Config struct {
	Inputs []string `mapstructure:"inputs" yaml:"inputs"`
	// Counters: 计数器名称列表；空则为 lines,words,bytes。
	Counters []string `mapstructure:"counters" yaml:"counters"`
	// Mode: total|line。
	Mode string `mapstructure:"mode" yaml:"mode"`
	// ChunkSize: 每块行数（>0），只影响性能。
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`
	// Workers: 并行计数的 goroutine 上限；0 表示 GOMAXPROCS。
	Workers int `mapstructure:"workers" yaml:"workers"`

	CountFinalUnterminatedLine bool `mapstructure:"count_final_unterminated_line" yaml:"count_final_unterminated_line"`
	// CountTrailingNewlinesOnly 为真时忽略 CountFinalUnterminatedLine。
	CountTrailingNewlinesOnly bool `mapstructure:"count_trailing_newlines_only" yaml:"count_trailing_newlines_only"`

	// Status: 是否在 stderr 输出进度提示。
	Status  bool    `mapstructure:"status" yaml:"status"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`

	// 组件名选择（空则使用默认名）。
	Components Components `mapstructure:"components" yaml:"components"`
	// 各组件 Options 子树，原样传入工厂做严格解码。
	Options Options `mapstructure:"options" yaml:"options"`
}

// Logging: 日志等级、格式与可选的轮转文件。
type Logging struct {
	Level    string `mapstructure:"level" yaml:"level"`
	Format   string `mapstructure:"format" yaml:"format"`
	File     string `mapstructure:"file" yaml:"file"`
	MaxBytes int64  `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// Metrics: 指标导出（node-exporter textfile）。
type Metrics struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader   string `mapstructure:"reader" yaml:"reader"`
	Splitter string `mapstructure:"splitter" yaml:"splitter"`
	Chunker  string `mapstructure:"chunker" yaml:"chunker"`
	Oracle   string `mapstructure:"oracle" yaml:"oracle"`
	Writer   string `mapstructure:"writer" yaml:"writer"`
}

// Options: 各组件的原样 Options。
type Options struct {
	Reader   map[string]any `mapstructure:"reader" yaml:"reader,omitempty"`
	Splitter map[string]any `mapstructure:"splitter" yaml:"splitter,omitempty"`
	Chunker  map[string]any `mapstructure:"chunker" yaml:"chunker,omitempty"`
	Oracle   map[string]any `mapstructure:"oracle" yaml:"oracle,omitempty"`
	Writer   map[string]any `mapstructure:"writer" yaml:"writer,omitempty"`
}
