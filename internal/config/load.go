package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"uwc/internal/diag"
	"uwc/pkg/contract"
)

// EnvPrefix: 环境变量前缀（UWC_CHUNK_SIZE、UWC_LOGGING_LEVEL ...）。
const EnvPrefix = "UWC"

// FileName: 未显式指定 --config 时搜索的配置文件名（不含扩展名）。
const FileName = "uwc"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Inputs:    []string{"-"},
		Counters:  []string{},
		Mode:      string(contract.ModeTotal),
		ChunkSize: contract.DefaultChunkSize,
		Logging: Logging{
			Level:    "warn",
			Format:   "console",
			MaxBytes: diag.DefaultRotateBytes,
		},
		Components: Components{
			Reader:   "fs",
			Splitter: "linebreak",
			Chunker:  "fixed",
			Oracle:   "uniseg",
			Writer:   "table",
		},
	}
}

// NewViper 返回已登记全部键默认值、绑定 UWC_ 环境变量的 viper 实例。
// 每个键都需有默认值，AutomaticEnv 才会在 Unmarshal 时生效。
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, Defaults())
	return v
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("inputs", d.Inputs)
	v.SetDefault("counters", d.Counters)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("count_final_unterminated_line", d.CountFinalUnterminatedLine)
	v.SetDefault("count_trailing_newlines_only", d.CountTrailingNewlinesOnly)
	v.SetDefault("status", d.Status)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_bytes", d.Logging.MaxBytes)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("components.reader", d.Components.Reader)
	v.SetDefault("components.splitter", d.Components.Splitter)
	v.SetDefault("components.chunker", d.Components.Chunker)
	v.SetDefault("components.oracle", d.Components.Oracle)
	v.SetDefault("components.writer", d.Components.Writer)
}

// Load 读取配置文件（path 为空时在搜索路径中查找 uwc.yaml，找不到不算错误），
// 再与默认值、环境变量及已绑定的 flag 合并，严格解码为 Config。
// 返回实际使用的配置文件路径（未使用时为空）。
func Load(v *viper.Viper, path string) (Config, string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}
	used := ""
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return Config{}, "", fmt.Errorf("%w: read config: %w", contract.ErrInvalidInput, err)
		}
	} else {
		used = v.ConfigFileUsed()
	}
	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, used, fmt.Errorf("%w: decode config: %w", contract.ErrInvalidInput, err)
	}
	return cfg, used, nil
}

// searchPaths: 当前目录优先，其次 $HOME/.config/uwc。
func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "uwc"))
	}
	return paths
}

// LogOptions 将 logging 段转换为日志器配置。
func (c Config) LogOptions() diag.LogOptions {
	return diag.LogOptions{
		Level:    c.Logging.Level,
		Format:   c.Logging.Format,
		File:     c.Logging.File,
		MaxBytes: c.Logging.MaxBytes,
	}
}
