package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"uwc/pkg/contract"
)

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），以表格输出到 stdout；
// - 组件名采用仓库内置实现；
// - 选项给出所有键与中性默认值，便于按需修改。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Counters = strings.Split(contract.DefaultSelection.String(), ",")
	cfg.Options = Options{
		Reader: map[string]any{
			"buf_size":          65536,
			"recursive":         false,
			"exclude_dir_names": []string{".git", "node_modules", "vendor"},
		},
		Splitter: map[string]any{
			"block_size": 65536,
		},
		Writer: map[string]any{
			"output_path": "",
			"no_elastic":  false,
			"no_header":   false,
		},
	}
	return cfg
}

// MarshalTemplate 以 YAML 编码默认模板。
func MarshalTemplate() ([]byte, error) {
	return yaml.Marshal(DefaultTemplateConfig())
}

// WriteTemplate 在 dir 下写出 uwc.yaml；文件已存在时返回 fs.ErrExist，不覆盖。
func WriteTemplate(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	b, err := MarshalTemplate()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName+".yaml")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return path, fmt.Errorf("%s: %w", path, fs.ErrExist)
		}
		return path, err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return path, err
	}
	return path, f.Close()
}
