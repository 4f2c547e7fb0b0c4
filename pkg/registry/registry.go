package registry

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"uwc/pkg/contract"
	fchunk "uwc/plugins/chunker/fixed"
	omock "uwc/plugins/oracle/mock"
	ouni "uwc/plugins/oracle/uniseg"
	rfs "uwc/plugins/reader/filesystem"
	slb "uwc/plugins/splitter/linebreak"
	wfs "uwc/plugins/writer/filesystem"
	wjsonl "uwc/plugins/writer/jsonl"
	wtable "uwc/plugins/writer/table"
)

// strictDecode: 将配置段（viper 产出的 map）严格解码到 Options，拒绝未知字段。
func strictDecode(raw map[string]any, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           v,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %w", contract.ErrInvalidInput, err)
	}
	return nil
}

// NewReader 工厂签名：接收原样配置段。
type NewReader func(raw map[string]any) (contract.Reader, error)

// NewOracle 工厂签名。Oracle 无选项，非空配置段视为错误。
type NewOracle func(raw map[string]any) (contract.Oracle, error)

// NewSplitter 工厂签名：Splitter 依赖已装配的 Oracle。
type NewSplitter func(raw map[string]any, oracle contract.Oracle) (contract.Splitter, error)

// NewChunker 工厂签名。
type NewChunker func(raw map[string]any) (contract.Chunker, error)

// NewWriter 工厂签名：stdout 为未配置 output_path 时的默认输出。
type NewWriter func(raw map[string]any, stdout io.Writer) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/通配/目录/STDIN Reader
	"fs": func(raw map[string]any) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictDecode(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Oracle 工厂注册表。
var Oracle = map[string]NewOracle{
	// uniseg: UAX #29 字素/单词边界
	"uniseg": func(raw map[string]any) (contract.Oracle, error) {
		if err := strictDecode(raw, &struct{}{}); err != nil {
			return nil, err
		}
		return ouni.New(), nil
	},
	// mock: 确定性的 ASCII 边界（测试与替身）
	"mock": func(raw map[string]any) (contract.Oracle, error) {
		if err := strictDecode(raw, &struct{}{}); err != nil {
			return nil, err
		}
		return omock.New(), nil
	},
}

// Splitter 工厂注册表。
var Splitter = map[string]NewSplitter{
	// linebreak: 按七种行终止符拆分
	"linebreak": func(raw map[string]any, oracle contract.Oracle) (contract.Splitter, error) {
		var opts slb.Options
		if err := strictDecode(raw, &opts); err != nil {
			return nil, err
		}
		if opts.BlockSize < 0 {
			return nil, fmt.Errorf("%w: block_size must be >= 0", contract.ErrInvalidInput)
		}
		return slb.New(oracle, &opts), nil
	},
}

// Chunker 工厂注册表。
var Chunker = map[string]NewChunker{
	// fixed: 固定行数分块
	"fixed": func(raw map[string]any) (contract.Chunker, error) {
		if err := strictDecode(raw, &struct{}{}); err != nil {
			return nil, err
		}
		return fchunk.New(), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// table: 制表符分隔的文本报告（默认）
	"table": func(raw map[string]any, stdout io.Writer) (contract.Writer, error) {
		var opts wtable.Options
		if err := strictDecode(raw, &opts); err != nil {
			return nil, err
		}
		return wtable.New(&opts, stdout)
	},
	// jsonl: 每个输入一行 JSON
	"jsonl": func(raw map[string]any, stdout io.Writer) (contract.Writer, error) {
		var opts wjsonl.Options
		if err := strictDecode(raw, &opts); err != nil {
			return nil, err
		}
		return wjsonl.New(&opts, stdout)
	},
	// dir: 每个输入一个 JSON 报告文件，外加汇总文件
	"dir": func(raw map[string]any, _ io.Writer) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictDecode(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}

// Names 返回注册表的键（升序），用于校验提示与模板。
func Names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
