package contract

import (
	"fmt"
	"strings"
)

// FileID: 逻辑输入标识（通常为路径，需规范化；STDIN 固定为 "-"）。
type FileID string

// StdinID: STDIN 的固定 FileID。
const StdinID FileID = "-"

// LineRecord: 单行原文及其终止符标记。
// 约束：
// - Ordinal 自 1 起严格递增（文件内全局行号）；
// - Text 包含终止符字节（若存在），字节/码点计数据此计入终止符；
// - 仅文件最后一行允许 Terminated=false。
type LineRecord struct {
	Ordinal    int64
	Text       string
	Terminated bool
}

// Chunk: 连续、无重叠的整行片段，作为一个并行工作单元。
// 约束：按 Index 顺序拼接所有 Chunk 的 Lines 恰好还原原始行序列一次；
// 边界总与行边界对齐，不在行中间切分。
type Chunk struct {
	// Index: 文件内的块序（0..n-1，严格递增）。
	Index int64
	// FirstLine: 首行 Ordinal。
	FirstLine int64
	Lines     []LineRecord
}

// PartialResult: 单行计数结果，附带足以在合并阶段恢复全局顺序的标签。
type PartialResult struct {
	Chunk  int64 // 所属 Chunk.Index
	Offset int   // 块内行序（0 起）
	Line   int64 // 全局行号（= Chunk.FirstLine + Offset）
	Counts CountSet
}

// Mode: 报告形态。
type Mode string

const (
	// ModeTotal: 每个输入仅产出一个合计 CountSet。
	ModeTotal Mode = "total"
	// ModeLine: 每行一个 CountSet，末尾追加合计。
	ModeLine Mode = "line"
)

// ParseMode 解析报告形态（大小写不敏感）；空串视为 total。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeTotal):
		return ModeTotal, nil
	case string(ModeLine), "lines":
		return ModeLine, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
}

// LineCount: 行模式下的一行输出。
type LineCount struct {
	Line   int64    `json:"line"`
	Counts CountSet `json:"counts"`
}

// Report: 单个输入的最终结果。
// total 模式下 Lines 为 nil；line 模式下 Lines 按 Line 严格升序，Total 为同一套加法的合计。
type Report struct {
	Mode  Mode        `json:"mode"`
	Lines []LineCount `json:"lines,omitempty"`
	Total CountSet    `json:"total"`
}

// Summary: 多输入运行的汇总（供 Writer 收尾输出）。
type Summary struct {
	Files  int      `json:"files"`  // 成功计数的输入数
	Failed int      `json:"failed"` // 读取/打开失败的输入数
	Total  CountSet `json:"total"`  // 所有成功输入的合计
}
