package mock

import (
	"unicode"
	"unicode/utf8"

	"uwc/pkg/contract"
)

// Oracle: 确定性的简化边界判定，仅用于测试与离线联调。
// 规则：
//   - 行边界：仅 '\n' 之后；
//   - 分词：空格与 '\n' 各自成为独立的非 word 片段，其余连续字节为一段；
//   - 字素：每个码点一个簇（不处理组合序列）。
type Oracle struct{}

// New 创建 mock Oracle。
func New() *Oracle { return &Oracle{} }

func (o *Oracle) LineBreaks(text string) []int {
	var out []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, i+1)
		}
	}
	return out
}

func (o *Oracle) WordBoundaries(text string) []contract.Token {
	var out []contract.Token
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, contract.Token{Start: start, End: end, WordLike: hasAlnum(text[start:end])})
			start = -1
		}
	}
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\n' {
			flush(i)
			out = append(out, contract.Token{Start: i, End: i + 1})
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))
	return out
}

func (o *Oracle) GraphemeBoundaries(text string) []int {
	out := make([]int, 0, utf8.RuneCountInString(text))
	for i := range text {
		out = append(out, i)
	}
	return out
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

var _ contract.Oracle = (*Oracle)(nil)
