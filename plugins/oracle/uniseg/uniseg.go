package uniseg

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"uwc/pkg/contract"
)

// 行终止符集合（均为单个字素簇；CRLF 为一个簇）。
const (
	lf   = "\n"
	cr   = "\r"
	crlf = "\r\n"
	nel  = "\u0085"
	ff   = "\u000C"
	ls   = "\u2028"
	ps   = "\u2029"
)

// IsTerminator 判断字素簇是否为行终止符。
func IsTerminator(cluster string) bool {
	switch cluster {
	case lf, cr, crlf, nel, ff, ls, ps:
		return true
	}
	return false
}

// Oracle 基于 github.com/rivo/uniseg 的 UAX #29 实现边界判定。
// 无状态，可被多个 worker 并发使用。
type Oracle struct{}

// New 创建 uniseg Oracle。
func New() *Oracle { return &Oracle{} }

// LineBreaks 以字素簇为单位扫描，终止符簇之后即为换行边界。
func (o *Oracle) LineBreaks(text string) []int {
	var out []int
	pos, state := 0, -1
	for len(text) > 0 {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		pos += len(cluster)
		if IsTerminator(cluster) {
			out = append(out, pos)
		}
	}
	return out
}

// WordBoundaries 返回 UAX #29 分词片段；含字母或数字的片段视为 word-like。
func (o *Oracle) WordBoundaries(text string) []contract.Token {
	var out []contract.Token
	pos, state := 0, -1
	for len(text) > 0 {
		var word string
		word, text, state = uniseg.FirstWordInString(text, state)
		out = append(out, contract.Token{Start: pos, End: pos + len(word), WordLike: wordLike(word)})
		pos += len(word)
	}
	return out
}

// GraphemeBoundaries 返回每个扩展字素簇的起始偏移。
func (o *Oracle) GraphemeBoundaries(text string) []int {
	out := make([]int, 0, utf8.RuneCountInString(text))
	pos, state := 0, -1
	for len(text) > 0 {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		out = append(out, pos)
		pos += len(cluster)
	}
	return out
}

func wordLike(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

var _ contract.Oracle = (*Oracle)(nil)
