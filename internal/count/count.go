// Package count 实现单行计数：纯函数，不持有跨行状态。
package count

import (
	"unicode/utf8"

	"uwc/pkg/contract"
)

// Policy: 行终止符计数策略。
type Policy struct {
	// CountFinalUnterminated: 末行缺少终止符时仍按一行计数（逻辑行语义）。
	CountFinalUnterminated bool
	// TrailingNewlinesOnly: 仅计终止符本身（字面换行语义）；为 true 时忽略 CountFinalUnterminated。
	TrailingNewlinesOnly bool
}

// Counter 计算单个 LineRecord 的 CountSet。
// 并发安全的前提是 Oracle 本身无状态。
type Counter struct {
	Sel    contract.Selection
	Policy Policy
	Oracle contract.Oracle
}

// New 构造 Counter；sel 为 0 时使用默认选择集。
func New(sel contract.Selection, p Policy, o contract.Oracle) *Counter {
	if sel == 0 {
		sel = contract.DefaultSelection
	}
	return &Counter{Sel: sel, Policy: p, Oracle: o}
}

// Count 计算一行的计数。只有被选中的计数器会调用 Oracle。
func (c *Counter) Count(rec contract.LineRecord) contract.CountSet {
	cs := contract.NewCountSet(c.Sel)
	if c.Sel.Has(contract.Lines) {
		cs.Set(contract.Lines, c.lines(rec))
	}
	if rec.Text == "" {
		return cs
	}
	if c.Sel.Has(contract.Bytes) {
		cs.Set(contract.Bytes, int64(len(rec.Text)))
	}
	if c.Sel.Has(contract.CodePoints) {
		cs.Set(contract.CodePoints, int64(utf8.RuneCountInString(rec.Text)))
	}
	if c.Sel.Has(contract.Graphemes) {
		cs.Set(contract.Graphemes, int64(len(c.Oracle.GraphemeBoundaries(rec.Text))))
	}
	if c.Sel.Has(contract.Words) {
		var n int64
		for _, tok := range c.Oracle.WordBoundaries(rec.Text) {
			if tok.WordLike {
				n++
			}
		}
		cs.Set(contract.Words, n)
	}
	return cs
}

// lines 仅末行可能无终止符，因此 Terminated=false 即意味着“流的最后一行”。
func (c *Counter) lines(rec contract.LineRecord) int64 {
	switch {
	case rec.Terminated:
		return 1
	case rec.Text == "":
		return 0
	case c.Policy.CountFinalUnterminated && !c.Policy.TrailingNewlinesOnly:
		return 1
	default:
		return 0
	}
}
