// Package merge 将无序到达的 PartialResult 归并为确定的 Report。
package merge

import (
	"cmp"
	"fmt"
	"math/bits"
	"slices"

	"uwc/pkg/contract"
)

// Merger 非并发安全：由唯一的消费 goroutine 调用 Add，最后调用 Finish。
//
// total 模式只保留累加和与一个“已见行”位集；line 模式保留全部结果以便排序。
type Merger struct {
	mode  contract.Mode
	sel   contract.Selection
	total contract.CountSet
	seen  []uint64
	n     int64
	parts []contract.PartialResult
	err   error
}

// New 创建指定报告形态与计数器选择的 Merger。
func New(mode contract.Mode, sel contract.Selection) *Merger {
	return &Merger{mode: mode, sel: sel, total: contract.NewCountSet(sel)}
}

// Add 吸收一批结果。出现重复行号、非法标签或选择集不一致时返回 ErrInvariantViolation，
// 此后 Merger 保持失败状态。
func (m *Merger) Add(batch ...contract.PartialResult) error {
	if m.err != nil {
		return m.err
	}
	for _, pr := range batch {
		if err := m.add(pr); err != nil {
			m.err = err
			return err
		}
	}
	return nil
}

func (m *Merger) add(pr contract.PartialResult) error {
	if pr.Line < 1 || pr.Chunk < 0 || pr.Offset < 0 {
		return fmt.Errorf("%w: bad tag chunk=%d offset=%d line=%d", contract.ErrInvariantViolation, pr.Chunk, pr.Offset, pr.Line)
	}
	if pr.Counts.Sel != m.sel {
		return fmt.Errorf("%w: line %d selection %s, want %s", contract.ErrInvariantViolation, pr.Line, pr.Counts.Sel, m.sel)
	}
	w, b := (pr.Line-1)/64, uint64(1)<<((pr.Line-1)%64)
	for int64(len(m.seen)) <= w {
		m.seen = append(m.seen, 0)
	}
	if m.seen[w]&b != 0 {
		return fmt.Errorf("%w: duplicate result for line %d", contract.ErrInvariantViolation, pr.Line)
	}
	m.seen[w] |= b
	m.n++
	sum, err := m.total.Add(pr.Counts)
	if err != nil {
		return err
	}
	m.total = sum
	if m.mode == contract.ModeLine {
		m.parts = append(m.parts, pr)
	}
	return nil
}

// Finish 校验恰好收到行 1..expectedLines 各一次并产出报告。
// line 模式按 (Chunk, Offset) 排序，再验证行号连续。
func (m *Merger) Finish(expectedLines int64) (contract.Report, error) {
	if m.err != nil {
		return contract.Report{}, m.err
	}
	if m.n != expectedLines || !m.dense(expectedLines) {
		return contract.Report{}, fmt.Errorf("%w: got %d results for %d lines", contract.ErrInvariantViolation, m.n, expectedLines)
	}
	rep := contract.Report{Mode: m.mode, Total: m.total}
	if m.mode != contract.ModeLine {
		return rep, nil
	}
	slices.SortFunc(m.parts, func(a, b contract.PartialResult) int {
		if a.Chunk != b.Chunk {
			return cmp.Compare(a.Chunk, b.Chunk)
		}
		return a.Offset - b.Offset
	})
	rep.Lines = make([]contract.LineCount, len(m.parts))
	for i, pr := range m.parts {
		if pr.Line != int64(i+1) {
			return contract.Report{}, fmt.Errorf("%w: line %d sorted at position %d", contract.ErrInvariantViolation, pr.Line, i+1)
		}
		rep.Lines[i] = contract.LineCount{Line: pr.Line, Counts: pr.Counts}
	}
	m.parts = nil
	return rep, nil
}

// dense 报告位集是否恰为前 n 位全置。
func (m *Merger) dense(n int64) bool {
	var c int64
	for _, w := range m.seen {
		c += int64(bits.OnesCount64(w))
	}
	if c != n {
		return false
	}
	return n == 0 || int64(len(m.seen)) == (n+63)/64 && (n%64 == 0 || m.seen[len(m.seen)-1]>>(n%64) == 0)
}
