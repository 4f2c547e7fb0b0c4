package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Counter: 可计数的单位。数值即展示顺序。
type Counter uint8

const (
	Lines Counter = iota
	Words
	Bytes
	Graphemes
	CodePoints

	numCounters
)

// AllCounters 按展示顺序列出全部计数器。
var AllCounters = [numCounters]Counter{Lines, Words, Bytes, Graphemes, CodePoints}

var counterNames = [numCounters]string{"lines", "words", "bytes", "graphemes", "codepoints"}

func (c Counter) String() string {
	if c < numCounters {
		return counterNames[c]
	}
	return "counter(" + strconv.Itoa(int(c)) + ")"
}

// ParseCounter 按名称解析计数器；接受少量别名（如 chars/grapheme-clusters）。
func ParseCounter(name string) (Counter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lines", "line", "l":
		return Lines, nil
	case "words", "word", "w":
		return Words, nil
	case "bytes", "byte", "b":
		return Bytes, nil
	case "graphemes", "grapheme", "grapheme-clusters", "chars", "c":
		return Graphemes, nil
	case "codepoints", "codepoint", "runes", "p":
		return CodePoints, nil
	}
	return 0, fmt.Errorf("%w: unknown counter %q", ErrInvalidInput, name)
}

// Selection: 计数器选择位集。
type Selection uint8

// DefaultSelection: 未显式选择时的默认集合（lines, words, bytes）。
const DefaultSelection = Selection(1<<Lines | 1<<Words | 1<<Bytes)

// AllSelection: 选中全部计数器。
const AllSelection = Selection(1<<numCounters - 1)

// Select 由计数器列表构造选择集。
func Select(cs ...Counter) Selection {
	var s Selection
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

// ParseSelection 由名称列表构造选择集；空列表返回 DefaultSelection。
func ParseSelection(names []string) (Selection, error) {
	var s Selection
	for _, n := range names {
		// 允许 "lines,words" 形式
		for _, part := range strings.Split(n, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := ParseCounter(part)
			if err != nil {
				return 0, err
			}
			s = s.With(c)
		}
	}
	if s == 0 {
		return DefaultSelection, nil
	}
	return s, nil
}

func (s Selection) With(c Counter) Selection { return s | 1<<c }

func (s Selection) Has(c Counter) bool { return c < numCounters && s&(1<<c) != 0 }

// Counters 以展示顺序返回被选中的计数器。
func (s Selection) Counters() []Counter {
	out := make([]Counter, 0, numCounters)
	for _, c := range AllCounters {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s Selection) String() string {
	cs := s.Counters()
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// CountSet: 一组按选择集填充的计数。
// 不变量：被填充的字段恰为 Sel；同一次运行内所有行与合计共享同一 Sel。
type CountSet struct {
	Sel Selection
	v   [numCounters]int64
}

// NewCountSet 返回选择集为 sel、各项为 0 的 CountSet。
func NewCountSet(sel Selection) CountSet { return CountSet{Sel: sel} }

// Get 返回计数值；未选中时 ok=false。
func (cs CountSet) Get(c Counter) (n int64, ok bool) {
	if !cs.Sel.Has(c) {
		return 0, false
	}
	return cs.v[c], true
}

// Set 写入计数；未选中的计数器被忽略。
func (cs *CountSet) Set(c Counter, n int64) {
	if cs.Sel.Has(c) {
		cs.v[c] = n
	}
}

// Add 返回两者逐项之和。选择集不一致视为不变量违例。
func (cs CountSet) Add(o CountSet) (CountSet, error) {
	if cs.Sel != o.Sel {
		return cs, fmt.Errorf("%w: count set selection mismatch (%s vs %s)", ErrInvariantViolation, cs.Sel, o.Sel)
	}
	for i := range cs.v {
		cs.v[i] += o.v[i]
	}
	return cs, nil
}

// Values 以展示顺序返回被选中计数器的值。
func (cs CountSet) Values() []int64 {
	out := make([]int64, 0, numCounters)
	for _, c := range AllCounters {
		if cs.Sel.Has(c) {
			out = append(out, cs.v[c])
		}
	}
	return out
}

// MarshalJSON 仅输出被选中的计数器，键序与展示顺序一致。
func (cs CountSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, c := range AllCounters {
		if !cs.Sel.Has(c) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(strconv.Quote(c.String()))
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(cs.v[c], 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 根据出现的键重建选择集。
func (cs *CountSet) UnmarshalJSON(b []byte) error {
	var m map[string]int64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := CountSet{}
	for k, n := range m {
		c, err := ParseCounter(k)
		if err != nil {
			return err
		}
		out.Sel = out.Sel.With(c)
		out.v[c] = n
	}
	*cs = out
	return nil
}
