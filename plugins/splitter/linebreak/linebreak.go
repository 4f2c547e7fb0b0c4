package linebreak

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"uwc/pkg/contract"
)

// DefaultBlockSize: 单次读取的块大小。
const DefaultBlockSize = 64 * 1024

// Options 为行拆分器的可选配置（最小必要）。
type Options struct {
	// BlockSize: 单次 Read 的字节数。<=0 使用 DefaultBlockSize。
	// 仅影响读取节奏，不影响拆分结果。
	BlockSize int `mapstructure:"block_size"`
}

// Splitter 依据 Oracle 的行边界将字节流拆分为 LineRecord。
type Splitter struct {
	oracle contract.Oracle
	block  int
}

// New 创建行拆分器；oracle 不可为 nil。
func New(oracle contract.Oracle, opts *Options) *Splitter {
	b := DefaultBlockSize
	if opts != nil && opts.BlockSize > 0 {
		b = opts.BlockSize
	}
	return &Splitter{oracle: oracle, block: b}
}

// Split 返回惰性迭代器；读取只在 Next 时发生。
func (s *Splitter) Split(ctx context.Context, fileID contract.FileID, r io.Reader) contract.LineIterator {
	return &lines{ctx: ctx, fileID: fileID, r: r, oracle: s.oracle, block: s.block, next: 1}
}

// lines 独占底层读游标。
// buf 保存尚未成行的字节；buf[:scanned] 已确认不含新的边界。
type lines struct {
	ctx    context.Context
	fileID contract.FileID
	r      io.Reader
	oracle contract.Oracle
	block  int

	buf     []byte
	scanned int
	ready   []contract.LineRecord
	head    int
	next    int64
	eof     bool
	err     error
}

func (it *lines) Next() (contract.LineRecord, error) {
	for {
		if it.head < len(it.ready) {
			rec := it.ready[it.head]
			it.ready[it.head] = contract.LineRecord{}
			it.head++
			return rec, nil
		}
		it.ready, it.head = it.ready[:0], 0
		if it.err != nil {
			return contract.LineRecord{}, it.err
		}
		if it.eof {
			it.err = io.EOF
			return contract.LineRecord{}, io.EOF
		}
		it.fill()
	}
}

// fill 读取一个块并切出其中所有完整行。
func (it *lines) fill() {
	if err := it.ctx.Err(); err != nil {
		it.err = err
		return
	}
	old := len(it.buf)
	if cap(it.buf)-old < it.block {
		nb := make([]byte, old, 2*cap(it.buf)+it.block)
		copy(nb, it.buf)
		it.buf = nb
	}
	n, err := it.r.Read(it.buf[old : old+it.block])
	it.buf = it.buf[:old+n]
	if err != nil {
		if !errors.Is(err, io.EOF) {
			// 不重试、不产出残余行
			it.err = fmt.Errorf("%w: %s: %w", contract.ErrStreamRead, it.fileID, err)
			it.buf = nil
			return
		}
		it.eof = true
	}
	if n == 0 && !it.eof {
		return
	}
	it.cut()
}

func (it *lines) cut() {
	from := it.scanned
	start := 0
	for _, b := range it.oracle.LineBreaks(string(it.buf[from:])) {
		end := from + b
		// 块尾的 CR 可能与下一块开头的 LF 组成 CRLF，留待下次判定
		if end == len(it.buf) && !it.eof && it.buf[end-1] == '\r' {
			break
		}
		it.emit(string(it.buf[start:end]), true)
		start = end
	}
	if start > 0 {
		it.buf = append(it.buf[:0], it.buf[start:]...)
	}
	if it.eof {
		if len(it.buf) > 0 {
			it.emit(string(it.buf), false)
		}
		it.buf, it.scanned = nil, 0
		return
	}
	it.scanned = lastRuneStart(it.buf)
}

func (it *lines) emit(text string, terminated bool) {
	it.ready = append(it.ready, contract.LineRecord{Ordinal: it.next, Text: text, Terminated: terminated})
	it.next++
}

// lastRuneStart 返回 b 中最后一个码点（可能不完整）的起始偏移。
func lastRuneStart(b []byte) int {
	i := len(b) - 1
	for lim := len(b) - utf8.UTFMax; i > 0 && i > lim && !utf8.RuneStart(b[i]); i-- {
	}
	if i < 0 {
		return 0
	}
	return i
}

var _ contract.Splitter = (*Splitter)(nil)
