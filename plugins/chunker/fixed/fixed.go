package fixed

import (
	"context"
	"errors"
	"io"

	"uwc/pkg/contract"
)

// Chunker 按固定行数切分行序列。无状态，可被多个输入复用。
type Chunker struct{}

// New 创建固定行数 Chunker。
func New() *Chunker { return &Chunker{} }

// Chunks 返回惰性 Chunk 迭代器；size<=0 时使用 contract.DefaultChunkSize。
// 每次 Next 消费行直到凑满 size 行或上游结束，因此慢速流在凑满前不可见进度。
func (c *Chunker) Chunks(ctx context.Context, lines contract.LineIterator, size int) contract.ChunkIterator {
	if size <= 0 {
		size = contract.DefaultChunkSize
	}
	return &chunks{ctx: ctx, lines: lines, size: size}
}

type chunks struct {
	ctx   context.Context
	lines contract.LineIterator
	size  int
	index int64
	done  bool
	err   error
}

func (it *chunks) Next() (contract.Chunk, error) {
	if it.err != nil {
		return contract.Chunk{}, it.err
	}
	if it.done {
		return contract.Chunk{}, io.EOF
	}
	if err := it.ctx.Err(); err != nil {
		it.err = err
		return contract.Chunk{}, err
	}
	// 行数少时不预分配满额，避免小输入配大块时的浪费
	buf := make([]contract.LineRecord, 0, min(it.size, 1024))
	for len(buf) < it.size {
		rec, err := it.lines.Next()
		if errors.Is(err, io.EOF) {
			it.done = true
			break
		}
		if err != nil {
			// 上游错误原样上抛；已读取的残块丢弃
			it.err = err
			return contract.Chunk{}, err
		}
		buf = append(buf, rec)
	}
	if len(buf) == 0 {
		return contract.Chunk{}, io.EOF
	}
	ch := contract.Chunk{Index: it.index, FirstLine: buf[0].Ordinal, Lines: buf}
	it.index++
	return ch, nil
}

var _ contract.Chunker = (*Chunker)(nil)
