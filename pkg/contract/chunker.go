package contract

import "context"

// DefaultChunkSize: 每块默认行数。
const DefaultChunkSize = 10000

// ChunkIterator: 有序 Chunk 序列；结束时返回 io.EOF。
type ChunkIterator interface {
	Next() (Chunk, error)
}

// Chunker: 将行序列分组为至多 size 行的有序 Chunk。
// 约束：
//  1. 不拆分行，不重排、不丢失；
//  2. Index 自 0 严格递增，FirstLine 与首行 Ordinal 一致；
//  3. size 仅影响性能，不得改变最终报告；
//  4. 上游错误原样上抛。
type Chunker interface {
	Chunks(ctx context.Context, lines LineIterator, size int) ChunkIterator
}
