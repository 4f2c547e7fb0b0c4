package contract

import (
	"context"
	"io"
)

// LineIterator: 惰性、只可消费一次的行序列。
// Next 在结束时返回 io.EOF；读取失败返回包装 ErrStreamRead 的错误，此后持续返回同一错误。
type LineIterator interface {
	Next() (LineRecord, error)
}

// Splitter: 将单个输入字节流拆分为有序 LineRecord 序列。
// 约束：
// 1) 独占底层读游标，不跨输入合并；
// 2) Ordinal 自 1 严格递增；
// 3) 不改变文本（终止符保留在 Text 中）；
// 4) 无内部并发；
// 5) I/O 失败直接上抛，不重试、不恢复。
type Splitter interface {
	Split(ctx context.Context, fileID FileID, r io.Reader) LineIterator
}
