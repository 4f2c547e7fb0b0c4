package pipeline

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"uwc/internal/count"
	"uwc/internal/dispatch"
	"uwc/internal/merge"
	"uwc/pkg/contract"
)

// Engine 对单个输入执行 流 → 行 → 块 → 逐行计数 → 归并。
// 可被多个输入顺序复用；不持有跨输入状态。
type Engine struct {
	Splitter   contract.Splitter
	Chunker    contract.Chunker
	Counter    *count.Counter
	Dispatcher *dispatch.Dispatcher
	Mode       contract.Mode
	// ChunkSize: 每块行数；<=0 使用 contract.DefaultChunkSize。只影响性能。
	ChunkSize int
}

// CountStream 计数单个字节流并返回报告。
// 约束：
//  1. 拆分与组块在派发 goroutine 内串行进行，计数在有界池中并行；
//  2. 合并由唯一的消费 goroutine 完成，完成顺序不影响结果；
//  3. 读失败返回包装 ErrStreamRead 的错误，不产出部分报告；
//  4. 合并不变量失败返回 ErrInvariantViolation。
func (e *Engine) CountStream(ctx context.Context, fileID contract.FileID, r io.Reader) (contract.Report, dispatch.Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	lines := e.Splitter.Split(gctx, fileID, r)
	chunks := e.Chunker.Chunks(gctx, lines, e.ChunkSize)
	m := merge.New(e.Mode, e.Counter.Sel)
	out := make(chan []contract.PartialResult, e.Dispatcher.Concurrency())

	var st dispatch.Stats
	g.Go(func() error {
		defer close(out)
		s, err := e.Dispatcher.Run(gctx, chunks, e.Counter.Count, out)
		st = s
		return err
	})
	g.Go(func() error {
		for batch := range out {
			if err := m.Add(batch...); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return contract.Report{}, st, err
	}
	rep, err := m.Finish(st.Lines)
	return rep, st, err
}
