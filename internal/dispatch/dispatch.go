// Package dispatch 在有界 goroutine 池上对 Chunk 序列执行逐行计数映射。
//
// 每个 Chunk 整体移交给一个任务独占处理，任务之间不共享可变状态；
// 结果以批（每 Chunk 一批）经由通道交给唯一的合并方。
package dispatch

import (
	"context"
	"errors"
	"io"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"uwc/pkg/contract"
)

// CountFunc: 单行计数函数，须为纯函数且可并发调用。
type CountFunc func(contract.LineRecord) contract.CountSet

// Stats: 已派发的工作量。
type Stats struct {
	Chunks int64
	Lines  int64
}

// Dispatcher 持有并发度与可选的进度回调。
type Dispatcher struct {
	// Workers: 最大并发任务数；<=0 使用 GOMAXPROCS。
	Workers int
	// OnChunk: 每个 Chunk 提交前调用（同一 goroutine，按块序）；可为 nil。
	OnChunk func(index int64, lines int)
}

// New 创建 Dispatcher。
func New(workers int) *Dispatcher { return &Dispatcher{Workers: workers} }

// Concurrency 返回实际生效的并发度。
func (d *Dispatcher) Concurrency() int {
	if d == nil || d.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return d.Workers
}

// Run 消费 chunks，直到 io.EOF 或出错，并等待所有已提交任务结束。
// 约束：
//  1. 池满时提交阻塞（背压），因此同时在途的 Chunk 至多 Workers 个；
//  2. 每个 PartialResult 带 (Chunk, Offset, Line) 标签，完成顺序不作保证；
//  3. Chunk 源出错时停止提交，已提交任务照常完成后返回该错误；
//  4. 不关闭 out，由调用方在 Run 返回后关闭。
func (d *Dispatcher) Run(ctx context.Context, chunks contract.ChunkIterator, fn CountFunc, out chan<- []contract.PartialResult) (Stats, error) {
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(d.Concurrency())

	var st Stats
	var srcErr error
	for {
		ch, err := chunks.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			srcErr = err
			break
		}
		if d != nil && d.OnChunk != nil {
			d.OnChunk(ch.Index, len(ch.Lines))
		}
		st.Chunks++
		st.Lines += int64(len(ch.Lines))
		p.Go(func(ctx context.Context) error {
			return countChunk(ctx, ch, fn, out)
		})
	}
	werr := p.Wait()
	if srcErr != nil {
		return st, srcErr
	}
	return st, werr
}

// countChunk 顺序计数块内各行并一次性发送结果。
func countChunk(ctx context.Context, ch contract.Chunk, fn CountFunc, out chan<- []contract.PartialResult) error {
	res := make([]contract.PartialResult, len(ch.Lines))
	for i, rec := range ch.Lines {
		res[i] = contract.PartialResult{
			Chunk:  ch.Index,
			Offset: i,
			Line:   ch.FirstLine + int64(i),
			Counts: fn(rec),
		}
	}
	if !trySend(ctx, res, out) {
		return ctx.Err()
	}
	return nil
}

// trySend 在 ctx 取消时放弃发送。
func trySend[T any](ctx context.Context, msg T, ch chan<- T) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case ch <- msg:
		return true
	}
}
