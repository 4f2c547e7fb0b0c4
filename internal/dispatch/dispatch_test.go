package dispatch

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"uwc/pkg/contract"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sliceChunks struct {
	chunks []contract.Chunk
	tail   error
}

func (s *sliceChunks) Next() (contract.Chunk, error) {
	if len(s.chunks) == 0 {
		if s.tail != nil {
			return contract.Chunk{}, s.tail
		}
		return contract.Chunk{}, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

// mkChunks 生成 n 个块，每块 per 行，行文本长度为全局行号。
func mkChunks(n, per int) []contract.Chunk {
	out := make([]contract.Chunk, n)
	var ord int64 = 1
	for i := range out {
		ch := contract.Chunk{Index: int64(i), FirstLine: ord}
		for j := 0; j < per; j++ {
			ch.Lines = append(ch.Lines, contract.LineRecord{Ordinal: ord, Text: string(make([]byte, ord)), Terminated: true})
			ord++
		}
		out[i] = ch
	}
	return out
}

func byteCount(rec contract.LineRecord) contract.CountSet {
	cs := contract.NewCountSet(contract.Select(contract.Bytes))
	cs.Set(contract.Bytes, int64(len(rec.Text)))
	return cs
}

// collectAll 在独立 goroutine 中收集结果，返回等待函数。
func collectAll(out chan []contract.PartialResult) func() []contract.PartialResult {
	var (
		wg  sync.WaitGroup
		all []contract.PartialResult
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for batch := range out {
			all = append(all, batch...)
		}
	}()
	return func() []contract.PartialResult {
		wg.Wait()
		return all
	}
}

// TestRunTagsEveryLine 每行恰好一个结果，标签可还原全局顺序。
func TestRunTagsEveryLine(t *testing.T) {
	out := make(chan []contract.PartialResult)
	wait := collectAll(out)
	st, err := New(4).Run(context.Background(), &sliceChunks{chunks: mkChunks(17, 3)}, byteCount, out)
	close(out)
	require.NoError(t, err)
	assert.Equal(t, Stats{Chunks: 17, Lines: 51}, st)

	all := wait()
	require.Len(t, all, 51)
	sort.Slice(all, func(i, j int) bool { return all[i].Line < all[j].Line })
	for i, pr := range all {
		assert.Equal(t, int64(i+1), pr.Line)
		assert.Equal(t, int64(i/3), pr.Chunk)
		assert.Equal(t, i%3, pr.Offset)
		n, _ := pr.Counts.Get(contract.Bytes)
		assert.Equal(t, pr.Line, n)
	}
}

// TestRunBounded 同时执行的任务数不超过 Workers。
func TestRunBounded(t *testing.T) {
	var cur, peak atomic.Int64
	fn := func(rec contract.LineRecord) contract.CountSet {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		cur.Add(-1)
		return byteCount(rec)
	}
	out := make(chan []contract.PartialResult, 64)
	wait := collectAll(out)
	var seen []int64
	d := &Dispatcher{Workers: 2, OnChunk: func(idx int64, _ int) { seen = append(seen, idx) }}
	_, err := d.Run(context.Background(), &sliceChunks{chunks: mkChunks(12, 2)}, fn, out)
	close(out)
	require.NoError(t, err)
	assert.Len(t, wait(), 24)
	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, seen)
}

// TestRunSourceError 块源出错时已提交任务照常完成，错误原样返回。
func TestRunSourceError(t *testing.T) {
	boom := errors.New("eio")
	out := make(chan []contract.PartialResult)
	wait := collectAll(out)
	st, err := New(2).Run(context.Background(), &sliceChunks{chunks: mkChunks(3, 2), tail: boom}, byteCount, out)
	close(out)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(3), st.Chunks)
	assert.Len(t, wait(), 6)
}

// TestRunEmpty 无块时立即返回。
func TestRunEmpty(t *testing.T) {
	out := make(chan []contract.PartialResult)
	st, err := New(0).Run(context.Background(), &sliceChunks{}, byteCount, out)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

// TestRunCanceled 无人接收且上下文取消时，任务放弃发送而不泄漏。
func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan []contract.PartialResult)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := New(2).Run(ctx, &sliceChunks{chunks: mkChunks(4, 1)}, byteCount, out)
	require.ErrorIs(t, err, context.Canceled)
}
