package linebreak

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uwc/pkg/contract"
	"uwc/plugins/oracle/mock"
	"uwc/plugins/oracle/uniseg"
)

func collect(t *testing.T, it contract.LineIterator) []contract.LineRecord {
	t.Helper()
	var out []contract.LineRecord
	for {
		rec, err := it.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func texts(recs []contract.LineRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Text
	}
	return out
}

// TestSplitBasic 无终止符的单行。
func TestSplitBasic(t *testing.T) {
	s := New(uniseg.New(), nil)
	recs := collect(t, s.Split(context.Background(), "f", strings.NewReader("hello")))
	require.Len(t, recs, 1)
	assert.Equal(t, contract.LineRecord{Ordinal: 1, Text: "hello", Terminated: false}, recs[0])
}

// TestSplitKeepsTerminators 终止符保留在文本中，仅末行可无终止符。
func TestSplitKeepsTerminators(t *testing.T) {
	s := New(uniseg.New(), nil)
	recs := collect(t, s.Split(context.Background(), "f", strings.NewReader("hello\ngoodbye\r\nwindows?")))
	assert.Equal(t, []string{"hello\n", "goodbye\r\n", "windows?"}, texts(recs))
	assert.True(t, recs[0].Terminated)
	assert.True(t, recs[1].Terminated)
	assert.False(t, recs[2].Terminated)
	assert.Equal(t, int64(3), recs[2].Ordinal)
}

// TestSplitEmpty 空流不产生任何行，且 EOF 可重复返回。
func TestSplitEmpty(t *testing.T) {
	it := New(uniseg.New(), nil).Split(context.Background(), "f", strings.NewReader(""))
	_, err := it.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}

// TestSplitAllTerminators 七种终止符各自结束一行。
func TestSplitAllTerminators(t *testing.T) {
	in := "foo\r\nbar\n\nbaz\u0085quux\u000C\u2028xi\u2029\n"
	recs := collect(t, New(uniseg.New(), nil).Split(context.Background(), "f", strings.NewReader(in)))
	assert.Equal(t, []string{"foo\r\n", "bar\n", "\n", "baz\u0085", "quux\u000C", "\u2028", "xi\u2029", "\n"}, texts(recs))
	for _, r := range recs {
		assert.True(t, r.Terminated)
	}
}

// TestSplitBlockSizeInvariance 任意块大小下（含 CRLF 与多字节终止符跨块）结果一致。
func TestSplitBlockSizeInvariance(t *testing.T) {
	in := "a\r\nb\rc\nd\u2028é\u0301\u0301\r\n\r\rtail"
	want := collect(t, New(uniseg.New(), nil).Split(context.Background(), "f", strings.NewReader(in)))
	require.Equal(t, []string{"a\r\n", "b\r", "c\n", "d\u2028", "é\u0301\u0301\r\n", "\r", "\r", "tail"}, texts(want))
	for bs := 1; bs <= len(in)+1; bs++ {
		s := New(uniseg.New(), &Options{BlockSize: bs})
		got := collect(t, s.Split(context.Background(), "f", iotest.OneByteReader(strings.NewReader(in))))
		assert.Equal(t, want, got, "block size %d", bs)
	}
}

// TestSplitTrailingCR 流末尾的 CR 是终止符。
func TestSplitTrailingCR(t *testing.T) {
	recs := collect(t, New(uniseg.New(), &Options{BlockSize: 2}).Split(context.Background(), "f", strings.NewReader("ab\r")))
	require.Len(t, recs, 1)
	assert.Equal(t, "ab\r", recs[0].Text)
	assert.True(t, recs[0].Terminated)
}

// TestSplitLongLine 单行跨越大量块。
func TestSplitLongLine(t *testing.T) {
	long := strings.Repeat("x", 10000)
	recs := collect(t, New(mock.New(), &Options{BlockSize: 7}).Split(context.Background(), "f", strings.NewReader(long+"\n"+long)))
	require.Len(t, recs, 2)
	assert.Equal(t, long+"\n", recs[0].Text)
	assert.Equal(t, long, recs[1].Text)
}

// TestSplitReadError 读取失败包装为 ErrStreamRead，且不重试。
func TestSplitReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	r := io.MultiReader(strings.NewReader("ok\npartial"), iotest.ErrReader(boom))
	it := New(uniseg.New(), &Options{BlockSize: 3}).Split(context.Background(), "f", r)
	var err error
	for err == nil {
		_, err = it.Next()
	}
	require.ErrorIs(t, err, contract.ErrStreamRead)
	require.ErrorIs(t, err, boom)
	_, again := it.Next()
	require.Equal(t, err, again)
}

// TestSplitCtxCancel 上下文取消在下一次读取前生效。
func TestSplitCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(uniseg.New(), nil).Split(ctx, "f", strings.NewReader("a\n")).Next()
	require.ErrorIs(t, err, context.Canceled)
}
