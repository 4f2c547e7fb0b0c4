package jsonl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uwc/pkg/contract"
)

// TestJSONLStream 报告、错误与汇总各占一行。
func TestJSONLStream(t *testing.T) {
	sel := contract.Select(contract.Lines, contract.Words)
	cs := contract.NewCountSet(sel)
	cs.Set(contract.Lines, 2)
	cs.Set(contract.Words, 3)
	one := contract.NewCountSet(sel)
	one.Set(contract.Lines, 1)

	var buf bytes.Buffer
	w, err := New(nil, &buf)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, w.WriteReport(ctx, "a.txt", contract.Report{Mode: contract.ModeTotal, Total: cs}))
	require.NoError(t, w.WriteReport(ctx, "b.txt", contract.Report{
		Mode:  contract.ModeLine,
		Lines: []contract.LineCount{{Line: 1, Counts: one}},
		Total: one,
	}))
	require.NoError(t, w.WriteError(ctx, "c.txt", errors.New("boom")))
	assert.Empty(t, buf.String(), "output is buffered until Close")
	require.NoError(t, w.Close(ctx, contract.Summary{Files: 2, Failed: 1, Total: cs}))

	want := `{"file_id":"a.txt","mode":"total","total":{"lines":2,"words":3}}
{"file_id":"b.txt","mode":"line","lines":[{"line":1,"counts":{"lines":1,"words":0}}],"total":{"lines":1,"words":0}}
{"file_id":"c.txt","error":"boom"}
{"summary":{"files":2,"failed":1,"total":{"lines":2,"words":3}}}
`
	assert.Equal(t, want, buf.String())
}

// TestJSONLCanceled 取消时不提交输出。
func TestJSONLCanceled(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&Options{}, &buf)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.WriteError(ctx, "x", errors.New("e")), context.Canceled)
	require.ErrorIs(t, w.Close(ctx, contract.Summary{}), context.Canceled)
	assert.Empty(t, buf.String())
}
