package filesystem

import (
	"context"
	"fmt"
	"testing"

	"uwc/pkg/contract"
)

// BenchmarkWriteReport 不同行数的 line 模式报告落盘耗时。
func BenchmarkWriteReport(b *testing.B) {
	for _, n := range []int{100, 100000} {
		b.Run(fmt.Sprintf("lines=%d", n), func(b *testing.B) {
			sel := contract.DefaultSelection
			rep := contract.Report{Mode: contract.ModeLine, Total: contract.NewCountSet(sel)}
			for i := 0; i < n; i++ {
				rep.Lines = append(rep.Lines, contract.LineCount{Line: int64(i + 1), Counts: contract.NewCountSet(sel)})
			}
			w, err := New(&Options{OutputDir: b.TempDir()})
			if err != nil {
				b.Fatalf("创建 Writer 失败: %v", err)
			}
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.WriteReport(ctx, "out.txt", rep); err != nil {
					b.Fatalf("写入失败: %v", err)
				}
			}
		})
	}
}
