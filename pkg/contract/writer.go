//go:generate mockgen -source writer.go -destination ../../internal/mocks/mock_writer.go -package mocks Writer

package contract

import "context"

// Writer: 报告消费者（格式化/持久化）。
// 约束：
//  1. 单写者，按调用顺序输出；
//  2. 不修改报告内容；
//  3. WriteError 仅记录失败输入，不中断运行；
//  4. Close 输出汇总并释放资源，之后不得再写。
type Writer interface {
	WriteReport(ctx context.Context, fileID FileID, rep Report) error
	WriteError(ctx context.Context, fileID FileID, err error) error
	Close(ctx context.Context, sum Summary) error
}
