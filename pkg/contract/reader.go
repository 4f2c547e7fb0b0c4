package contract

import (
	"context"
	"io"
)

// Reader: 输入源抽象（文件/通配/目录/STDIN）。
// 约束：
// 1) 按输入维度回调，顺序稳定；
// 2) FileID 稳定且去平台差异化；
// 3) 不做解码/校验，仅提供字节流；
// 4) 单个输入打开失败以 openErr 回调，不中断其余输入；
// 5) 不在内部起并发。
// yield 返回的错误会终止遍历并原样返回。rc 由 yield 负责关闭。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, rc io.ReadCloser, openErr error) error) error
}
