package contract

import "errors"

// 最小错误分类（用于上层策略判定与退出码映射）。
var (
	// ErrStreamRead: 行拆分阶段读取底层字节流失败（不重试，该输入不产出部分报告）。
	ErrStreamRead = errors.New("stream read failed")
	// ErrInvariantViolation: 领域不变量违例（合并标签缺失/重复、选择集不一致）；属内部缺陷，致命。
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInvalidInput: 配置或调用参数非法。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 输入根无法解析（不存在的通配、不支持的文件类型等）。
	ErrPathInvalid = errors.New("path invalid")
)
