package contract

// Token: 分词结果中的一个片段（字节区间，左闭右开）。
type Token struct {
	Start    int
	End      int
	WordLike bool // 至少含一个字母/数字字符
}

// Oracle: Unicode 边界判定能力（外部注入，纯函数、无状态、并发安全）。
// 核心仅消费其结果，不实现、不校验底层 Unicode 算法。
// 所有偏移均为 text 内的字节偏移。
type Oracle interface {
	// LineBreaks 返回每个行终止符之后的偏移（升序）。
	LineBreaks(text string) []int
	// WordBoundaries 返回覆盖 text 的有序片段序列。
	WordBoundaries(text string) []Token
	// GraphemeBoundaries 返回每个扩展字素簇的起始偏移（升序）。
	GraphemeBoundaries(text string) []int
}
