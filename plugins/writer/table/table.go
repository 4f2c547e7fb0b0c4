package table

import (
	"context"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"uwc/pkg/contract"
	"uwc/plugins/writer/filesystem"
)

// Options 为表格 Writer 的可选配置。
type Options struct {
	// OutputPath: 输出文件；为空写 stdout。文件在 Close 时原子替换。
	OutputPath string `mapstructure:"output_path"`
	// NoElastic: 关闭列对齐，仅以单个制表符分隔。
	NoElastic bool `mapstructure:"no_elastic"`
	// NoHeader: 不输出表头。
	NoHeader bool `mapstructure:"no_header"`
}

// Table 以制表符分隔的表格输出报告：
//
//	lines  words  bytes  filename
//	2      3      6      a.txt
//
// line 模式多一列行号，每个输入以 total 行结束；多于一个成功输入时追加总计行。
// 对齐模式需要缓冲全部行以计算列宽，直到 Close 才写出。
type Table struct {
	sink    *filesystem.Sink
	out     io.Writer
	tw      *tabwriter.Writer
	header  bool
	started bool
	mode    contract.Mode
	row     []string
}

// New 创建表格 Writer；stdout 为 nil 时使用 os.Stdout。
func New(opts *Options, stdout io.Writer) (*Table, error) {
	if opts == nil {
		opts = &Options{}
	}
	sink, err := filesystem.OpenSink(filesystem.SinkOptions{Path: opts.OutputPath}, stdout)
	if err != nil {
		return nil, err
	}
	t := &Table{sink: sink, out: sink, header: !opts.NoHeader}
	if !opts.NoElastic {
		t.tw = tabwriter.NewWriter(sink, 0, 8, 2, ' ', 0)
		t.out = t.tw
	}
	return t, nil
}

var _ contract.Writer = (*Table)(nil)

func (t *Table) writeHeader(mode contract.Mode, sel contract.Selection) error {
	if t.started {
		return nil
	}
	t.started = true
	t.mode = mode
	if !t.header {
		return nil
	}
	t.row = t.row[:0]
	if mode == contract.ModeLine {
		t.row = append(t.row, "line")
	}
	for _, c := range sel.Counters() {
		t.row = append(t.row, c.String())
	}
	t.row = append(t.row, "filename")
	return t.flushRow()
}

func (t *Table) writeCounts(lead string, cs contract.CountSet, name string) error {
	t.row = t.row[:0]
	if lead != "" {
		t.row = append(t.row, lead)
	}
	for _, v := range cs.Values() {
		t.row = append(t.row, strconv.FormatInt(v, 10))
	}
	t.row = append(t.row, name)
	return t.flushRow()
}

func (t *Table) flushRow() error {
	_, err := io.WriteString(t.out, strings.Join(t.row, "\t")+"\n")
	return err
}

// WriteReport 输出一个输入的行（line 模式）与合计行。
func (t *Table) WriteReport(ctx context.Context, fileID contract.FileID, rep contract.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.writeHeader(rep.Mode, rep.Total.Sel); err != nil {
		return err
	}
	name := string(fileID)
	if rep.Mode != contract.ModeLine {
		return t.writeCounts("", rep.Total, name)
	}
	for _, lc := range rep.Lines {
		if err := t.writeCounts(strconv.FormatInt(lc.Line, 10), lc.Counts, name); err != nil {
			return err
		}
	}
	return t.writeCounts("total", rep.Total, name)
}

// WriteError 表格不含错误行；错误由调用方输出到 stderr。
func (t *Table) WriteError(context.Context, contract.FileID, error) error { return nil }

// Close 追加总计行（多于一个成功输入时），刷新并提交输出。
func (t *Table) Close(ctx context.Context, sum contract.Summary) error {
	err := ctx.Err()
	if err == nil && sum.Files > 1 {
		lead := ""
		if t.mode == contract.ModeLine {
			lead = "total"
		}
		err = t.writeCounts(lead, sum.Total, "total")
	}
	if err == nil && t.tw != nil {
		err = t.tw.Flush()
	}
	if err != nil {
		t.sink.Abort()
		return err
	}
	return t.sink.Commit()
}
