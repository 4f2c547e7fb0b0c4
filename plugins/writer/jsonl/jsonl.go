package jsonl

import (
	"context"
	"encoding/json"
	"io"

	"uwc/pkg/contract"
	"uwc/plugins/writer/filesystem"
)

// Options 为 JSONL Writer 的可选配置。
type Options struct {
	// OutputPath: 输出文件；为空写 stdout。文件在 Close 时原子替换。
	OutputPath string `mapstructure:"output_path"`
}

// JSONL 每个输入输出一行 JSON，失败输入输出错误对象，最后一行为汇总：
//
//	{"file_id":"a.txt","mode":"total","total":{"lines":2,"words":3,"bytes":6}}
//	{"file_id":"b.txt","error":"open b.txt: no such file or directory"}
//	{"summary":{"files":1,"failed":1,"total":{...}}}
type JSONL struct {
	sink *filesystem.Sink
	enc  *json.Encoder
}

// New 创建 JSONL Writer；stdout 为 nil 时使用 os.Stdout。
func New(opts *Options, stdout io.Writer) (*JSONL, error) {
	if opts == nil {
		opts = &Options{}
	}
	sink, err := filesystem.OpenSink(filesystem.SinkOptions{Path: opts.OutputPath}, stdout)
	if err != nil {
		return nil, err
	}
	return &JSONL{sink: sink, enc: json.NewEncoder(sink)}, nil
}

var _ contract.Writer = (*JSONL)(nil)

type reportLine struct {
	FileID contract.FileID `json:"file_id"`
	contract.Report
}

type errorLine struct {
	FileID contract.FileID `json:"file_id"`
	Error  string          `json:"error"`
}

type summaryLine struct {
	Summary contract.Summary `json:"summary"`
}

func (w *JSONL) WriteReport(ctx context.Context, fileID contract.FileID, rep contract.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.enc.Encode(reportLine{FileID: fileID, Report: rep})
}

func (w *JSONL) WriteError(ctx context.Context, fileID contract.FileID, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return w.enc.Encode(errorLine{FileID: fileID, Error: err.Error()})
}

// Close 写出汇总行并提交输出。
func (w *JSONL) Close(ctx context.Context, sum contract.Summary) error {
	err := ctx.Err()
	if err == nil {
		err = w.enc.Encode(summaryLine{Summary: sum})
	}
	if err != nil {
		w.sink.Abort()
		return err
	}
	return w.sink.Commit()
}
