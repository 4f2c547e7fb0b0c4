package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"uwc/pkg/contract"
)

// ReportSuffix: 每个输入的报告文件后缀。
const ReportSuffix = ".uwc.json"

// SummaryName: 汇总文件名。
const SummaryName = "uwc-summary.json"

// Options: 最小必要选项。
type Options struct {
	// OutputDir: 输出根目录（必需）。
	OutputDir string `mapstructure:"output_dir"`
	// Atomic: 是否使用原子替换（同目录临时文件 + rename）。nil 视为 true。
	Atomic *bool `mapstructure:"atomic"`
	// Flat: 是否扁平化输出（仅保留文件名，不保留目录层级）。nil 视为 true。
	Flat *bool `mapstructure:"flat"`
	// PermFile/PermDir: 可选权限；为 0 表示使用默认。
	PermFile os.FileMode `mapstructure:"perm_file"`
	PermDir  os.FileMode `mapstructure:"perm_dir"`
	// BufSize: 写缓冲区大小；<=0 使用默认。
	BufSize int `mapstructure:"buf_size"`
}

// FS 将每个输入的报告写为 OutputDir 下的独立 JSON 文件，Close 时写出汇总。
type FS struct {
	root    string
	atomic  bool
	flat    bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
	failed  map[contract.FileID]string
}

// New 创建按输入落盘的 Writer。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.Join(contract.ErrInvalidInput, errors.New("writer: output_dir is required"))
	}
	pf := opts.PermFile
	if pf == 0 {
		pf = 0o644
	}
	pd := opts.PermDir
	if pd == 0 {
		pd = 0o755
	}
	flat := true
	if opts.Flat != nil {
		flat = *opts.Flat
	}
	atomic := true
	if opts.Atomic != nil {
		atomic = *opts.Atomic
	}
	return &FS{root: opts.OutputDir, atomic: atomic, flat: flat, permF: pf, permD: pd, bufSize: opts.BufSize, failed: map[contract.FileID]string{}}, nil
}

var _ contract.Writer = (*FS)(nil)

type fileDoc struct {
	FileID contract.FileID `json:"file_id"`
	contract.Report
}

// WriteReport 写出 <OutputDir>/<name>.uwc.json。
func (w *FS) WriteReport(ctx context.Context, fileID contract.FileID, rep contract.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := w.mapPath(fileID)
	if err != nil {
		return err
	}
	return w.writeJSON(dest, fileDoc{FileID: fileID, Report: rep})
}

// WriteError 仅记录失败输入，汇总时一并写出。
func (w *FS) WriteError(_ context.Context, fileID contract.FileID, err error) error {
	w.failed[fileID] = err.Error()
	return nil
}

type summaryDoc struct {
	contract.Summary
	Errors map[contract.FileID]string `json:"errors,omitempty"`
}

// Close 写出汇总文件。
func (w *FS) Close(ctx context.Context, sum contract.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.writeJSON(filepath.Join(w.root, SummaryName), summaryDoc{Summary: sum, Errors: w.failed})
}

func (w *FS) writeJSON(dest string, v any) error {
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return err
	}
	atomic := w.atomic
	s, err := OpenSink(SinkOptions{Path: dest, Atomic: &atomic, PermFile: w.permF, BufSize: w.bufSize}, nil)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(s)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.Abort()
		return err
	}
	return s.Commit()
}

// mapPath: Clean + Join + 越界校验。STDIN 映射为 "stdin"。
func (w *FS) mapPath(id contract.FileID) (string, error) {
	if id == contract.StdinID {
		return filepath.Join(w.root, "stdin"+ReportSuffix), nil
	}
	rel := filepath.Clean(filepath.FromSlash(string(id)))
	if w.flat {
		rel = filepath.Base(rel)
		if rel == "." || rel == ".." || rel == "" || rel == string(filepath.Separator) {
			return "", contract.ErrPathInvalid
		}
		return filepath.Join(w.root, rel+ReportSuffix), nil
	}
	// 非扁平：禁止绝对路径、父级逃逸、Windows 卷名
	if rel == "." || rel == "" || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", contract.ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, rel+ReportSuffix), nil
}
