package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"uwc/internal/count"
	"uwc/internal/diag"
	"uwc/internal/dispatch"
	"uwc/pkg/contract"
)

// - 逐输入串行：输入之间不并发，输入内部由 Engine 并行计数。
// - 失败隔离：单个输入的打开/读取失败只记入 Summary.Failed，不影响其余输入。
// - 致命错误：不变量违例、Writer 失败与取消立即终止整个运行。

// Components 聚合运行所需的组件。
type Components struct {
	Reader   contract.Reader
	Splitter contract.Splitter
	Chunker  contract.Chunker
	Oracle   contract.Oracle
	Writer   contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Inputs    []string
	Selection contract.Selection
	Mode      contract.Mode
	ChunkSize int
	Workers   int
	Policy    count.Policy
	// ErrOut: 失败输入的提示输出（通常为 stderr）；nil 不输出。
	ErrOut io.Writer
	// Terminal: 可选进度提示；nil 为 no-op。
	Terminal *diag.Terminal
}

// Run 执行完整流程：Reader → (Splitter → Chunker → Dispatcher → Merger) → Writer。
// 返回的 Summary 在出错时也反映已处理的输入。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (contract.Summary, error) {
	if err := sanity(comp); err != nil {
		return contract.Summary{}, fmt.Errorf("sanity: %w", err)
	}
	sel := set.Selection
	if sel == 0 {
		sel = contract.DefaultSelection
	}
	mode := set.Mode
	if mode == "" {
		mode = contract.ModeTotal
	}
	disp := dispatch.New(set.Workers)
	eng := &Engine{
		Splitter:   comp.Splitter,
		Chunker:    comp.Chunker,
		Counter:    count.New(sel, set.Policy, comp.Oracle),
		Dispatcher: disp,
		Mode:       mode,
		ChunkSize:  set.ChunkSize,
	}
	term := set.Terminal
	disp.OnChunk = func(index int64, lines int) {
		term.ChunkDispatched(lines)
		logger.Debug("dispatch", "chunk", zap.Int64("chunk", index), zap.Int("lines", lines))
	}

	sum := contract.Summary{Total: contract.NewCountSet(sel)}
	runStart := time.Now()
	term.RunStart(disp.Concurrency(), string(mode))
	rtimer := logger.Start("pipeline", "run")

	perFile := func(fid contract.FileID, rc io.ReadCloser, openErr error) error {
		term.FileStart(string(fid))
		fileStart := time.Now()
		if openErr != nil {
			term.FileFinish(false, 0)
			return fileFailed(ctx, comp.Writer, set.ErrOut, logger, &sum, "reader", fid, openErr)
		}
		defer rc.Close()

		etimer := logger.StartWith("engine", "count", string(fid), "")
		rep, st, err := eng.CountStream(ctx, fid, rc)
		diag.AddWork(st.Chunks, st.Lines)
		if err != nil {
			term.FileFinish(false, time.Since(fileStart))
			if isFatal(err) {
				code := diag.Classify(err)
				logger.ErrorWith("engine", code, "count failed", err, string(fid), "")
				diag.IncOp("engine", "error", "error")
				diag.IncError("engine", code)
				return fmt.Errorf("count %s: %w", fid, err)
			}
			return fileFailed(ctx, comp.Writer, set.ErrOut, logger, &sum, "engine", fid, err)
		}
		etimer.Finish("count", st.Lines)

		wtimer := logger.StartWith("writer", "write", string(fid), "")
		if err := comp.Writer.WriteReport(ctx, fid, rep); err != nil {
			term.FileFinish(false, time.Since(fileStart))
			code := diag.Classify(err)
			logger.ErrorWith("writer", code, "write failed", err, string(fid), "")
			diag.IncOp("writer", "error", "error")
			diag.IncError("writer", code)
			return fmt.Errorf("writer write: %w", err)
		}
		wtimer.Finish("write", int64(len(rep.Lines)))

		total, err := sum.Total.Add(rep.Total)
		if err != nil {
			return err
		}
		sum.Total = total
		sum.Files++
		term.FileFinish(true, time.Since(fileStart))
		return nil
	}

	err := comp.Reader.Iterate(ctx, set.Inputs, perFile)
	if err != nil {
		code := diag.Classify(err)
		logger.Error("pipeline", code, "run failed", err)
		diag.IncOp("pipeline", "error", "error")
		diag.IncError("pipeline", code)
		term.RunFinish(false, time.Since(runStart))
		return sum, err
	}
	if err := comp.Writer.Close(ctx, sum); err != nil {
		code := diag.Classify(err)
		logger.Error("writer", code, "close failed", err)
		diag.IncError("writer", code)
		term.RunFinish(false, time.Since(runStart))
		return sum, fmt.Errorf("writer close: %w", err)
	}
	rtimer.Finish("run", int64(sum.Files))
	term.RunFinish(sum.Failed == 0, time.Since(runStart))
	return sum, nil
}

// fileFailed 记录单个输入的失败并继续运行。
func fileFailed(ctx context.Context, w contract.Writer, errOut io.Writer, logger *diag.Logger, sum *contract.Summary, comp string, fid contract.FileID, err error) error {
	code := diag.Classify(err)
	logger.ErrorWith(comp, code, "input failed", err, string(fid), "")
	diag.IncOp(comp, "error", "error")
	diag.IncError(comp, code)
	sum.Failed++
	if errOut != nil {
		fmt.Fprintf(errOut, "uwc: %s: %v\n", fid, err)
	}
	if werr := w.WriteError(ctx, fid, err); werr != nil {
		return fmt.Errorf("writer write error: %w", werr)
	}
	return nil
}

// isFatal 区分可隔离的输入错误与必须终止运行的错误。
func isFatal(err error) bool {
	return errors.Is(err, contract.ErrInvariantViolation) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func sanity(c Components) error {
	if c.Reader == nil || c.Splitter == nil || c.Chunker == nil || c.Oracle == nil || c.Writer == nil {
		return errors.New("pipeline: missing components")
	}
	return nil
}
