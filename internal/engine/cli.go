package engine

import (
	"bytes"
	"context"

	"github.com/andresmejia3/ocrline/internal/ocr"
	"github.com/andresmejia3/ocrline/internal/types"
	"github.com/andresmejia3/ocrline/internal/worker"
)

// CLI runs the tesseract binary and parses its TSV output.
type CLI struct {
	worker *worker.TesseractWorker
}

func NewCLI(bin string) *CLI {
	return &CLI{worker: worker.NewTesseractWorker(bin)}
}

func (c *CLI) Recognize(ctx context.Context, path string, cfg ocr.Config) (types.Result, error) {
	out, err := c.worker.Process(ctx, worker.Job{
		ImagePath:   path,
		Lang:        cfg.Lang,
		Orientation: cfg.Orientation,
		TessdataDir: cfg.TessdataDir,
	})
	if err != nil {
		return nil, err
	}
	return ParseTSV(bytes.NewReader(out))
}

// Logs returns the diagnostics tesseract wrote to stderr during the last run.
func (c *CLI) Logs() string {
	return c.worker.Logs()
}
