package worker

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/andresmejia3/ocrline/internal/utils" // Using the SafeCommand wrapper
)

// DefaultBinary is looked up on PATH when no explicit binary is configured.
const DefaultBinary = "tesseract"

// Page segmentation modes passed to --psm.
const (
	psmAutoOSD = "1" // automatic segmentation with orientation and script detection
	psmAuto    = "3" // automatic segmentation, no OSD
)

// Job describes a single tesseract invocation.
type Job struct {
	ImagePath   string
	Lang        string
	Orientation bool
	TessdataDir string
}

// TesseractWorker runs the tesseract binary once per job and returns its TSV output.
type TesseractWorker struct {
	Bin string

	// last holds the command of the most recent run so crash logs can be inspected.
	last *utils.SafeCommand
}

func NewTesseractWorker(bin string) *TesseractWorker {
	if bin == "" {
		bin = DefaultBinary
	}
	return &TesseractWorker{Bin: bin}
}

// Args builds the tesseract command line for job. Output goes to stdout as TSV.
func (j Job) Args() []string {
	psm := psmAuto
	if j.Orientation {
		psm = psmAutoOSD
	}
	args := []string{j.ImagePath, "stdout", "-l", j.Lang, "--psm", psm}
	if j.TessdataDir != "" {
		args = append(args, "--tessdata-dir", j.TessdataDir)
	}
	return append(args, "tsv")
}

// Process runs tesseract for job and returns the raw TSV bytes.
// On failure the error is tesseract's own stderr message when it wrote one.
func (w *TesseractWorker) Process(ctx context.Context, job Job) ([]byte, error) {
	if _, err := exec.LookPath(w.Bin); err != nil {
		return nil, fmt.Errorf("tesseract binary %q not found: %w", w.Bin, err)
	}

	cmd := utils.NewSafeCommand(ctx, w.Bin, job.Args()...)
	w.last = cmd

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cmd.Failure(err)
	}
	return out, nil
}

// Logs returns whatever the last tesseract run wrote to stderr.
func (w *TesseractWorker) Logs() string {
	if w.last == nil {
		return ""
	}
	return w.last.Stderr.String()
}
