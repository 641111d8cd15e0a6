package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/andresmejia3/ocrline/internal/ocr"
	"github.com/andresmejia3/ocrline/internal/types"
	"github.com/schollz/progressbar/v3"
)

// logger is implemented by engines that keep the diagnostics of their last run.
type logger interface {
	Logs() string
}

// spinningEngine shows a spinner on w while the wrapped engine runs,
// then echoes the engine's own diagnostics.
type spinningEngine struct {
	ocr.Engine
	w io.Writer
}

func (s *spinningEngine) Recognize(ctx context.Context, path string, cfg ocr.Config) (types.Result, error) {
	stop := startSpinner(s.w, "🔍 Recognizing "+path)
	res, err := s.Engine.Recognize(ctx, path, cfg)
	stop()

	if l, ok := s.Engine.(logger); ok {
		if logs := strings.TrimSpace(l.Logs()); logs != "" {
			fmt.Fprintf(s.w, "📝 Engine output:\n%s\n", logs)
		}
	}
	if err == nil {
		lines := 0
		if len(res) > 0 {
			lines = len(res[0])
		}
		fmt.Fprintf(s.w, "🏁 Recognition complete: %d lines\n", lines)
	}
	return res, err
}

func startSpinner(w io.Writer, desc string) func() {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(w), // Write bar to Stderr
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
	)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		bar.Finish()
		fmt.Fprintln(w)
	}
}

// failingEngine reports a construction error at recognition time so it is
// surfaced as an engine failure like any other.
type failingEngine struct {
	err error
}

func (f failingEngine) Recognize(context.Context, string, ocr.Config) (types.Result, error) {
	return nil, f.err
}
