package ocr

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/andresmejia3/ocrline/internal/types"
	"github.com/andresmejia3/ocrline/internal/utils"
)

// ErrNoImagePath is returned when the command is run without an argument.
var ErrNoImagePath = errors.New("No image path provided.")

// EngineError wraps any failure raised while preparing or running the engine.
// Its message is the underlying error's message, unchanged.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string { return e.Err.Error() }

func (e *EngineError) Unwrap() error { return e.Err }

// Invoker runs one recognition and writes exactly one envelope.
type Invoker struct {
	Engine   Engine
	Config   Config
	Resolver Resolver // optional
	Recorder Recorder // optional

	Stdout io.Writer
	Stderr io.Writer
}

// Main runs the invocation and returns the process exit code.
// On failure the error envelope goes to Stderr and nothing is written to Stdout.
func (inv *Invoker) Main(ctx context.Context, args []string) int {
	if err := inv.Run(ctx, args); err != nil {
		utils.WriteError(inv.Stderr, err)
		return 1
	}
	return 0
}

// Run recognizes the image named by args[0] and writes the records to Stdout.
// Arguments past the first are ignored.
func (inv *Invoker) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrNoImagePath
	}
	path := args[0]

	records, err := inv.Recognize(ctx, path)
	if inv.Recorder != nil {
		recErr := inv.Recorder.RecordRun(ctx, path, inv.Config, records, err)
		if err == nil && recErr != nil {
			return recErr
		}
	}
	if err != nil {
		return err
	}

	// Encode into a buffer so a write error can never leave half an array behind.
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return err
	}
	_, err = inv.Stdout.Write(buf.Bytes())
	return err
}

// Recognize resolves path, runs the engine and formats its output.
// Every failure is returned as an *EngineError.
func (inv *Invoker) Recognize(ctx context.Context, path string) ([]types.Record, error) {
	if inv.Engine == nil {
		return nil, &EngineError{Err: errors.New("no OCR engine configured")}
	}

	local := path
	if inv.Resolver != nil {
		resolved, cleanup, err := inv.Resolver.Resolve(ctx, path)
		if err != nil {
			return nil, &EngineError{Err: err}
		}
		defer cleanup()
		local = resolved
	}

	res, err := inv.Engine.Recognize(ctx, local, inv.Config)
	if err != nil {
		return nil, &EngineError{Err: err}
	}
	return Format(res), nil
}
