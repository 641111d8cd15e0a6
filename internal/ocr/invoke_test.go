package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/andresmejia3/ocrline/internal/types"
)

// fakeEngine returns a canned result and remembers what it was asked.
type fakeEngine struct {
	res   types.Result
	err   error
	calls int
	path  string
	cfg   Config
}

func (f *fakeEngine) Recognize(ctx context.Context, path string, cfg Config) (types.Result, error) {
	f.calls++
	f.path = path
	f.cfg = cfg
	return f.res, f.err
}

type fakeResolver struct {
	local   string
	err     error
	cleaned bool
}

func (f *fakeResolver) Resolve(ctx context.Context, path string) (string, func(), error) {
	if f.err != nil {
		return "", func() {}, f.err
	}
	return f.local, func() { f.cleaned = true }, nil
}

type fakeRecorder struct {
	err     error
	lines   []types.Record
	runErr  error
	records int
}

func (f *fakeRecorder) RecordRun(ctx context.Context, path string, cfg Config, lines []types.Record, runErr error) error {
	f.records++
	f.lines = lines
	f.runErr = runErr
	return f.err
}

func newInvoker(eng Engine) (*Invoker, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Invoker{
		Engine: eng,
		Config: DefaultConfig(),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestMainSuccess(t *testing.T) {
	eng := &fakeEngine{res: types.Result{{
		{Text: "你好", Confidence: 0.99, Quad: types.QuadFromRect(0, 0, 40, 20)},
		{Text: "world", Confidence: 0.75, Quad: types.QuadFromRect(0, 30, 60, 50)},
	}}}
	inv, stdout, stderr := newInvoker(eng)

	code := inv.Main(context.Background(), []string{"receipt.png", "ignored"})
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("Expected empty stderr on success, got %q", stderr.String())
	}
	if eng.path != "receipt.png" {
		t.Errorf("Engine received path %q, want %q", eng.path, "receipt.png")
	}
	if eng.cfg.Lang != DefaultLang || !eng.cfg.Orientation {
		t.Errorf("Engine received config %+v, want the defaults", eng.cfg)
	}

	var out []types.Record
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout is not a JSON array: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(out))
	}
	if out[0].Text != "你好" || out[1].Confidence != 0.75 {
		t.Errorf("Unexpected records: %+v", out)
	}
	if !strings.Contains(stdout.String(), "你好") {
		t.Errorf("Chinese text should be emitted literally, got %s", stdout.String())
	}
}

func TestMainNoDetections(t *testing.T) {
	for _, res := range []types.Result{nil, {}, {{}}} {
		inv, stdout, stderr := newInvoker(&fakeEngine{res: res})
		if code := inv.Main(context.Background(), []string{"blank.png"}); code != 0 {
			t.Fatalf("Expected exit code 0, got %d", code)
		}
		if stdout.String() != "[]\n" {
			t.Errorf("Expected [] for result %v, got %q", res, stdout.String())
		}
		if stderr.Len() != 0 {
			t.Errorf("Expected empty stderr, got %q", stderr.String())
		}
	}
}

func TestMainMissingArgument(t *testing.T) {
	eng := &fakeEngine{}
	inv, stdout, stderr := newInvoker(eng)

	if code := inv.Main(context.Background(), nil); code != 1 {
		t.Fatalf("Expected exit code 1, got %d", code)
	}
	if eng.calls != 0 {
		t.Errorf("Engine should not be called without a path, got %d calls", eng.calls)
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected empty stdout, got %q", stdout.String())
	}
	want := `{"error":"No image path provided."}` + "\n"
	if stderr.String() != want {
		t.Errorf("stderr = %q, want %q", stderr.String(), want)
	}
}

func TestMainEngineFailure(t *testing.T) {
	engineErr := errors.New("Error, cannot read input file missing.png: No such file or directory")
	inv, stdout, stderr := newInvoker(&fakeEngine{err: engineErr})

	if code := inv.Main(context.Background(), []string{"missing.png"}); code != 1 {
		t.Fatalf("Expected exit code 1, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected empty stdout on failure, got %q", stdout.String())
	}

	var envelope types.ErrorResult
	if err := json.Unmarshal(stderr.Bytes(), &envelope); err != nil {
		t.Fatalf("stderr is not an error envelope: %v", err)
	}
	if envelope.Error != engineErr.Error() {
		t.Errorf("Expected engine message %q, got %q", engineErr.Error(), envelope.Error)
	}
}

func TestRunWrapsEngineErrors(t *testing.T) {
	cause := errors.New("model load failed")
	inv, _, _ := newInvoker(&fakeEngine{err: cause})

	err := inv.Run(context.Background(), []string{"a.png"})
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("Expected *EngineError, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Error("EngineError should unwrap to the engine's error")
	}

	inv.Engine = nil
	if err := inv.Run(context.Background(), []string{"a.png"}); !errors.As(err, &engErr) {
		t.Errorf("Missing engine should be an engine failure, got %v", err)
	}
}

func TestRunResolver(t *testing.T) {
	eng := &fakeEngine{}
	inv, _, _ := newInvoker(eng)
	res := &fakeResolver{local: "/tmp/ocrline-123.png"}
	inv.Resolver = res

	if err := inv.Run(context.Background(), []string{"s3://bucket/scan.png"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if eng.path != res.local {
		t.Errorf("Engine received %q, want resolved path %q", eng.path, res.local)
	}
	if !res.cleaned {
		t.Error("Resolver cleanup was not called")
	}

	res.err = errors.New("S3 is not configured")
	err := inv.Run(context.Background(), []string{"s3://bucket/scan.png"})
	if err == nil || err.Error() != "S3 is not configured" {
		t.Errorf("Expected resolver error to surface unchanged, got %v", err)
	}
}

func TestRunRecorder(t *testing.T) {
	eng := &fakeEngine{res: types.Result{{{Text: "a", Confidence: 1}}}}
	inv, stdout, _ := newInvoker(eng)
	rec := &fakeRecorder{}
	inv.Recorder = rec

	if err := inv.Run(context.Background(), []string{"a.png"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rec.records != 1 || len(rec.lines) != 1 || rec.runErr != nil {
		t.Errorf("Unexpected recording: %+v", rec)
	}

	// A failed write to history turns the run into a failure with no output.
	stdout.Reset()
	rec.err = errors.New("connection refused")
	if err := inv.Run(context.Background(), []string{"a.png"}); err == nil {
		t.Fatal("Expected recorder error")
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected no partial output, got %q", stdout.String())
	}

	// On engine failure the engine message wins over the recorder's.
	eng.err = errors.New("corrupt image")
	err := inv.Run(context.Background(), []string{"a.png"})
	if err == nil || err.Error() != "corrupt image" {
		t.Errorf("Expected engine error, got %v", err)
	}
	if rec.runErr == nil {
		t.Error("Recorder should see the run error")
	}
}
