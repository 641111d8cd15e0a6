package utils

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestFingerprintImage(t *testing.T) {
	// Integration test using the OS filesystem
	tmp, err := os.CreateTemp("", "image_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmp.Name())

	// Write dummy content
	if _, err := tmp.Write([]byte("fake image content")); err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	id, err := FingerprintImage(tmp.Name())
	if err != nil || id == "" {
		t.Errorf("Failed to generate ID: %v", err)
	}

	// Verify Determinism
	id2, _ := FingerprintImage(tmp.Name())
	if id != id2 {
		t.Errorf("Hash is not deterministic. Got %s, then %s", id, id2)
	}

	// Verify Sensitivity (Change content -> Change ID)
	f, _ := os.OpenFile(tmp.Name(), os.O_APPEND|os.O_WRONLY, 0644)
	f.Write([]byte(" modification"))
	f.Close()
	// Some filesystems have coarse mtimes; size still changes.
	os.Chtimes(tmp.Name(), time.Now(), time.Now().Add(time.Second))

	id3, _ := FingerprintImage(tmp.Name())
	if id == id3 {
		t.Error("Hash did not change after file modification")
	}

	if _, err := FingerprintImage("does-not-exist.png"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFingerprintImage_S3(t *testing.T) {
	id, err := FingerprintImage("s3://invoices/2024/scan.png")
	if err != nil || id == "" {
		t.Fatalf("Expected an ID for an object URI, got %q (%v)", id, err)
	}
	if again, _ := FingerprintImage("s3://invoices/2024/scan.png"); again != id {
		t.Errorf("Hash is not deterministic. Got %s, then %s", id, again)
	}
	if other, _ := FingerprintImage("s3://invoices/2024/other.png"); other == id {
		t.Error("Different keys produced the same ID")
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	WriteError(&buf, errors.New("bad <input> & more"))
	want := `{"error":"bad <input> & more"}` + "\n"
	if buf.String() != want {
		t.Errorf("WriteError() = %q, want %q", buf.String(), want)
	}
}

func TestSafeCommandFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// Stderr output wins over the exit status
	cmd := NewSafeCommand(context.Background(), "sh", "-c", "echo 'Error, cannot read input file' >&2; exit 1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("Expected command to fail")
	}
	if got := cmd.Failure(err).Error(); got != "Error, cannot read input file" {
		t.Errorf("Failure() = %q, want captured stderr", got)
	}

	// Silent failures fall back to the exec error
	cmd = NewSafeCommand(context.Background(), "sh", "-c", "exit 3")
	err = cmd.Run()
	if err == nil {
		t.Fatal("Expected command to fail")
	}
	if got := cmd.Failure(err); got != err {
		t.Errorf("Failure() = %v, want the exec error %v", got, err)
	}
}
