package utils

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/andresmejia3/ocrline/internal/types"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps a standard exec.Cmd with a buffer to catch Stderr (engine logs).
// Tesseract prints warnings there; keeping them out of our own stderr preserves the
// one-envelope-per-run contract.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command bound to ctx and attaches a buffer to its Stderr.
// It prepares the command for execution but does not start it.
func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// Failure turns a failed run into an error carrying the captured stderr.
// Without stderr output the exec error itself is returned.
func (s *SafeCommand) Failure(err error) error {
	if msg := strings.TrimSpace(s.Stderr.String()); msg != "" {
		return errors.New(msg)
	}
	return err
}

// --- 2. Error Envelope ---

// WriteError writes the {"error": "..."} envelope for err to w.
func WriteError(w io.Writer, err error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(types.ErrorResult{Error: err.Error()})
}

// Die is the unified exit strategy for ocrline.
// It writes the error envelope to stderr and exits with status 1.
func Die(err error) {
	WriteError(os.Stderr, err)
	os.Exit(1)
}

// --- 3. Image Identity ---

// FingerprintImage creates a deterministic hash for the image file
// based on its path, size, and modification time.
// Object-store URIs (s3://bucket/key) are identified by the URI itself.
func FingerprintImage(path string) (string, error) {
	if strings.HasPrefix(path, "s3://") {
		hash := sha256.Sum256([]byte(path))
		return hex.EncodeToString(hash[:]), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	input := fmt.Sprintf("%s-%d-%d", path, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:]), nil
}
