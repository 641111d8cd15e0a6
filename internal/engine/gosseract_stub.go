//go:build !gosseract

package engine

import (
	"errors"

	"github.com/andresmejia3/ocrline/internal/ocr"
)

// ErrGosseractNotEnabled is returned when the in-process engine was not compiled in.
// Rebuild with -tags gosseract (requires libtesseract headers) to enable it.
var ErrGosseractNotEnabled = errors.New("gosseract engine not enabled; rebuild with -tags gosseract")

// NewGosseract returns ErrGosseractNotEnabled in builds without the gosseract tag.
func NewGosseract() (ocr.Engine, error) {
	return nil, ErrGosseractNotEnabled
}
