// Package engine provides the OCR backends behind the ocr.Engine interface.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andresmejia3/ocrline/internal/ocr"
)

// Engine names accepted by New.
const (
	Tesseract = "tesseract" // tesseract binary, TSV output
	Gosseract = "gosseract" // in-process libtesseract, requires -tags gosseract
)

// Options configures backend construction.
type Options struct {
	TesseractBin string
}

var constructors = map[string]func(Options) (ocr.Engine, error){
	Tesseract: func(o Options) (ocr.Engine, error) { return NewCLI(o.TesseractBin), nil },
	Gosseract: func(Options) (ocr.Engine, error) { return NewGosseract() },
}

// Names lists the registered engines in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the engine registered under name.
func New(name string, opts Options) (ocr.Engine, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown OCR engine %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(opts)
}
