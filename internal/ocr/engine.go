package ocr

import (
	"context"

	"github.com/andresmejia3/ocrline/internal/types"
)

// DefaultLang selects tesseract's combined Simplified Chinese + English models.
const DefaultLang = "chi_sim+eng"

// Config carries the engine settings for a single recognition.
type Config struct {
	Lang        string
	Orientation bool // correct text-line orientation before recognition
	TessdataDir string
}

// DefaultConfig returns the configuration used when no flags override it.
func DefaultConfig() Config {
	return Config{
		Lang:        DefaultLang,
		Orientation: true,
	}
}

// Engine detects and recognizes text lines in the image at path.
// A nil or empty Result means nothing was found.
type Engine interface {
	Recognize(ctx context.Context, path string, cfg Config) (types.Result, error)
}

// Resolver maps the user supplied path to a local file the engine can read.
// The returned cleanup func is always non-nil.
type Resolver interface {
	Resolve(ctx context.Context, path string) (local string, cleanup func(), err error)
}

// Recorder persists the outcome of a run. lines is nil when runErr is set.
type Recorder interface {
	RecordRun(ctx context.Context, path string, cfg Config, lines []types.Record, runErr error) error
}
