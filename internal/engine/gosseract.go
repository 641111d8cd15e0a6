//go:build gosseract

package engine

import (
	"context"
	"strings"

	"github.com/andresmejia3/ocrline/internal/ocr"
	"github.com/andresmejia3/ocrline/internal/types"
	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine recognizes text in-process through libtesseract.
// A fresh client is created per call; the process only ever runs one.
type GosseractEngine struct{}

// NewGosseract returns the in-process engine.
func NewGosseract() (ocr.Engine, error) {
	return &GosseractEngine{}, nil
}

func (g *GosseractEngine) Recognize(ctx context.Context, path string, cfg ocr.Config) (types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	// libtesseract writes diagnostics straight to the process stderr otherwise.
	if err := client.DisableOutput(); err != nil {
		return nil, err
	}
	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			return nil, err
		}
	}
	if err := client.SetLanguage(strings.Split(cfg.Lang, "+")...); err != nil {
		return nil, err
	}
	mode := gosseract.PSM_AUTO
	if cfg.Orientation {
		mode = gosseract.PSM_AUTO_OSD
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return nil, err
	}
	if err := client.SetImage(path); err != nil {
		return nil, err
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, err
	}

	lines := make([]types.Line, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		lines = append(lines, types.Line{
			Text:       text,
			Confidence: normalizeConfidence(b.Confidence),
			Quad: types.QuadFromRect(
				float64(b.Box.Min.X), float64(b.Box.Min.Y),
				float64(b.Box.Max.X), float64(b.Box.Max.Y),
			),
		})
	}
	return types.Result{lines}, nil
}
