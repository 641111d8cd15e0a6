package ocr

import (
	"encoding/json"
	"io"

	"github.com/andresmejia3/ocrline/internal/types"
)

// Format flattens the first image of res into output records.
// An absent result, or an empty first image, yields an empty non-nil slice.
func Format(res types.Result) []types.Record {
	records := []types.Record{}
	if len(res) == 0 || len(res[0]) == 0 {
		return records
	}
	for _, line := range res[0] {
		records = append(records, ToRecord(line))
	}
	return records
}

// ToRecord names the quad corners positionally, whatever their geometry.
func ToRecord(line types.Line) types.Record {
	return types.Record{
		Text:       line.Text,
		Confidence: line.Confidence,
		Box: types.Box{
			TopLeft:     line.Quad[0],
			TopRight:    line.Quad[1],
			BottomRight: line.Quad[2],
			BottomLeft:  line.Quad[3],
		},
	}
}

// Encode writes records as a single JSON line. Non-ASCII text is kept literal.
func Encode(w io.Writer, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}
