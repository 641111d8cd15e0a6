package types

// Point is an [x, y] coordinate pair in image pixels.
type Point [2]float64

// Quad is the bounding quadrilateral of a detected line, in the order the
// engine reports it: topLeft, topRight, bottomRight, bottomLeft.
type Quad [4]Point

// QuadFromRect builds an axis-aligned quad from a rectangle's corners.
func QuadFromRect(minX, minY, maxX, maxY float64) Quad {
	return Quad{
		{minX, minY},
		{maxX, minY},
		{maxX, maxY},
		{minX, maxY},
	}
}

// Line is one text line as produced by an OCR engine
type Line struct {
	Quad       Quad
	Text       string
	Confidence float64 // [0, 1]
}

// Result is the engine-native output: one slice of lines per image.
type Result [][]Line

// Box names the corners of a Quad for JSON output
type Box struct {
	TopLeft     Point `json:"topLeft"`
	TopRight    Point `json:"topRight"`
	BottomRight Point `json:"bottomRight"`
	BottomLeft  Point `json:"bottomLeft"`
}

// Record is the JSON shape emitted for every detected line
type Record struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// ErrorResult is the envelope written to stderr on failure
type ErrorResult struct {
	Error string `json:"error"`
}
