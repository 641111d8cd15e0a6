package engine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/andresmejia3/ocrline/internal/types"
)

// Tesseract TSV layout levels.
const (
	levelLine = 4
	levelWord = 5
)

// tsvRow is one data row of tesseract's TSV output.
type tsvRow struct {
	level                    int
	page, block, par, line   int
	left, top, width, height int
	conf                     float64
	text                     string
}

type lineKey struct{ page, block, par, line int }

// lineAcc accumulates the words of a single text line.
type lineAcc struct {
	key      lineKey
	rect     [4]int // minX, minY, maxX, maxY
	haveRect bool
	text     strings.Builder
	confSum  float64
	words    int
}

// ParseTSV converts tesseract TSV output into one slice of lines per page.
// Lines without any recognized word are dropped.
func ParseTSV(r io.Reader) (types.Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var order []*lineAcc
	lines := map[lineKey]*lineAcc{}
	maxPage := 0

	header := true
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		if header {
			header = false
			if strings.HasPrefix(raw, "level") {
				continue
			}
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		row, err := parseRow(raw)
		if err != nil {
			return nil, err
		}
		if row.page > maxPage {
			maxPage = row.page
		}
		if row.level != levelLine && row.level != levelWord {
			continue
		}

		key := lineKey{row.page, row.block, row.par, row.line}
		acc, ok := lines[key]
		if !ok {
			acc = &lineAcc{key: key}
			lines[key] = acc
			order = append(order, acc)
		}

		switch row.level {
		case levelLine:
			acc.rect = [4]int{row.left, row.top, row.left + row.width, row.top + row.height}
			acc.haveRect = true
		case levelWord:
			acc.addWord(row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}

	if maxPage == 0 {
		return nil, nil
	}
	res := make(types.Result, maxPage)
	for _, acc := range order {
		if acc.words == 0 {
			continue
		}
		idx := acc.key.page - 1
		if idx < 0 {
			idx = 0
		}
		res[idx] = append(res[idx], acc.toLine())
	}
	return res, nil
}

func parseRow(raw string) (tsvRow, error) {
	fields := strings.Split(raw, "\t")
	if len(fields) < 11 {
		return tsvRow{}, fmt.Errorf("malformed tsv row %q: want at least 11 fields, got %d", raw, len(fields))
	}

	ints := make([]int, 10)
	for i := 0; i < 10; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return tsvRow{}, fmt.Errorf("malformed tsv row %q: field %d: %w", raw, i, err)
		}
		ints[i] = n
	}
	conf, err := strconv.ParseFloat(strings.TrimSpace(fields[10]), 64)
	if err != nil {
		return tsvRow{}, fmt.Errorf("malformed tsv row %q: conf: %w", raw, err)
	}

	row := tsvRow{
		level: ints[0],
		page:  ints[1], block: ints[2], par: ints[3], line: ints[4],
		left: ints[6], top: ints[7], width: ints[8], height: ints[9],
		conf: conf,
	}
	if len(fields) > 11 {
		row.text = strings.Join(fields[11:], "\t")
	}
	return row, nil
}

func (a *lineAcc) addWord(row tsvRow) {
	word := strings.TrimSpace(row.text)
	if row.conf < 0 || word == "" {
		return
	}
	if a.text.Len() > 0 && !joinsWithoutSpace(a.text.String(), word) {
		a.text.WriteByte(' ')
	}
	a.text.WriteString(word)
	a.confSum += row.conf
	a.words++

	wr := [4]int{row.left, row.top, row.left + row.width, row.top + row.height}
	if !a.haveRect {
		a.rect = wr
		a.haveRect = true
		return
	}
	a.rect[0] = min(a.rect[0], wr[0])
	a.rect[1] = min(a.rect[1], wr[1])
	a.rect[2] = max(a.rect[2], wr[2])
	a.rect[3] = max(a.rect[3], wr[3])
}

func (a *lineAcc) toLine() types.Line {
	return types.Line{
		Text:       a.text.String(),
		Confidence: normalizeConfidence(a.confSum / float64(a.words)),
		Quad: types.QuadFromRect(
			float64(a.rect[0]), float64(a.rect[1]),
			float64(a.rect[2]), float64(a.rect[3]),
		),
	}
}

// joinsWithoutSpace reports whether next follows prev with no separator.
// Tesseract splits CJK text into one "word" per glyph.
func joinsWithoutSpace(prev, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(next)
	return unicode.Is(unicode.Han, last) && unicode.Is(unicode.Han, first)
}

// normalizeConfidence maps tesseract's 0-100 scale onto [0, 1].
func normalizeConfidence(c float64) float64 {
	c /= 100
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
