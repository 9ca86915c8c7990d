package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/aretw0/twsgraph/pkg/domain"
	"golang.org/x/text/transform"
)

// ExtraColumn collects the fields of a row beyond the header width.
const ExtraColumn = "__parsed_extra"

// Delimiters tried by auto-detection, in order of preference on ties.
var Delimiters = []rune{',', ';', '\t', '|'}

// Options configures Parse.
type Options struct {
	// Comma is the field delimiter. Zero means auto-detect from the header line.
	Comma rune
	// Encoding names the input character set. Empty means UTF-8.
	Encoding string
	// TrimHeaders strips surrounding whitespace from column headers.
	TrimHeaders bool
}

// Parse reads a tabular source into records keyed by the header row.
// source labels the input in errors. Failures are reported as *domain.ParseError.
func Parse(source string, r io.Reader, opts Options) ([]domain.Record, error) {
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, &domain.ParseError{Source: source, Err: err}
	}

	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, &domain.ParseError{Source: source, Err: err}
	}

	comma := opts.Comma
	if comma == 0 {
		comma = DetectDelimiter(firstLine(data))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // exports are ragged, shape is checked by the builder

	var header []string
	records := []domain.Record{}
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toParseError(source, err)
		}
		if blank(fields) {
			continue
		}
		if header == nil {
			header = normalizeHeader(fields, opts.TrimHeaders)
			continue
		}
		records = append(records, toRecord(header, fields, comma))
	}
	return records, nil
}

func toRecord(header, fields []string, comma rune) domain.Record {
	rec := domain.NewRecord()
	for i, col := range header {
		if i >= len(fields) {
			break // short row: missing columns stay absent
		}
		rec.Set(col, fields[i])
	}
	if len(fields) > len(header) {
		rec.Set(ExtraColumn, strings.Join(fields[len(header):], string(comma)))
	}
	return rec
}

func normalizeHeader(fields []string, trim bool) []string {
	header := make([]string, len(fields))
	for i, f := range fields {
		if trim {
			f = strings.TrimSpace(f)
		}
		header[i] = f
	}
	return header
}

// blank reports a line with no content. encoding/csv already drops empty
// lines; whitespace-only lines come back as a single blank field.
func blank(fields []string) bool {
	return len(fields) == 1 && strings.TrimSpace(fields[0]) == ""
}

func toParseError(source string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &domain.ParseError{Source: source, Line: csvErr.StartLine, Err: csvErr.Err}
	}
	return &domain.ParseError{Source: source, Err: err}
}

func firstLine(data []byte) string {
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		if s := strings.TrimSpace(string(line)); s != "" {
			return s
		}
	}
	return ""
}

// DetectDelimiter picks the candidate delimiter occurring most often outside
// quotes in line. It falls back to ',' when none occurs.
func DetectDelimiter(line string) rune {
	counts := make(map[rune]int, len(Delimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range Delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}
