package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// Table is a decoded CSV file: the header row and the data rows after it.
// Lines holds the physical line of each data row; empty lines are not
// returned as rows but still count.
type Table struct {
	Header    []string
	Rows      [][]string
	Lines     []int
	Delimiter rune
}

// Line returns the physical line number of data row i. Tables built without
// Lines number rows consecutively after a header on line 1.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + firstDataRow
}

// newRawReader returns a tolerant reader: ragged rows and stray quotes are
// accepted so that a single malformed line becomes a row error instead of a
// file error.
func newRawReader(in io.Reader, delimiter rune) *csv.Reader {
	r := csv.NewReader(in)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

// ReadTable decodes a whole CSV input. A zero delimiter is sniffed from the
// header line.
func ReadTable(in io.Reader, delimiter rune) (*Table, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV input: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if delimiter == 0 {
		delimiter = SniffDelimiter(data)
	}

	r := newRawReader(bytes.NewReader(data), delimiter)
	table := &Table{Delimiter: delimiter}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode CSV: %w", err)
		}
		if table.Header == nil {
			table.Header = record
			continue
		}
		line, _ := r.FieldPos(0)
		table.Rows = append(table.Rows, record)
		table.Lines = append(table.Lines, line)
	}
	if table.Header == nil {
		return nil, fmt.Errorf("CSV input is empty")
	}
	return table, nil
}

// SniffDelimiter picks the candidate delimiter occurring most often outside
// quotes on the first non-empty line. Comma wins ties and the no-match case.
func SniffDelimiter(data []byte) rune {
	line := firstLine(data)
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', counts[',']
	for _, d := range candidateDelimiters[1:] {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func firstLine(data []byte) []byte {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		var line []byte
		if i < 0 {
			line, data = data, nil
		} else {
			line, data = data[:i], data[i+1:]
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return line
		}
	}
	return nil
}
