// Package csvparse turns uploaded CSV text into a core.Table.
//
// The dialect is deliberately small: one record per line, comma separated,
// optional double-quoted fields with "" as an escaped quote. Quoted fields
// cannot span lines.
package csvparse

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

const bom = "\ufeff"

// Parse splits text into a header row and data rows.
// Blank lines are skipped. It fails with core.ErrTooFewLines when fewer than
// two non-blank lines exist and core.ErrNoDataRows when no row survives.
func Parse(text string) (*core.Table, error) {
	lines := nonBlankLines(text)
	if len(lines) < 2 {
		return nil, core.ErrTooFewLines
	}

	rawHeaders := SplitLine(lines[0])
	headers := make([]string, 0, len(rawHeaders))
	positions := make([]int, 0, len(rawHeaders))
	seen := make(map[string]int, len(rawHeaders))
	for i, h := range rawHeaders {
		h = strings.TrimSpace(h)
		if prev, dup := seen[h]; dup {
			// later column feeds the same key, header list keeps first position
			positions[prev] = i
			continue
		}
		seen[h] = len(headers)
		headers = append(headers, h)
		positions = append(positions, i)
	}

	rows := make([]core.Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := SplitLine(line)
		row := make(core.Row, len(headers))
		for i, h := range headers {
			pos := positions[i]
			if pos < len(values) {
				row[h] = strings.TrimSpace(values[pos])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, core.ErrNoDataRows
	}

	return &core.Table{Headers: headers, Rows: rows}, nil
}

// ParseReader reads all of r and parses it. A UTF-8 byte order mark is
// dropped and invalid UTF-8 sequences are replaced.
func ParseReader(r io.Reader) (*core.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	text = strings.TrimPrefix(text, bom)
	return Parse(text)
}

// CheckFilename accepts files that either end in .csv or declare text/csv.
func CheckFilename(name, contentType string) error {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return nil
	}
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "text/csv" {
			return nil
		}
	}
	return core.ErrNotCSV
}

// SplitLine splits one CSV line into raw (untrimmed) field values.
//
// A field that opens with a double quote and has a matching closing quote
// followed by a comma or end of line is unquoted and "" becomes ".
// Anything else is taken verbatim up to the next comma. A trailing comma
// produces a final empty field.
func SplitLine(line string) []string {
	var fields []string
	i := 0
	for {
		if i < len(line) && line[i] == '"' {
			if value, next, ok := readQuoted(line, i); ok {
				fields = append(fields, value)
				if next >= len(line) {
					return fields
				}
				// line[next] is the separating comma
				i = next + 1
				continue
			}
		}

		j := strings.IndexByte(line[i:], ',')
		if j < 0 {
			return append(fields, line[i:])
		}
		fields = append(fields, line[i:i+j])
		i += j + 1
	}
}

// readQuoted reads a quoted field starting at the opening quote at start.
// It returns the decoded value and the index just past the closing quote.
func readQuoted(line string, start int) (string, int, bool) {
	var sb strings.Builder
	k := start + 1
	for k < len(line) {
		c := line[k]
		if c != '"' {
			sb.WriteByte(c)
			k++
			continue
		}
		if k+1 < len(line) && line[k+1] == '"' {
			sb.WriteByte('"')
			k += 2
			continue
		}
		after := k + 1
		if after == len(line) || line[after] == ',' {
			return sb.String(), after, true
		}
		return "", 0, false
	}
	return "", 0, false
}

func nonBlankLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
