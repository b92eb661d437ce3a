package seed

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/xuri/excelize/v2"
)

// zipMagic opens every .xlsx file, which is a zip archive.
var zipMagic = []byte("PK\x03\x04")

// isWorkbook reports whether data looks like an .xlsx file.
func isWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// ReadWorkbook reads the first sheet of an .xlsx catalog sheet into rows.
// The first row names the columns. Blank rows and cells under an unnamed
// column are skipped.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	const op = "seed.read_workbook"

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Invalid(op, fmt.Sprintf("malformed workbook: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.Invalid(op, "workbook has no sheets")
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.Invalid(op, fmt.Sprintf("read sheet %q: %v", sheets[0], err))
	}
	if len(grid) == 0 {
		return nil, nil
	}

	header := make([]string, len(grid[0]))
	for i, name := range grid[0] {
		header[i] = strings.TrimSpace(name)
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := Row{}
		for i, cell := range cells {
			if i >= len(header) || header[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			row[header[i]] = cell
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
