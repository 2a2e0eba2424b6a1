package core

// Row maps a header name to the cell value for one CSV line.
// Missing cells are stored as the empty string.
type Row map[string]string

// Get returns the value for column, or "" when the column is absent.
func (r Row) Get(column string) string {
	if r == nil {
		return ""
	}
	return r[column]
}

// Table is a parsed CSV file.
type Table struct {
	// Headers are unique and keep file order.
	Headers []string
	// Rows hold one entry per non-blank data line, in file order.
	Rows []Row
}

// HasHeader reports whether name is one of the table headers.
func (t *Table) HasHeader(name string) bool {
	if t == nil {
		return false
	}
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnPair names the columns that hold latitude and longitude.
// An empty field means no column was found for that role.
type ColumnPair struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Complete reports whether both roles are filled.
func (p ColumnPair) Complete() bool {
	return p.Lat != "" && p.Lng != ""
}

// Excludes reports whether column is one of the coordinate source columns.
func (p ColumnPair) Excludes(column string) bool {
	return column != "" && (column == p.Lat || column == p.Lng)
}
