package csvparse

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "plain", line: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "single field", line: "a", want: []string{"a"}},
		{name: "empty middle", line: "a,,c", want: []string{"a", "", "c"}},
		{name: "trailing comma", line: "a,b,", want: []string{"a", "b", ""}},
		{name: "double trailing comma", line: "a,,", want: []string{"a", "", ""}},
		{name: "leading comma", line: ",b", want: []string{"", "b"}},
		{name: "quoted comma", line: `"Paris, France",FR`, want: []string{"Paris, France", "FR"}},
		{name: "escaped quotes", line: `x,"a, ""b"" c"`, want: []string{"x", `a, "b" c`}},
		{name: "quoted then trailing comma", line: `"q",`, want: []string{"q", ""}},
		{name: "empty quoted", line: `"",z`, want: []string{"", "z"}},
		{name: "unterminated quote is raw", line: `"abc,d`, want: []string{`"abc`, "d"}},
		{name: "text after closing quote is raw", line: `"ab"c,d`, want: []string{`"ab"c`, "d"}},
		{name: "spaces kept", line: " a , b ", want: []string{" a ", " b "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLine(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SplitLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestParse(t *testing.T) {
	text := "City, Lat ,Lng\r\nParis,48.85,2.35\n\n   \nLyon,45.76\n\"Nice, FR\",43.7,7.26,extra\n"

	table, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"City", "Lat", "Lng"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, core.Row{"City": "Paris", "Lat": "48.85", "Lng": "2.35"}, table.Rows[0])
	assert.Equal(t, core.Row{"City": "Lyon", "Lat": "45.76", "Lng": ""}, table.Rows[1], "short rows backfill")
	assert.Equal(t, core.Row{"City": "Nice, FR", "Lat": "43.7", "Lng": "7.26"}, table.Rows[2], "extra fields dropped")
}

func TestParse_EveryHeaderPresent(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("a,b,c,d\n")
	lines := []string{"1", "1,2", "1,2,3", "1,2,3,4", ",,,", "x,"}
	for _, l := range lines {
		sb.WriteString(l + "\n")
	}

	table, err := Parse(sb.String())
	require.NoError(t, err)
	require.Len(t, table.Rows, len(lines))
	for i, row := range table.Rows {
		assert.Len(t, row, 4, "row %d", i)
		for _, h := range table.Headers {
			_, ok := row[h]
			assert.True(t, ok, "row %d missing %q", i, h)
		}
	}
}

func TestParse_QuotedFieldValue(t *testing.T) {
	table, err := Parse("Name,Note\nx,\"a, \"\"b\"\" c\"\n")
	require.NoError(t, err)
	assert.Equal(t, `a, "b" c`, table.Rows[0]["Note"])
}

func TestParse_TrailingCommaAddsField(t *testing.T) {
	table, err := Parse("a,b,\n1,2,\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", ""}, table.Headers)
	assert.Equal(t, core.Row{"a": "1", "b": "2", "": ""}, table.Rows[0])
}

func TestParse_DuplicateHeaders(t *testing.T) {
	table, err := Parse("id,name,name\n1,first,second\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, table.Headers)
	assert.Equal(t, "second", table.Rows[0]["name"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "empty", text: "", want: core.ErrTooFewLines},
		{name: "blank lines only", text: "\n  \r\n\n", want: core.ErrTooFewLines},
		{name: "header only", text: "a,b,c\n\n", want: core.ErrTooFewLines},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(tt.text)
			assert.Nil(t, table)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseReader(t *testing.T) {
	t.Run("strips BOM", func(t *testing.T) {
		table, err := ParseReader(strings.NewReader("\ufeffCity,Lat\nRome,41.9\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"City", "Lat"}, table.Headers)
	})

	t.Run("read failure is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := ParseReader(iotest.ErrReader(boom))
		assert.ErrorIs(t, err, boom)
	})
}

func TestCheckFilename(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		wantErr     bool
	}{
		{"csv extension", "data.csv", "", false},
		{"upper extension", "DATA.CSV", "application/octet-stream", false},
		{"content type", "export", "text/csv; charset=utf-8", false},
		{"xlsx", "data.xlsx", "application/vnd.ms-excel", true},
		{"no hints", "data", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFilename(tt.file, tt.contentType)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrNotCSV)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
