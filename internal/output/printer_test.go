package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type row struct {
	ID      string `json:"id" yaml:"id"`
	Subject string `json:"subject" yaml:"subject"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{" JSON ", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, FormatJSON)
	p.Message("hidden in machine output")
	require.NoError(t, p.Print([]row{{ID: "1", Subject: "HW3"}}, Table{}))

	var got []row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []row{{ID: "1", Subject: "HW3"}}, got)
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatYAML).Print(row{ID: "7", Subject: "Regrade"}, Table{}))

	var got row
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, row{ID: "7", Subject: "Regrade"}, got)
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, FormatTable)
	p.Message("Page %d of %d", 1, 3)
	require.NoError(t, p.Print(nil, KeyValues("Subject", "HW3", "From", "Ana")))

	out := buf.String()
	assert.Contains(t, out, "Page 1 of 3\n")
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "Subject")
	assert.Contains(t, out, "Ana")
}

func TestPrintEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable).Print(nil, Table{Headers: []string{"ID"}}))
	assert.Equal(t, "No results.\n", buf.String())
}

func TestKeyValuesIgnoresDanglingKey(t *testing.T) {
	tbl := KeyValues("a", "1", "b")
	assert.Equal(t, [][]string{{"a", "1"}}, tbl.Rows)
}
