package table

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportFixture(t *testing.T) *CleanedTable {
	t.Helper()
	tbl, err := NewCleaned(
		[]string{"2019-20", "2020-21"},
		[]string{"Daily pass", "Total"},
		[][]float64{{1234.5, 100000}, {0, 98765.25}},
	)
	require.NoError(t, err)
	return tbl
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportFixture(t)))

	want := "Year,Daily pass,Total\n" +
		"2019-20,1234.5,100000\n" +
		"2020-21,0,98765.25\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, exportFixture(t)))

	var got struct {
		Index      string   `json:"index"`
		Categories []string `json:"categories"`
		Rows       []struct {
			Year   string             `json:"year"`
			Values map[string]float64 `json:"values"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Year", got.Index)
	assert.Equal(t, []string{"Daily pass", "Total"}, got.Categories)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "2020-21", got.Rows[1].Year)
	assert.Equal(t, 98765.25, got.Rows[1].Values["Total"])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportFixture(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Year", "Daily pass", "Total"}, rows[0])
	assert.Equal(t, "2019-20", rows[1][0])
	assert.Equal(t, "1234.5", rows[1][1])
	assert.Equal(t, "98765.25", rows[2][2])
}

func TestNewCleaned_Rejects(t *testing.T) {
	_, err := NewCleaned([]string{"2020-21"}, []string{"Total"}, nil)
	assert.Error(t, err)

	_, err = NewCleaned([]string{"2020-21"}, []string{"Total"}, [][]float64{{1, 2}})
	assert.Error(t, err)

	_, err = NewCleaned([]string{"2020-21"}, []string{"Total"}, [][]float64{{math.NaN()}})
	assert.Error(t, err)
}
