package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/bmtcstats/analysis"
	"github.com/zalepa/bmtcstats/chart"
	"github.com/zalepa/bmtcstats/table"
)

const revenueCSV = `Factors,2017-18,2018-19,2019-20,2020-21,2021-22,2022-23
Through Sale of Tickets,"1,20,000","1,25,000","1,30,000","40,000","90,000","1,35,000"
Monthly pass,"12,000","12,500","13,000","3,000","9,000","13,500"
Daily pass,"8,500","9,100","9,400","2,000","7,000","9,900"
Student pass,"4,000","3,900","4,100",NA,"2,500","4,200"
Others,700,650,720,300,500,800
Total,"1,45,200","1,51,150","1,57,220","45,300","1,09,000","1,63,400"
`

func cleanRevenue(t *testing.T) (*table.RawTable, *table.Result) {
	t.Helper()
	raw, res, err := runPipeline(strings.NewReader(revenueCSV), false)
	require.NoError(t, err)
	return raw, res
}

func TestRunPipeline(t *testing.T) {
	raw, res := cleanRevenue(t)

	assert.Equal(t, 6, raw.Len())
	years, cats := res.Table.Dims()
	assert.Equal(t, 6, years)
	assert.Equal(t, 6, cats)
	assert.Empty(t, res.Warnings())

	v, ok := res.Table.Value("2020-21", "Student pass")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
	v, _ = res.Table.Value("2022-23", "Total")
	assert.Equal(t, 163400.0, v)
}

func TestRunPipeline_Errors(t *testing.T) {
	_, _, err := runPipeline(strings.NewReader("Category,2020-21\nTotal,5\n"), false)
	assert.True(t, table.IsMissingColumn(err))

	_, _, err = runPipeline(strings.NewReader(""), false)
	assert.True(t, errors.Is(err, table.ErrEmptyInput))
}

func TestRunPipeline_HeaderOnly(t *testing.T) {
	raw, res, err := runPipeline(strings.NewReader("Factors,2020-21\n"), false)
	require.NoError(t, err)
	assert.Equal(t, 0, raw.Len())
	assert.True(t, res.Table.Empty())
	assert.Len(t, res.Warnings(), len(table.DefaultCategories))
}

func TestResolveColumns(t *testing.T) {
	_, res := cleanRevenue(t)

	cols, err := resolveColumns(res.Table, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, chart.Columns{Column: "Through Sale of Tickets", X: "Daily pass", Y: "Total"}, cols)

	cols, err = resolveColumns(res.Table, "Others", "Monthly pass", "")
	require.NoError(t, err)
	assert.Equal(t, chart.Columns{Column: "Others", X: "Monthly pass", Y: "Total"}, cols)

	_, err = resolveColumns(res.Table, "Fines", "", "")
	assert.True(t, errors.Is(err, analysis.ErrUnknownColumn))
	assert.Contains(t, err.Error(), "Fines")
}
