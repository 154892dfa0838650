package cmd

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/zalepa/bmtcstats/table"
)

func testServer(t *testing.T) http.Handler {
	t.Helper()
	return newRouter(Config{Port: "0", MaxUploadMB: 1, LogLevel: "debug"}, zap.NewNop())
}

// uploadRequest builds a multipart POST with csv as the "file" part and
// fields as extra form values.
func uploadRequest(t *testing.T, path, csv string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if csv != "" {
		fw, err := mw.CreateFormFile("file", "revenue.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(csv))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	testServer(t).ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) Problem {
	t.Helper()
	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p), rec.Body.String())
	return p
}

func TestIndex(t *testing.T) {
	rec := serve(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/analyze")
}

type analyzeBody struct {
	ID       string              `json:"id"`
	Columns  []string            `json:"columns"`
	Preview  [][]string          `json:"preview"`
	Missing  []table.ColumnCount `json:"missing"`
	Warnings []string            `json:"warnings"`
	Table    struct {
		Index      string   `json:"index"`
		Categories []string `json:"categories"`
		Rows       []struct {
			Year   string             `json:"year"`
			Values map[string]float64 `json:"values"`
		} `json:"rows"`
	} `json:"table"`
	Selection struct {
		Column string `json:"column"`
		X      string `json:"x"`
		Y      string `json:"y"`
	} `json:"selection"`
	Summaries   []map[string]any `json:"summaries"`
	Correlation struct {
		Labels []string     `json:"labels"`
		Values [][]*float64 `json:"values"`
	} `json:"correlation"`
	Test *struct {
		X           string  `json:"x"`
		Y           string  `json:"y"`
		N           int     `json:"n"`
		R           float64 `json:"r"`
		P           float64 `json:"p"`
		Significant bool    `json:"significant"`
		Conclusion  string  `json:"conclusion"`
	} `json:"test"`
	TestError *testErrorJSON `json:"testError"`
	Narrative []string       `json:"narrative"`
}

func TestAnalyze(t *testing.T) {
	rec := serve(t, uploadRequest(t, "/api/analyze", revenueCSV, map[string]string{"column": "Total"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got analyzeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	_, err := uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Factors", got.Columns[0])
	assert.Len(t, got.Preview, PreviewRows)
	assert.Equal(t, table.ColumnCount{Column: "2020-21", Count: 1}, got.Missing[4])
	assert.Empty(t, got.Warnings)
	assert.NotNil(t, got.Warnings)

	assert.Equal(t, "Year", got.Table.Index)
	assert.Equal(t, table.DefaultCategories, got.Table.Categories)
	require.Len(t, got.Table.Rows, 6)
	assert.Equal(t, 163400.0, got.Table.Rows[5].Values["Total"])

	assert.Equal(t, "Total", got.Selection.Column)
	assert.Equal(t, "Daily pass", got.Selection.X)
	assert.Equal(t, "Total", got.Selection.Y)

	assert.Len(t, got.Summaries, 6)
	require.Len(t, got.Correlation.Values, 6)
	require.NotNil(t, got.Correlation.Values[0][0])
	assert.InDelta(t, 1.0, *got.Correlation.Values[0][0], 1e-12)

	require.NotNil(t, got.Test)
	assert.Nil(t, got.TestError)
	assert.Equal(t, 6, got.Test.N)
	assert.Greater(t, got.Test.R, 0.9)
	assert.True(t, got.Test.Significant)
	assert.Contains(t, got.Test.Conclusion, "Reject H0")
	assert.NotEmpty(t, got.Narrative)
}

func TestAnalyze_SameVariable(t *testing.T) {
	rec := serve(t, uploadRequest(t, "/api/analyze", revenueCSV, map[string]string{"x": "Total", "y": "Total"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got analyzeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Nil(t, got.Test)
	require.NotNil(t, got.TestError)
	assert.Equal(t, "degenerate_selection", got.TestError.Code)
	assert.Equal(t, "Please choose two different variables.", got.TestError.Detail)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		fields map[string]string
		status int
		code   string
	}{
		{"missing factors", "Category,2020-21\nTotal,5\n", nil, http.StatusUnprocessableEntity, "missing_column"},
		{"blank file", "\n\n", nil, http.StatusUnprocessableEntity, "empty_input"},
		{"ragged rows", "Factors,2020-21\nTotal,5,6,7\n", nil, http.StatusUnprocessableEntity, "invalid_csv"},
		{"unknown column", revenueCSV, map[string]string{"column": "Fines"}, http.StatusBadRequest, "unknown_column"},
		{"no file", "", map[string]string{"column": "Total"}, http.StatusBadRequest, "missing_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, uploadRequest(t, "/api/analyze", tt.csv, tt.fields))
			assert.Equal(t, tt.status, rec.Code)
			p := decodeProblem(t, rec)
			assert.Equal(t, tt.code, p.Code)
			assert.Equal(t, tt.status, p.Status)
			assert.NotEmpty(t, p.Detail)
		})
	}
}

func TestAnalyze_UploadTooLarge(t *testing.T) {
	big := revenueCSV + strings.Repeat("Remark,1\n", 150000)
	rec := serve(t, uploadRequest(t, "/api/analyze", big, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "upload_too_large", decodeProblem(t, rec).Code)
}

func TestAnalyze_HeaderOnly(t *testing.T) {
	rec := serve(t, uploadRequest(t, "/api/analyze", "Factors,2020-21\n", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got analyzeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Table.Rows)
	assert.Empty(t, got.Summaries)
	assert.Len(t, got.Warnings, len(table.DefaultCategories))
	assert.Nil(t, got.Test)
	require.NotNil(t, got.TestError)
	assert.NotEmpty(t, got.Narrative)
}

func TestPlot(t *testing.T) {
	for _, kind := range []string{"trend", "box", "hist", "qq", "heatmap", "scatter", "violin"} {
		t.Run(kind, func(t *testing.T) {
			rec := serve(t, uploadRequest(t, "/api/plot/"+kind, revenueCSV, nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
		})
	}
}

func TestPlot_Errors(t *testing.T) {
	rec := serve(t, uploadRequest(t, "/api/plot/pie", revenueCSV, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_kind", decodeProblem(t, rec).Code)

	rec = serve(t, uploadRequest(t, "/api/plot/scatter", revenueCSV, map[string]string{"x": "Others", "y": "Others"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "degenerate_selection", decodeProblem(t, rec).Code)
}

func TestExport(t *testing.T) {
	rec := serve(t, uploadRequest(t, "/api/export.xlsx", revenueCSV, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(table.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Year", rows[0][0])
	assert.Equal(t, "2017-18", rows[1][0])
}

func TestNum(t *testing.T) {
	assert.Nil(t, num(math.NaN()))
	assert.Nil(t, num(math.Inf(1)))
	require.NotNil(t, num(2.5))
	assert.Equal(t, 2.5, *num(2.5))
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
	_, err := newLogger("loud")
	assert.Error(t, err)
}
