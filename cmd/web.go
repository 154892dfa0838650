package cmd

import (
	"bytes"
	"embed"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/zalepa/bmtcstats/analysis"
	"github.com/zalepa/bmtcstats/chart"
	"github.com/zalepa/bmtcstats/table"
)

//go:embed web.html
var htmlContent embed.FS

// Config is the web server configuration, read from BMTC_* environment
// variables.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MaxUploadMB int64  `envconfig:"MAX_UPLOAD_MB" default:"10"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

func (c Config) maxUploadBytes() int64 { return c.MaxUploadMB << 20 }

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Web implements the "web" subcommand.
func Web(args []string) {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	port := fs.String("port", "", "HTTP server port (overrides BMTC_PORT)")
	verbose := fs.Bool("verbose", false, "log at debug level")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bmtcstats web [--port 8080] [--verbose]\n\nStart the interactive dashboard.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(fs, args))

	_ = godotenv.Load(".env")
	var cfg Config
	if err := envconfig.Process("BMTC", &cfg); err != nil {
		fatal("config: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fatal("logger: %v", err)
	}
	defer logger.Sync()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Fprintf(os.Stderr, "Listening on http://localhost:%s\n", cfg.Port)
	logger.Info("server started", zap.String("addr", srv.Addr), zap.Int64("max_upload_mb", cfg.MaxUploadMB))
	if err := srv.ListenAndServe(); err != nil {
		fatal("%v", err)
	}
}

type server struct {
	cfg    Config
	logger *zap.Logger
}

func newRouter(cfg Config, logger *zap.Logger) http.Handler {
	s := &server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.index)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.analyze)
		r.Post("/plot/{kind}", s.plot)
		r.Post("/export.xlsx", s.export)
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	data, _ := htmlContent.ReadFile("web.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// Problem is an RFC 7807 problem details body. Code is a stable machine
// readable identifier for the failure.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// Render implements render.Renderer.
func (p *Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

func newProblem(status int, code string, err error) *Problem {
	p := &Problem{
		Type:   "/problems/" + code,
		Title:  http.StatusText(status),
		Status: status,
		Code:   code,
	}
	if err != nil {
		p.Detail = err.Error()
	}
	return p
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, p *Problem) {
	p.Trace = middleware.GetReqID(r.Context())
	s.logger.Debug("request failed",
		zap.String("request_id", p.Trace),
		zap.String("code", p.Code),
		zap.String("detail", p.Detail),
	)
	render.Render(w, r, p)
}

// pipelineProblem maps a cleaning failure to a problem body.
func pipelineProblem(err error) *Problem {
	switch {
	case table.IsMissingColumn(err):
		return newProblem(http.StatusUnprocessableEntity, "missing_column", err)
	case errors.Is(err, table.ErrEmptyInput):
		return newProblem(http.StatusUnprocessableEntity, "empty_input", err)
	default:
		return newProblem(http.StatusUnprocessableEntity, "invalid_csv", err)
	}
}

// analysisProblem maps a caller mistake in the column selection to a
// problem body.
func analysisProblem(err error) *Problem {
	switch {
	case analysis.IsDegenerate(err):
		return newProblem(http.StatusBadRequest, "degenerate_selection", err)
	case errors.Is(err, analysis.ErrUnknownColumn):
		return newProblem(http.StatusBadRequest, "unknown_column", err)
	case errors.Is(err, chart.ErrUnknownKind):
		return newProblem(http.StatusBadRequest, "unknown_kind", err)
	default:
		return newProblem(http.StatusUnprocessableEntity, "chart_unavailable", err)
	}
}

type upload struct {
	raw  *table.RawTable
	res  *table.Result
	cols chart.Columns
}

// readUpload parses the multipart form, runs the cleaning pipeline on the
// uploaded file and resolves the column selection.
func (s *server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, *Problem) {
	limit := s.cfg.maxUploadBytes()
	if r.ContentLength > limit {
		return nil, newProblem(http.StatusRequestEntityTooLarge, "upload_too_large",
			fmt.Errorf("upload exceeds %d MB", s.cfg.MaxUploadMB))
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, newProblem(http.StatusRequestEntityTooLarge, "upload_too_large",
				fmt.Errorf("upload exceeds %d MB", s.cfg.MaxUploadMB))
		}
		return nil, newProblem(http.StatusBadRequest, "invalid_form", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, newProblem(http.StatusBadRequest, "missing_file", err)
	}
	defer f.Close()

	raw, res, err := runPipeline(f, r.FormValue("strict") == "true")
	if err != nil {
		return nil, pipelineProblem(err)
	}
	cols, err := resolveColumns(res.Table, r.FormValue("column"), r.FormValue("x"), r.FormValue("y"))
	if err != nil {
		return nil, analysisProblem(err)
	}
	return &upload{raw: raw, res: res, cols: cols}, nil
}

type summaryJSON struct {
	Column      string   `json:"column"`
	Count       int      `json:"count"`
	Mean        *float64 `json:"mean"`
	Median      *float64 `json:"median"`
	TrimmedMean *float64 `json:"trimmedMean"`
	StdDev      *float64 `json:"stdDev"`
	MAD         *float64 `json:"mad"`
	IQR         *float64 `json:"iqr"`
	Min         *float64 `json:"min"`
	Max         *float64 `json:"max"`
	Skew        *float64 `json:"skew"`
	ExKurtosis  *float64 `json:"exKurtosis"`
}

type matrixJSON struct {
	Labels []string     `json:"labels"`
	Values [][]*float64 `json:"values"`
}

type testJSON struct {
	analysis.PearsonResult
	Significant bool   `json:"significant"`
	Conclusion  string `json:"conclusion"`
}

type testErrorJSON struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type analyzeResponse struct {
	ID          string              `json:"id"`
	Columns     []string            `json:"columns"`
	Preview     [][]string          `json:"preview"`
	Missing     []table.ColumnCount `json:"missing"`
	Table       *table.CleanedTable `json:"table"`
	Warnings    []string            `json:"warnings"`
	Selection   chart.Columns       `json:"selection"`
	Summaries   []summaryJSON       `json:"summaries"`
	Correlation matrixJSON          `json:"correlation"`
	Test        *testJSON           `json:"test,omitempty"`
	TestError   *testErrorJSON      `json:"testError,omitempty"`
	Narrative   []string            `json:"narrative"`
}

// num maps NaN and infinities to JSON null.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func toSummaryJSON(s analysis.Summary) summaryJSON {
	return summaryJSON{
		Column:      s.Column,
		Count:       s.Count,
		Mean:        num(s.Mean),
		Median:      num(s.Median),
		TrimmedMean: num(s.TrimmedMean),
		StdDev:      num(s.StdDev),
		MAD:         num(s.MAD),
		IQR:         num(s.IQR),
		Min:         num(s.Min),
		Max:         num(s.Max),
		Skew:        num(s.Skew),
		ExKurtosis:  num(s.ExKurtosis),
	}
}

func toMatrixJSON(m analysis.Matrix) matrixJSON {
	out := matrixJSON{Labels: m.Labels, Values: make([][]*float64, len(m.Values))}
	for i, row := range m.Values {
		out.Values[i] = make([]*float64, len(row))
		for j, v := range row {
			out.Values[i][j] = num(v)
		}
	}
	return out
}

func (s *server) analyze(w http.ResponseWriter, r *http.Request) {
	u, p := s.readUpload(w, r)
	if p != nil {
		s.fail(w, r, p)
		return
	}
	t := u.res.Table

	resp := analyzeResponse{
		ID:          uuid.NewString(),
		Columns:     u.raw.Columns(),
		Preview:     u.raw.Head(PreviewRows),
		Missing:     u.raw.MissingCounts(),
		Table:       t,
		Warnings:    u.res.Warnings(),
		Selection:   u.cols,
		Correlation: toMatrixJSON(analysis.CorrelationMatrix(t)),
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	resp.Summaries = []summaryJSON{}
	for _, sum := range analysis.Summarize(t) {
		resp.Summaries = append(resp.Summaries, toSummaryJSON(sum))
	}

	var test *analysis.PearsonResult
	if res, err := analysis.TestPair(t, u.cols.X, u.cols.Y); err != nil {
		resp.TestError = &testErrorJSON{Code: analysisProblem(err).Code, Detail: err.Error()}
		if analysis.IsDegenerate(err) {
			resp.TestError.Detail = "Please choose two different variables."
		}
	} else {
		test = &res
		resp.Test = &testJSON{PearsonResult: res, Significant: res.Significant(), Conclusion: res.Conclusion()}
	}
	resp.Narrative = analysis.Narrate(t, u.cols.Column, test)

	years, cats := t.Dims()
	s.logger.Info("analysis completed",
		zap.String("analysis_id", resp.ID),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("years", years),
		zap.Int("categories", cats),
		zap.Int("warnings", len(resp.Warnings)),
	)
	render.JSON(w, r, resp)
}

func (s *server) plot(w http.ResponseWriter, r *http.Request) {
	kind, err := chart.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.fail(w, r, analysisProblem(err))
		return
	}
	u, p := s.readUpload(w, r)
	if p != nil {
		s.fail(w, r, p)
		return
	}
	pl, err := chart.Build(u.res.Table, kind, u.cols)
	if err != nil {
		s.fail(w, r, analysisProblem(err))
		return
	}
	var buf bytes.Buffer
	if err := chart.WritePNG(&buf, pl, plotWidth, plotHeight); err != nil {
		s.fail(w, r, newProblem(http.StatusInternalServerError, "render_failed", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *server) export(w http.ResponseWriter, r *http.Request) {
	u, p := s.readUpload(w, r)
	if p != nil {
		s.fail(w, r, p)
		return
	}
	var buf bytes.Buffer
	if err := table.WriteXLSX(&buf, u.res.Table); err != nil {
		s.fail(w, r, newProblem(http.StatusInternalServerError, "export_failed", err))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bmtc_cleaned.xlsx"`)
	w.Write(buf.Bytes())
}
