package cmd

import (
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/zalepa/bmtcstats/chart"
)

func sparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(blocks)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return strings.Repeat(" ", len(values))
	}

	spread := hi - lo
	var sb strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := n / 2
		if spread > 0 {
			idx = min(int((v-lo)/spread*float64(n-1)), n-1)
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

// renderChart draws a line chart of values against labels, one column band
// per point, 15 rows high.
func renderChart(w io.Writer, title string, labels []string, values []float64) {
	fmt.Fprintln(w, title)
	if len(values) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}
	fmt.Fprintln(w)

	height := 15
	nPoints := len(values)

	// Fit the data area in about 100 characters.
	labelWidth := 10
	band := max(min((100-labelWidth)/nPoints, 8), 3)

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = 1
		minVal -= 0.5
		maxVal += 0.5
	}

	// Row 0 is the bottom.
	pointRows := make([]int, nPoints)
	for i, v := range values {
		row := int(math.Round((v - minVal) / valRange * float64(height-1)))
		pointRows[i] = max(0, min(row, height-1))
	}

	totalWidth := nPoints * band
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", totalWidth))
	}

	for i := 0; i < nPoints; i++ {
		col := i*band + band/2
		grid[pointRows[i]][col] = '●'

		if i == nPoints-1 {
			continue
		}
		endCol := (i+1)*band + band/2
		startRow, endRow := pointRows[i], pointRows[i+1]
		for c := col + 1; c < endCol; c++ {
			t := float64(c-col) / float64(endCol-col)
			r := int(math.Round(float64(startRow) + t*float64(endRow-startRow)))
			r = max(0, min(r, height-1))
			if grid[r][c] == ' ' {
				grid[r][c] = '·'
			}
		}
	}

	yLabels := make(map[int]string)
	for i := 0; i < 5; i++ {
		row := int(math.Round(float64(i) / 4.0 * float64(height-1)))
		yLabels[row] = chart.FormatCompact(minVal + float64(row)/float64(height-1)*valRange)
	}

	for r := height - 1; r >= 0; r-- {
		fmt.Fprintf(w, "%8s │%s\n", yLabels[r], string(grid[r]))
	}
	fmt.Fprintf(w, "%8s └%s\n", "", strings.Repeat("─", totalWidth))

	labelEvery := 1
	if band < 8 {
		labelEvery = (8 + band - 1) / band
	}
	xLine := []byte(strings.Repeat(" ", totalWidth))
	for i := 0; i < nPoints && i < len(labels); i += labelEvery {
		label := labels[i]
		pos := max(0, i*band+band/2-len(label)/2)
		for j := 0; j < len(label) && pos+j < totalWidth; j++ {
			xLine[pos+j] = label[j]
		}
	}
	fmt.Fprintf(w, "%8s  %s\n", "", string(xLine))
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "- -"
	}
	if v == float64(int64(v)) && math.Abs(v) < 1e15 {
		return formatInt(int64(v))
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', 2, 64), ".")
	s := addCommas(whole) + "." + frac
	if v < 0 {
		return "-" + s
	}
	return s
}

func formatInt(v int64) string {
	s := strconv.FormatInt(v, 10)
	if v < 0 {
		return "-" + addCommas(s[1:])
	}
	return addCommas(s)
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var sb strings.Builder
	pre := n % 3
	if pre > 0 {
		sb.WriteString(s[:pre])
		sb.WriteByte(',')
	}
	for i := pre; i < n; i += 3 {
		sb.WriteString(s[i : i+3])
		if i+3 < n {
			sb.WriteByte(',')
		}
	}
	return sb.String()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "- -"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// reorderArgs moves flags ahead of positional arguments so that
// "clean in.csv -csv out.csv" parses like "clean -csv out.csv in.csv".
// Boolean flags never consume the following argument.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			if takesValue(fs, args[i]) && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}

func takesValue(fs *flag.FlagSet, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if strings.Contains(name, "=") {
		return false
	}
	f := fs.Lookup(name)
	if f == nil {
		return true
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return false
	}
	return true
}

func padRight(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

func padLeft(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return strings.Repeat(" ", n-w) + s
	}
	return s
}
