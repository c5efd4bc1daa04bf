package report

import (
	"bytes"
	"cmp"
	"embed"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	defaultTitle    = "oometrics report"
	echartsAsset    = "https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"
	chartTopN       = 15
	chartHeight     = "420px"
	labelRotate     = 30
	labelFontSize   = 10
	dataZoomEnd     = 100
	styleTagLen     = len("</style>")
	typeChartMetric = "WMC"
	opChartMetric   = "CYCLO"
)

// Theme colors shared by the page and its charts.
const (
	colorText    = "#e0dbd6"
	colorMuted   = "#a39e99"
	colorGrid    = "#3b3632"
	colorAxis    = "#57504a"
	colorAccent  = "#ad7f58"
	colorWarning = "#ffc53d"
	colorError   = "#e5484d"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").ParseFS(templateFS, "templates/page.html"))

// Section is one chart block of the dashboard.
type Section struct {
	Title    string
	Subtitle string
	Chart    template.HTML
}

// Finding is one graded value listed in the dashboard.
type Finding struct {
	File     string
	Scope    string
	Line     uint
	Metric   string
	Value    string
	Severity Severity
}

type pageData struct {
	Title     string
	Asset     string
	Summary   Summary
	Bytes     string
	Cache     string
	Sections  []Section
	Findings  []Finding
	Failures  []File
	Warning   template.CSS
	Error     template.CSS
	Accent    template.CSS
	TextColor template.CSS
	Muted     template.CSS
	Grid      template.CSS
}

// ranked is one bar of a top-N chart.
type ranked struct {
	label string
	value float64
}

func renderHTML(w io.Writer, rep *Report, opts RenderOptions) error {
	title := opts.Title
	if title == "" {
		title = defaultTitle
	}

	sections, err := buildSections(rep)
	if err != nil {
		return err
	}

	data := pageData{
		Title:     title,
		Asset:     echartsAsset,
		Summary:   rep.Summary,
		Bytes:     humanize.Bytes(uint64(max(rep.Summary.Bytes, 0))),
		Cache:     fmt.Sprintf("%s hits, %s misses", humanize.Comma(rep.Cache.Hits), humanize.Comma(rep.Cache.Misses)),
		Sections:  sections,
		Findings:  findings(rep),
		Warning:   template.CSS(colorWarning),
		Error:     template.CSS(colorError),
		Accent:    template.CSS(colorAccent),
		TextColor: template.CSS(colorText),
		Muted:     template.CSS(colorMuted),
		Grid:      template.CSS(colorGrid),
	}

	for _, f := range rep.Files {
		if f.Error != "" {
			data.Failures = append(data.Failures, f)
		}
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return nil
}

func buildSections(rep *Report) ([]Section, error) {
	var sections []Section

	typeBars := topTypes(rep, typeChartMetric)
	if len(typeBars) > 0 {
		chart, err := renderChart(buildBarChart(typeBars, typeChartMetric))
		if err != nil {
			return nil, err
		}

		sections = append(sections, Section{
			Title:    "Most complex types",
			Subtitle: "Weighted methods per class, highest first",
			Chart:    chart,
		})
	}

	opBars := topOperations(rep, opChartMetric)
	if len(opBars) > 0 {
		chart, err := renderChart(buildBarChart(opBars, opChartMetric))
		if err != nil {
			return nil, err
		}

		sections = append(sections, Section{
			Title:    "Most complex operations",
			Subtitle: "Cyclomatic complexity, highest first",
			Chart:    chart,
		})
	}

	return sections, nil
}

func buildBarChart(bars []ranked, metric string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{Left: "5%", Right: "5%", Top: "40", Bottom: "20%", ContainLabel: opts.Bool(true)}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEnd},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: labelRotate, Interval: "0", FontSize: labelFontSize, Color: colorText},
			AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: colorAxis}},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      metric,
			AxisLabel: &opts.AxisLabel{Color: colorMuted},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorGrid}},
		}),
	)

	labels := make([]string, len(bars))
	data := make([]opts.BarData, len(bars))

	for i, b := range bars {
		labels[i] = b.label
		data[i] = opts.BarData{Value: b.value}
	}

	bar.SetXAxis(labels)
	bar.AddSeries(metric, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorAccent}))

	return bar
}

// renderChart renders a chart and keeps only its element and script.
func renderChart(chart interface{ Render(w io.Writer) error }) (template.HTML, error) {
	var buf bytes.Buffer

	if err := chart.Render(&buf); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}

	//nolint:gosec // go-echarts output is generated from escaped chart options.
	return template.HTML(extractChartContent(buf.String())), nil
}

// extractChartContent cuts the chart container out of a standalone
// go-echarts page and drops its inline styles.
func extractChartContent(html string) string {
	start := strings.Index(html, `<div class="container">`)
	end := strings.Index(html, `</body>`)

	if start == -1 || end == -1 || end < start {
		return html
	}

	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)

	for {
		i := strings.Index(content, `<style>`)
		if i == -1 {
			break
		}

		j := strings.Index(content[i:], `</style>`)
		if j == -1 {
			break
		}

		content = content[:i] + content[i+j+styleTagLen:]
	}

	return content
}

func topTypes(rep *Report, metric string) []ranked {
	var bars []ranked

	var walk func(outer string, types []Type)

	walk = func(outer string, types []Type) {
		for _, t := range types {
			scope := qualify(outer, t.Name)

			if v, ok := plainValue(t.Values, metric); ok {
				bars = append(bars, ranked{label: scope, value: v})
			}

			walk(scope, t.Types)
		}
	}

	for _, f := range rep.Files {
		walk("", f.Types)
	}

	return top(bars)
}

func topOperations(rep *Report, metric string) []ranked {
	var bars []ranked

	var walk func(outer string, types []Type)

	walk = func(outer string, types []Type) {
		for _, t := range types {
			scope := qualify(outer, t.Name)

			for _, op := range t.Operations {
				if v, ok := plainValue(op.Values, metric); ok {
					bars = append(bars, ranked{label: scope + "." + op.Name, value: v})
				}
			}

			walk(scope, t.Types)
		}
	}

	for _, f := range rep.Files {
		walk("", f.Types)

		for _, fn := range f.Functions {
			if v, ok := plainValue(fn.Values, metric); ok {
				bars = append(bars, ranked{label: fn.Name, value: v})
			}
		}
	}

	return top(bars)
}

func top(bars []ranked) []ranked {
	slices.SortStableFunc(bars, func(a, b ranked) int {
		return cmp.Compare(b.value, a.value)
	})

	if len(bars) > chartTopN {
		bars = bars[:chartTopN]
	}

	return bars
}

func plainValue(values []Value, metric string) (float64, bool) {
	for _, v := range values {
		if v.Metric == metric && v.Option == "" {
			return v.Value, true
		}
	}

	return 0, false
}

func qualify(outer, name string) string {
	if outer == "" {
		return name
	}

	return outer + "." + name
}

// findings lists every graded value, errors first.
func findings(rep *Report) []Finding {
	var result []Finding

	collect := func(path, scope string, line uint, values []Value) {
		for _, v := range values {
			if v.Severity == SeverityNone {
				continue
			}

			result = append(result, Finding{
				File:     path,
				Scope:    scope,
				Line:     line,
				Metric:   metricLabel(v),
				Value:    formatValue(v.Value),
				Severity: v.Severity,
			})
		}
	}

	var walk func(path, outer string, types []Type)

	walk = func(path, outer string, types []Type) {
		for _, t := range types {
			scope := qualify(outer, t.Name)
			collect(path, scope, t.Line, t.Values)

			for _, op := range t.Operations {
				collect(path, scope+"."+op.Name, op.Line, op.Values)
			}

			walk(path, scope, t.Types)
		}
	}

	for _, f := range rep.Files {
		walk(f.Path, "", f.Types)

		for _, fn := range f.Functions {
			collect(f.Path, fn.Name, fn.Line, fn.Values)
		}
	}

	slices.SortStableFunc(result, func(a, b Finding) int {
		if a.Severity == b.Severity {
			return 0
		}

		if a.Severity == SeverityError {
			return -1
		}

		return 1
	})

	return result
}
