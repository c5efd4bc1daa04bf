package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const valueDigits = 2

type palette struct {
	header *color.Color
	warn   *color.Color
	err    *color.Color
	faint  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header: color.New(color.Bold, color.FgCyan),
		warn:   color.New(color.FgYellow),
		err:    color.New(color.FgRed, color.Bold),
		faint:  color.New(color.Faint),
	}

	for _, c := range []*color.Color{p.header, p.warn, p.err, p.faint} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

func (p palette) severity(s Severity) string {
	switch s {
	case SeverityWarn:
		return p.warn.Sprint(string(s))
	case SeverityError:
		return p.err.Sprint(string(s))
	case SeverityNone:
	}

	return ""
}

func renderText(w io.Writer, rep *Report, opts RenderOptions) error {
	p := newPalette(opts.Color)

	var b strings.Builder

	for _, f := range rep.Files {
		b.WriteString(p.header.Sprint(f.Path))

		if f.Language != "" {
			fmt.Fprintf(&b, " (%s", f.Language)

			if f.Package != "" {
				fmt.Fprintf(&b, ", %s", f.Package)
			}

			b.WriteString(")")
		}

		b.WriteString("\n")

		if f.Error != "" {
			fmt.Fprintf(&b, "  %s\n\n", p.err.Sprint("error: "+f.Error))

			continue
		}

		tbl := newTable()

		for _, t := range f.Types {
			appendTypeRows(tbl, p, "", t)
		}

		for _, fn := range f.Functions {
			appendValueRows(tbl, p, fn.Name, fn.Line, fn.Values)
		}

		if tbl.Length() == 0 {
			b.WriteString(p.faint.Sprint("  no measurable declarations") + "\n\n")

			continue
		}

		b.WriteString(tbl.Render())
		b.WriteString("\n\n")
	}

	b.WriteString(summaryLine(rep, p))
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	return nil
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"Scope", "Line", "Metric", "Value", "Status"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	return tbl
}

func appendTypeRows(tbl table.Writer, p palette, outer string, t Type) {
	scope := t.Name
	if outer != "" {
		scope = outer + "." + t.Name
	}

	appendValueRows(tbl, p, scope, t.Line, t.Values)

	for _, op := range t.Operations {
		appendValueRows(tbl, p, scope+"."+op.Name, op.Line, op.Values)
	}

	for _, nested := range t.Types {
		appendTypeRows(tbl, p, scope, nested)
	}
}

func appendValueRows(tbl table.Writer, p palette, scope string, line uint, values []Value) {
	for _, v := range values {
		tbl.AppendRow(table.Row{scope, line, metricLabel(v), formatValue(v.Value), p.severity(v.Severity)})
	}
}

func metricLabel(v Value) string {
	label := v.Metric

	if v.Version != "" {
		label += "/" + v.Version
	}

	if v.Option != "" {
		label += " (" + v.Option + ")"
	}

	return label
}

func formatValue(v float64) string {
	return humanize.FtoaWithDigits(v, valueDigits)
}

func summaryLine(rep *Report, p palette) string {
	s := rep.Summary

	parts := []string{
		humanize.Comma(int64(s.Files)) + " files (" + humanize.Bytes(uint64(max(s.Bytes, 0))) + ")",
		humanize.Comma(int64(s.Types)) + " types",
		humanize.Comma(int64(s.Operations)) + " operations",
	}

	if s.Skipped > 0 {
		parts = append(parts, humanize.Comma(int64(s.Skipped))+" skipped")
	}

	if s.Failed > 0 {
		parts = append(parts, p.err.Sprint(humanize.Comma(int64(s.Failed))+" failed"))
	}

	parts = append(parts,
		p.warn.Sprint(humanize.Comma(int64(s.Warnings))+" warnings"),
		p.err.Sprint(humanize.Comma(int64(s.Errors))+" errors"),
	)

	return strings.Join(parts, ", ")
}
