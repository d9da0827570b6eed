package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderReport prints one summary row per dataset, then the missing counts
// of every dataset that has any.
func renderReport(w io.Writer, outcomes []*outcome) {
	if len(outcomes) == 0 {
		_, _ = fmt.Fprintln(w, "(0 datasets)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Dataset", "Rows", "Duplicates", "Remaining", "Missing", "Skipped", "Lease", "Unparsed", "Written", "Output"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})

	var rows, dups, remaining, written int64
	for _, o := range outcomes {
		rep := o.Result.Report
		dest := strings.Join(o.Files, "\n")
		if o.Table != "" {
			if dest != "" {
				dest += "\n"
			}
			dest += "table " + o.Table
		}
		t.AppendRow(table.Row{
			o.Result.Dataset,
			rep.Rows,
			rep.Duplicates,
			rep.Remaining,
			rep.TotalMissing(),
			o.Skipped,
			string(o.Result.LeaseMode),
			o.Result.LeaseUnparsed,
			o.Written,
			dest,
		})
		rows += int64(rep.Rows)
		dups += int64(rep.Duplicates)
		remaining += int64(rep.Remaining)
		written += o.Written
	}
	if len(outcomes) > 1 {
		t.AppendFooter(table.Row{"total", rows, dups, remaining, "", "", "", "", written, ""})
	}
	t.Render()

	for _, o := range outcomes {
		if o.Result.Report.TotalMissing() == 0 {
			continue
		}
		m := table.NewWriter()
		m.SetOutputMirror(w)
		m.SetStyle(table.StyleLight)
		m.SetTitle("Missing values: %s", o.Result.Dataset)
		m.AppendHeader(table.Row{"Column", "Missing"})
		m.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		for _, c := range o.Result.Report.Missing {
			if c.Count > 0 {
				m.AppendRow(table.Row{c.Column, c.Count})
			}
		}
		m.Render()
	}
}
