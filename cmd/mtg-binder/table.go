package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// column describes one column of a listing.
type column struct {
	title    string
	numeric  bool // right aligned
	maxWidth int  // longer cells wrap; 0 means unlimited
}

var (
	cardColumns = []column{
		{title: "#", numeric: true},
		{title: "Card", maxWidth: 40},
		{title: "ID"},
		{title: "Type", maxWidth: 30},
		{title: "Rarity"},
		{title: "Qty", numeric: true},
	}
	setColumns = []column{
		{title: "Code"},
		{title: "Name", maxWidth: 40},
		{title: "Type"},
		{title: "Released"},
	}
)

// renderTable lays rows out under columns. A non-empty footer is printed
// below the rows; missing trailing cells are left blank.
func renderTable(columns []column, rows [][]string, footer ...string) string {
	if len(columns) == 0 {
		return ""
	}

	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault

	tw := table.NewWriter()
	tw.SetStyle(style)

	titles := make([]string, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		titles[i] = c.title
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: align,
			AlignFooter: text.AlignLeft,
			WidthMax:    c.maxWidth,
		}
		if c.maxWidth > 0 {
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.SetColumnConfigs(configs)

	tw.AppendHeader(tableRow(len(columns), titles))
	for _, row := range rows {
		tw.AppendRow(tableRow(len(columns), row))
	}
	if len(footer) > 0 {
		tw.AppendFooter(tableRow(len(columns), footer))
	}
	return tw.Render()
}

func tableRow(width int, cells []string) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
