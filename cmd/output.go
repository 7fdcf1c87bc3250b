package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/tmdb"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// emit prints v as JSON with --output json, otherwise calls render
func emit(v any, render func()) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render()
	return nil
}

func yearString(year int) string {
	if year == 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printItems(items []tmdb.CatalogItem) error {
	return emit(items, func() {
		if len(items) == 0 {
			fmt.Println("No titles found.")
			return
		}
		rows := make([][]string, 0, len(items))
		for i, item := range items {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(item.ID, 10),
				truncate(item.Title, 48),
				yearString(item.Year()),
				string(item.Kind),
				fmt.Sprintf("%.1f", item.VoteAverage),
			})
		}
		fmt.Println(renderTable(
			[]string{"#", "ID", "Title", "Year", "Kind", "Rating"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft, alignRight},
		))
	})
}

func printSaved(items []backend.SavedItem) error {
	return emit(items, func() {
		if len(items) == 0 {
			fmt.Println("Your collection is empty.")
			return
		}
		rows := make([][]string, 0, len(items))
		for _, s := range items {
			rows = append(rows, []string{
				s.ID,
				strconv.FormatInt(s.CatalogID, 10),
				truncate(s.Title, 48),
				yearString(s.Item().Year()),
				string(s.Kind),
				s.CreatedAt.Format("2006-01-02"),
			})
		}
		fmt.Println(renderTable(
			[]string{"Document", "ID", "Title", "Year", "Kind", "Saved"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
		))
	})
}

func printTrending(counters []backend.SearchCounter) error {
	return emit(counters, func() {
		if len(counters) == 0 {
			fmt.Println("Nobody has searched for anything yet.")
			return
		}
		rows := make([][]string, 0, len(counters))
		for i, c := range counters {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				c.Term,
				truncate(c.Title, 40),
				string(c.Kind),
				strconv.Itoa(c.Count),
			})
		}
		fmt.Println(renderTable(
			[]string{"#", "Term", "Top result", "Kind", "Searches"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
		))
	})
}
