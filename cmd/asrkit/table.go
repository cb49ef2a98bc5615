package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kbukum/asrkit/corpus"
)

var (
	colorGray   = lipgloss.Color("#666666")
	colorRed    = lipgloss.Color("#FF5555")
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(colorGray)
	failedStyle = cellStyle.Foreground(colorRed)
)

// renderReport prints the scored pairs, any failures and the run summary.
func renderReport(w io.Writer, r *corpus.Report) error {
	rows := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Reference File", "Hypothesis File", "WER", "Ref Words", "ASR Words").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= 2:
				return numberStyle
			default:
				return cellStyle
			}
		})
	for _, row := range r.Rows {
		rows.Row(row.ReferenceFile, row.HypothesisFile,
			strconv.FormatFloat(row.WordErrorRate, 'f', 4, 64),
			strconv.Itoa(row.ReferenceWordCount),
			strconv.Itoa(row.HypothesisWordCount))
	}
	if _, err := fmt.Fprintln(w, rows.Render()); err != nil {
		return err
	}

	if len(r.Failures) > 0 {
		failures := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(borderStyle).
			Headers("Reference File", "Hypothesis File", "Code", "Message").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return failedStyle
			})
		for _, f := range r.Failures {
			failures.Row(f.ReferenceFile, f.HypothesisFile, string(f.Code), f.Message)
		}
		if _, err := fmt.Fprintln(w, failures.Render()); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "pairs %d  failed %d  unmatched %d  mean WER %.4f  corpus WER %.4f\nreport %s\n",
		len(r.Rows)+len(r.Failures), len(r.Failures), len(r.Unmatched), r.MeanWER(), r.CorpusWER(), r.ReportPath)
	return err
}
