package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/0xlemi/fretlab/internal/theory"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var markStyle = cellStyle.Bold(true).Foreground(lipgloss.Color("#FF6B6B"))

func newBoardCmd() *cobra.Command {
	var (
		frets int
		note  string
	)

	cmd := &cobra.Command{
		Use:     "board",
		Short:   "Print the fretboard",
		Long:    "Print the note at every string and fret of a guitar in standard tuning, high E on top.",
		Example: "  fretlab board --frets 5\n  fretlab board --note Bb",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd.OutOrStdout(), frets, note)
		},
	}

	cmd.Flags().IntVarP(&frets, "frets", "f", 12, fmt.Sprintf("frets to show, 0 to %d", theory.MaxFret))
	cmd.Flags().StringVarP(&note, "note", "n", "", "highlight every position of this note")
	return cmd
}

func runBoard(w io.Writer, frets int, note string) error {
	tuning := theory.StandardTuning
	board, err := tuning.Fretboard(frets)
	if err != nil {
		return err
	}

	mark := ""
	if note != "" {
		if mark, err = theory.Normalize(note); err != nil {
			return err
		}
	}

	headers := make([]string, 0, frets+2)
	headers = append(headers, "String")
	for f := 0; f <= frets; f++ {
		headers = append(headers, strconv.Itoa(f))
	}

	// Tab order: the highest string first
	rows := make([][]string, 0, len(board))
	for i := len(board) - 1; i >= 0; i-- {
		row := make([]string, 0, frets+2)
		row = append(row, fmt.Sprintf("%d %s", i+1, tuning[i]))
		row = append(row, board[i]...)
		rows = append(rows, row)
	}

	fmt.Fprintln(w, table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0 && mark != "" && rows[row][col] == mark:
				return markStyle
			}
			return cellStyle
		}))
	return nil
}
