package extraction

import (
	"strconv"
	"strings"
)

// positionalColumns synthesizes index labels "0".."n-1" for tables whose
// source had no recognized header row.
func positionalColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}
	return cols
}

// isPositional reports whether every column label is integer-like.
func isPositional(columns []string) bool {
	if len(columns) == 0 {
		return true
	}
	for _, c := range columns {
		if _, err := strconv.Atoi(strings.TrimSpace(c)); err != nil {
			return false
		}
	}
	return true
}

func looksNumeric(s string) bool {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "$€%"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// chooseHeader decides whether the first row is a descriptive header. A row
// of non-empty, non-numeric, unique labels is treated as one; anything else
// leaves the table positional.
func chooseHeader(rows [][]string) ([]string, [][]string) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if len(rows) < 2 {
		return positionalColumns(width), rows
	}

	first := rows[0]
	seen := make(map[string]bool, len(first))
	for _, cell := range first {
		label := strings.TrimSpace(cell)
		if label == "" || looksNumeric(label) || seen[label] {
			return positionalColumns(width), rows
		}
		seen[label] = true
	}
	return first, rows[1:]
}

func countPopulated(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}
