// Package tui implements the terminal diff viewer: rendered diff tables in
// a scrolling viewport, anchor navigation, row selection, comment flags,
// and the draft comment modal.
package tui

import (
	"fmt"
	"strings"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/revdeck/internal/core/difftable"
	"github.com/colonyops/revdeck/internal/core/styles"
)

const lineNumWidth = 5

// TableRenderer renders one diff table into terminal lines, one per table
// row, so viewport offsets map 1:1 onto row indices.
type TableRenderer struct {
	Width int
	// FlagAt returns the comment-flag glyph for a row, or empty.
	FlagAt func(rowIndex int) string
	// GhostAt reports whether a row shows the ghost flag affordance.
	GhostAt func(rowIndex int) bool
}

// RenderTable renders every row of the table.
func (r TableRenderer) RenderTable(t *difftable.Table) []string {
	lines := make([]string, 0, len(t.Rows))
	for i := range t.Rows {
		lines = append(lines, r.RenderRow(t, i))
	}
	return lines
}

// RenderRow renders a single table row.
func (r TableRenderer) RenderRow(t *difftable.Table, rowIndex int) string {
	row := t.Rows[rowIndex]

	switch row.Kind {
	case difftable.RowHeader:
		return r.renderHeader(t.File)
	case difftable.RowBoundary:
		chunk := t.ChunkAt(rowIndex)
		hidden := 0
		if chunk != nil {
			hidden = chunk.NumHidden
		}
		label := fmt.Sprintf("··· %d lines hidden · %s expand ···", hidden, styles.IconExpand)
		return styles.DiffBoundaryStyle.Render(padToWidth(label, r.Width))
	default:
		return r.renderContent(t, rowIndex, row)
	}
}

func (r TableRenderer) renderHeader(file difftable.DiffFile) string {
	name := file.ModifiedFilename
	if file.Deleted {
		name = file.OrigFilename + " " + styles.IconDeleted
	}
	icon := styles.IconFile
	switch {
	case file.Binary:
		icon = styles.IconBinary
	case file.IsNew:
		icon = styles.IconNewFile
	}
	return styles.FileHeaderStyle.Render(padToWidth(icon+" "+name, r.Width))
}

func (r TableRenderer) renderContent(t *difftable.Table, rowIndex int, row difftable.Row) string {
	gutter := r.gutter(rowIndex, row)
	nums := renderLineNums(row)

	style := rowStyle(t, rowIndex, row)
	text := style.Render(row.Text)

	line := gutter + nums + " " + text
	if row.Selected {
		return styles.SelectedLineStyle.Render(padToWidth(stripToWidth(line, r.Width), r.Width))
	}
	return line
}

// gutter is the one-cell column carrying comment flags.
func (r TableRenderer) gutter(rowIndex int, row difftable.Row) string {
	if r.FlagAt != nil {
		if flag := r.FlagAt(rowIndex); flag != "" {
			return flag
		}
	}
	if r.GhostAt != nil && r.GhostAt(rowIndex) {
		return styles.GhostFlagStyle.Render(styles.IconGhost)
	}
	return " "
}

func renderLineNums(row difftable.Row) string {
	old, newer := " ", " "
	if row.OldLine > 0 {
		old = fmt.Sprintf("%*d", lineNumWidth, row.OldLine)
	} else {
		old = strings.Repeat(" ", lineNumWidth)
	}
	if row.NewLine > 0 {
		newer = fmt.Sprintf("%*d", lineNumWidth, row.NewLine)
	} else {
		newer = strings.Repeat(" ", lineNumWidth)
	}
	return styles.LineNumberStyle.Render(old + " " + newer)
}

func rowStyle(t *difftable.Table, rowIndex int, row difftable.Row) lipgloss.Style {
	if row.Ghost {
		return styles.DiffDimmedStyle
	}
	chunk := t.ChunkAt(rowIndex)
	if chunk == nil {
		return styles.DiffContextStyle
	}
	if chunk.Dimmed {
		return styles.DiffDimmedStyle
	}
	switch chunk.Kind {
	case difftable.ChunkInsert:
		return styles.DiffAddStyle
	case difftable.ChunkDelete:
		return styles.DiffDeleteStyle
	case difftable.ChunkReplace:
		return styles.DiffReplaceStyle
	default:
		return styles.DiffContextStyle
	}
}

func padToWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func stripToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
