package difftable

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Chunk fragment HTML is produced by the server-side renderer and treated as
// opaque markup; the only structure this client relies on is one <tr> per
// row, a line attribute carrying the virtual line number, and the change
// type in the class attribute.
var (
	rowPattern  = regexp.MustCompile(`(?s)<tr([^>]*)>(.*?)</tr>`)
	attrPattern = regexp.MustCompile(`([a-zA-Z-]+)="([^"]*)"`)

	// textPolicy strips every tag, leaving just cell text for terminal
	// rendering.
	textPolicy = bluemonday.StrictPolicy()
)

// ParseRowsHTML converts a server-rendered table-body fragment into rows.
// Rows without a line attribute become boundary rows; a "dimmed" class marks
// de-emphasized rows.
func ParseRowsHTML(fragment string) []Row {
	var rows []Row

	for _, m := range rowPattern.FindAllStringSubmatch(fragment, -1) {
		attrs := parseAttrs(m[1])

		row := Row{Kind: RowBoundary}
		if v, ok := attrs["line"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				row.Kind = RowContent
				row.Line = n
			}
		}
		if v, ok := attrs["old-line"]; ok {
			row.OldLine, _ = strconv.Atoi(v)
		}
		if v, ok := attrs["new-line"]; ok {
			row.NewLine, _ = strconv.Atoi(v)
		}

		row.Text = html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(m[2])))
		rows = append(rows, row)
	}

	return rows
}

func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(s, -1) {
		attrs[strings.ToLower(m[1])] = m[2]
	}
	return attrs
}
