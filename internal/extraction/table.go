package extraction

import (
	"fmt"
	"regexp"
	"strings"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

// specialCellRe matches domain-special codes that appear in table cells
// ("OT1.1 Using a microscope", "ME6 ..."). The verbatim code is discarded
// and the row renumbered, because the same prefix recurs across sections.
var specialCellRe = regexp.MustCompile(`^([A-Z]{1,3}\d+(?:\.\d+)*)[.:]?\s+(.+)$`)

// TableRowExtractor handles two- and three-column tabular text. The first
// column becomes a child of the currently open section with an
// auto-incremented suffix; later columns, when bullet-delimited, nest one
// level deeper per column.
type TableRowExtractor struct{}

func (TableRowExtractor) Name() string { return "table_row" }

func (TableRowExtractor) Extract(line string, st *State) ([]types.TopicTuple, bool) {
	if !strings.Contains(line, "|") {
		return nil, false
	}
	cells := splitCells(line)
	if len(cells) < 2 {
		return nil, false
	}
	if isHeaderRow(cells[0], st.Profile) {
		// Header rows are structure, not content; consume without output.
		return nil, true
	}

	section, ok := st.Sections.Current()
	if !ok {
		return nil, false
	}

	first := cells[0]
	if m := specialCellRe.FindStringSubmatch(first); m != nil {
		first = m[2]
	}
	title := CleanTitle(first, st.Profile.MaxTitleLen)
	if title == "" || !containsLetter(title) {
		return nil, false
	}

	rowCode := fmt.Sprintf("%s.%d", section.Code, st.Counters.Next(section.Code))
	rowLevel := section.Level + 1
	out := []types.TopicTuple{{
		Code:       rowCode,
		Title:      title,
		Level:      rowLevel,
		ParentCode: section.Code,
		Source:     st.source,
	}}
	st.openLeafParent(rowCode, rowLevel)

	parentCode := rowCode
	parentLevel := rowLevel
	for _, cell := range cells[1:] {
		items := splitItems(cell)
		if len(items) == 0 {
			continue
		}
		if len(items) == 1 && looksLikeProse(items[0]) {
			continue
		}
		var lastCode string
		for _, item := range items {
			itemTitle := CleanTitle(item, st.Profile.MaxTitleLen)
			if itemTitle == "" || !containsLetter(itemTitle) {
				continue
			}
			code := fmt.Sprintf("%s.%d", parentCode, st.Counters.Next(parentCode))
			out = append(out, types.TopicTuple{
				Code:       code,
				Title:      itemTitle,
				Level:      parentLevel + 1,
				ParentCode: parentCode,
				Source:     st.source,
			})
			lastCode = code
		}
		if lastCode != "" {
			parentCode = lastCode
			parentLevel++
		}
	}
	return out, true
}

func splitCells(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	// Drop trailing empty cells but keep interior ones.
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func isHeaderRow(firstCell string, p Profile) bool {
	norm := strings.ToLower(strings.TrimSpace(firstCell))
	if norm == "" {
		return true
	}
	if strings.Trim(norm, "-: ") == "" {
		// Markdown separator row.
		return true
	}
	for _, w := range p.TableHeaderWords {
		if norm == strings.ToLower(w) {
			return true
		}
	}
	return false
}

// splitItems breaks a bullet-delimited cell into individual items. Cells
// use bullets, semicolons or commas depending on the source document.
func splitItems(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	var parts []string
	switch {
	case strings.Contains(cell, "•"):
		parts = strings.Split(cell, "•")
	case strings.Contains(cell, ";"):
		parts = strings.Split(cell, ";")
	default:
		parts = strings.Split(cell, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "-"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// looksLikeProse filters guidance sentences ("Learners should be able
// to...") that would otherwise become bogus single-item columns.
func looksLikeProse(s string) bool {
	return len(strings.Fields(s)) > 12
}
