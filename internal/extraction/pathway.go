package extraction

import (
	"regexp"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

// pathwayRe matches option/pathway codes of the shape digit(s)+letter:
// "1A Title". Students pick one of several parallel tracks; the parent is
// the track/component number, not a dotted prefix.
var pathwayRe = regexp.MustCompile(`^(\d+)([A-Z])[.:]?\s+(.+)$`)

type PathwayOptionExtractor struct{}

func (PathwayOptionExtractor) Name() string { return "pathway_option" }

func (PathwayOptionExtractor) Extract(line string, st *State) ([]types.TopicTuple, bool) {
	m := pathwayRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	title := CleanTitle(m[3], st.Profile.MaxTitleLen)
	if title == "" || !containsLetter(title) {
		return nil, false
	}

	code := m[1] + m[2]
	parent := m[1]

	level := NumericLevel(parent) + 1
	if sec, ok := st.Sections.Lookup(parent); ok {
		level = sec.Level + 1
	}

	st.Sections.Open(code, level)
	st.openLeafParent(code, level)

	return []types.TopicTuple{{
		Code:       code,
		Title:      title,
		Level:      level,
		ParentCode: parent,
		Source:     st.source,
	}}, true
}
