package extraction

import (
	"regexp"
	"strings"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

// numberedHeadingRe matches an optional heading marker followed by a
// dot-separated numeric code and a title: "3.1.2 Title", "## 4.2 Title".
var numberedHeadingRe = regexp.MustCompile(`^(?:#{1,6}\s+)?(\d+(?:\.\d+)*)[.)]?\s+(.+)$`)

// NumberedHeadingExtractor handles the dominant shape of curriculum
// documents: dot-separated numeric section codes. The parent is the code
// minus its last segment; when that parent section is open its level fixes
// the child's, otherwise the code's depth gives the level directly.
type NumberedHeadingExtractor struct{}

func (NumberedHeadingExtractor) Name() string { return "numbered_heading" }

func (NumberedHeadingExtractor) Extract(line string, st *State) ([]types.TopicTuple, bool) {
	m := numberedHeadingRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	code := m[1]
	title := CleanTitle(m[2], st.Profile.MaxTitleLen)
	if title == "" || !containsLetter(title) {
		return nil, false
	}

	level := NumericLevel(code)
	parent := NumericParent(code)
	if parent != "" {
		if sec, ok := st.Sections.Lookup(parent); ok {
			level = sec.Level + 1
		}
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

// NumericLevel maps a dot-separated code to its depth: segments minus two,
// clamped to zero, so both "3" and "3.1" sit at the root of their section.
func NumericLevel(code string) int {
	level := len(strings.Split(code, ".")) - 2
	if level < 0 {
		level = 0
	}
	return level
}

// NumericParent strips the last segment; empty when none remain.
func NumericParent(code string) string {
	idx := strings.LastIndex(code, ".")
	if idx < 0 {
		return ""
	}
	return code[:idx]
}
