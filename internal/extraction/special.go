package extraction

import (
	"fmt"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

// DomainSpecialCodeExtractor handles short alphabetic-prefix codes that
// appear outside tables ("OT1.1 Using a light microscope"). The verbatim
// code is never stored: the same prefix recurs across sections, so the
// topic is renumbered sequentially under the nearest enclosing section.
type DomainSpecialCodeExtractor struct{}

func (DomainSpecialCodeExtractor) Name() string { return "domain_special_code" }

func (DomainSpecialCodeExtractor) Extract(line string, st *State) ([]types.TopicTuple, bool) {
	m := specialCellRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	section, ok := st.Sections.Current()
	if !ok {
		return nil, false
	}
	title := CleanTitle(m[2], st.Profile.MaxTitleLen)
	if title == "" || !containsLetter(title) {
		return nil, false
	}

	code := fmt.Sprintf("%s.%d", section.Code, st.Counters.Next(section.Code))
	level := section.Level + 1
	st.openLeafParent(code, level)

	return []types.TopicTuple{{
		Code:       code,
		Title:      title,
		Level:      level,
		ParentCode: section.Code,
		Source:     st.source,
	}}, true
}
