package extraction

import (
	"fmt"
	"strings"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

var bulletPrefixes = []string{"- ", "• ", "* ", "– "}

// BulletListExtractor emits a leaf under the most recently opened numbered
// or table-derived code, with an auto-incremented suffix per parent.
type BulletListExtractor struct{}

func (BulletListExtractor) Name() string { return "bullet_list" }

func (BulletListExtractor) Extract(line string, st *State) ([]types.TopicTuple, bool) {
	var body string
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			body = strings.TrimSpace(strings.TrimPrefix(line, p))
			break
		}
	}
	if body == "" {
		return nil, false
	}
	if st.lastOpened == "" {
		// No open parent yet; a bullet with nothing to attach to is skipped.
		return nil, false
	}
	title := CleanTitle(body, st.Profile.MaxTitleLen)
	if title == "" || !containsLetter(title) {
		return nil, false
	}

	parent := st.lastOpened
	code := fmt.Sprintf("%s.%d", parent, st.Counters.Next(parent))
	return []types.TopicTuple{{
		Code:       code,
		Title:      title,
		Level:      st.lastOpenedLevel + 1,
		ParentCode: parent,
		Source:     st.source,
	}}, true
}
