package hierarchy

import (
	"fmt"
	"strings"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

// Node is one deduplicated, parent-linked topic. Orphan marks tuples whose
// declared parent code resolved to nothing; they are kept and surfaced by
// validation, never dropped.
type Node struct {
	types.TopicTuple
	Parent    *Node
	Orphan    bool
	SortOrder int
}

// Tree is the per-subject result of hierarchy building.
type Tree struct {
	Nodes  []*Node
	ByCode map[string]*Node

	Duplicates int
	Orphans    int
}

const displayNameCap = 100

// Build merges the tuples extracted for one subject into a deduplicated,
// parent-linked tree. Duplicate codes from overlapping source blocks are
// expected: the first occurrence wins. Parent resolution happens only after
// every tuple is collected, so it is independent of emission order.
func Build(tuples []types.TopicTuple) *Tree {
	t := &Tree{ByCode: map[string]*Node{}}

	for _, tup := range tuples {
		code := strings.TrimSpace(tup.Code)
		if code == "" {
			continue
		}
		if _, seen := t.ByCode[code]; seen {
			t.Duplicates++
			continue
		}
		n := &Node{TopicTuple: tup, SortOrder: len(t.Nodes)}
		n.Code = code
		t.ByCode[code] = n
		t.Nodes = append(t.Nodes, n)
	}

	for _, n := range t.Nodes {
		if n.ParentCode == "" {
			continue
		}
		parent, ok := t.ByCode[n.ParentCode]
		if !ok {
			n.Orphan = true
			t.Orphans++
			continue
		}
		n.Parent = parent
	}

	disambiguateSiblings(t)
	return t
}

// disambiguateSiblings appends the code to the title when two topics at the
// same level under the same parent would collide on display name after
// normalization. Codes stay untouched; only the title changes.
func disambiguateSiblings(t *Tree) {
	seen := map[string][]*Node{}
	for _, n := range t.Nodes {
		key := fmt.Sprintf("%s|%d|%s", n.ParentCode, n.Level, normalizeName(n.Title))
		seen[key] = append(seen[key], n)
	}
	for _, group := range seen {
		if len(group) < 2 {
			continue
		}
		for _, n := range group {
			n.Title = fmt.Sprintf("%s (%s)", n.Title, n.Code)
		}
	}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if runes := []rune(s); len(runes) > displayNameCap {
		s = string(runes[:displayNameCap])
	}
	return s
}
