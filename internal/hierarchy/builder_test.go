package hierarchy

import (
	"testing"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

func TestBuildDeduplicatesFirstWins(t *testing.T) {
	tree := Build([]types.TopicTuple{
		{Code: "3.1", Title: "Cells", Level: 0},
		{Code: "3.1", Title: "Cells from overlapping page", Level: 0},
		{Code: "3.1.1", Title: "Structure", Level: 1, ParentCode: "3.1"},
	})

	if len(tree.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(tree.Nodes))
	}
	if tree.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate dropped, got %d", tree.Duplicates)
	}
	if tree.ByCode["3.1"].Title != "Cells" {
		t.Fatalf("first occurrence should win: %q", tree.ByCode["3.1"].Title)
	}
}

func TestBuildLinksParentsRegardlessOfEmissionOrder(t *testing.T) {
	// Child emitted before its parent: linking happens after collection.
	tree := Build([]types.TopicTuple{
		{Code: "4.2.1", Title: "Child", Level: 1, ParentCode: "4.2"},
		{Code: "4.2", Title: "Parent", Level: 0},
	})

	child := tree.ByCode["4.2.1"]
	if child.Parent == nil || child.Parent.Code != "4.2" {
		t.Fatalf("parent not linked: %+v", child)
	}
	if child.Orphan {
		t.Fatalf("linked child flagged as orphan")
	}
}

func TestBuildKeepsOrphans(t *testing.T) {
	tree := Build([]types.TopicTuple{
		{Code: "5.1", Title: "Isolated section", Level: 1, ParentCode: "9.9"},
	})

	n := tree.ByCode["5.1"]
	if n == nil {
		t.Fatalf("orphan was dropped")
	}
	if !n.Orphan || n.Parent != nil {
		t.Fatalf("expected root-equivalent orphan, got %+v", n)
	}
	if tree.Orphans != 1 {
		t.Fatalf("orphan count = %d, want 1", tree.Orphans)
	}
}

func TestBuildDisambiguatesSiblingDisplayNames(t *testing.T) {
	tree := Build([]types.TopicTuple{
		{Code: "2", Title: "Waves", Level: 0},
		{Code: "2.1", Title: "Reflection", Level: 1, ParentCode: "2"},
		{Code: "2.2", Title: "Reflection", Level: 1, ParentCode: "2"},
		{Code: "2.3", Title: "Refraction", Level: 1, ParentCode: "2"},
	})

	if got := tree.ByCode["2.1"].Title; got != "Reflection (2.1)" {
		t.Fatalf("first colliding sibling: %q", got)
	}
	if got := tree.ByCode["2.2"].Title; got != "Reflection (2.2)" {
		t.Fatalf("second colliding sibling: %q", got)
	}
	if got := tree.ByCode["2.3"].Title; got != "Refraction" {
		t.Fatalf("non-colliding sibling should be untouched: %q", got)
	}
}

func TestBuildAssignsSortOrderByFirstAppearance(t *testing.T) {
	tree := Build([]types.TopicTuple{
		{Code: "1", Title: "A", Level: 0},
		{Code: "2", Title: "B", Level: 0},
		{Code: "1", Title: "A again", Level: 0},
		{Code: "3", Title: "C", Level: 0},
	})

	for i, code := range []string{"1", "2", "3"} {
		if tree.ByCode[code].SortOrder != i {
			t.Fatalf("sort order for %s = %d, want %d", code, tree.ByCode[code].SortOrder, i)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	in := []types.TopicTuple{
		{Code: "3.1", Title: "Cells", Level: 0},
		{Code: "3.1.1", Title: "Structure", Level: 1, ParentCode: "3.1"},
		{Code: "3.1.2", Title: "Transport", Level: 1, ParentCode: "3.1"},
	}
	a := Build(in)
	b := Build(in)
	if len(a.Nodes) != len(b.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		if a.Nodes[i].Code != b.Nodes[i].Code || a.Nodes[i].Title != b.Nodes[i].Title {
			t.Fatalf("node %d differs between runs", i)
		}
	}
}
