package validation

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

func topic(id uuid.UUID, code string, level int, parent *uuid.UUID) *types.Topic {
	return &types.Topic{ID: id, Code: code, Level: level, ParentTopicID: parent}
}

func TestComputeHealthyTree(t *testing.T) {
	subjectID := uuid.New()
	root := uuid.New()
	childA := uuid.New()
	childB := uuid.New()
	grand := uuid.New()

	report := Compute(subjectID, []*types.Topic{
		topic(root, "3", 0, nil),
		topic(childA, "3.1", 1, &root),
		topic(childB, "3.2", 1, &root),
		topic(grand, "3.1.1", 2, &childA),
	})

	if report.SubjectID != subjectID {
		t.Fatalf("subject id not carried")
	}
	if report.TopicCount != 4 {
		t.Fatalf("topic count = %d", report.TopicCount)
	}
	if report.OrphanCount != 0 || report.DuplicateCodeCount != 0 ||
		report.LevelViolations != 0 || report.CycleCount != 0 {
		t.Fatalf("healthy tree produced findings: %+v", report)
	}
	want := map[int]int{0: 1, 1: 2, 2: 1}
	for level, n := range want {
		if report.LevelHistogram[level] != n {
			t.Fatalf("histogram[%d] = %d, want %d", level, report.LevelHistogram[level], n)
		}
	}
}

func TestComputeCountsOrphans(t *testing.T) {
	missing := uuid.New()
	report := Compute(uuid.New(), []*types.Topic{
		topic(uuid.New(), "1", 0, nil),
		topic(uuid.New(), "9.9", 1, &missing),
	})
	if report.OrphanCount != 1 {
		t.Fatalf("orphan count = %d, want 1", report.OrphanCount)
	}
}

func TestComputeFlagsUnresolvedDeclaredParents(t *testing.T) {
	// Promotion leaves an unresolvable parent as a NULL pointer with the
	// declared code still on the row; a true root declares no parent.
	report := Compute(uuid.New(), []*types.Topic{
		{ID: uuid.New(), Code: "5", Level: 0},
		{ID: uuid.New(), Code: "9.9", Level: 1, ParentCode: "9"},
	})
	if report.OrphanCount != 1 {
		t.Fatalf("orphan count = %d, want 1", report.OrphanCount)
	}
}

func TestComputeCountsDuplicateCodes(t *testing.T) {
	report := Compute(uuid.New(), []*types.Topic{
		topic(uuid.New(), "2.1", 1, nil),
		topic(uuid.New(), "2.1", 1, nil),
		topic(uuid.New(), "2.1", 1, nil),
		topic(uuid.New(), "2.2", 1, nil),
	})
	if report.DuplicateCodeCount != 2 {
		t.Fatalf("duplicate count = %d, want 2", report.DuplicateCodeCount)
	}
}

func TestComputeCountsLevelViolations(t *testing.T) {
	root := uuid.New()
	report := Compute(uuid.New(), []*types.Topic{
		topic(root, "4", 0, nil),
		// Declared two levels below its direct parent.
		topic(uuid.New(), "4.1", 2, &root),
	})
	if report.LevelViolations != 1 {
		t.Fatalf("level violations = %d, want 1", report.LevelViolations)
	}
}

func TestComputeDetectsCycles(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	report := Compute(uuid.New(), []*types.Topic{
		topic(a, "5.1", 1, &b),
		topic(b, "5.2", 1, &a),
	})
	if report.CycleCount != 2 {
		t.Fatalf("cycle count = %d, want 2", report.CycleCount)
	}
}

func TestComputeEmptySubject(t *testing.T) {
	report := Compute(uuid.New(), nil)
	if report.TopicCount != 0 || len(report.LevelHistogram) != 0 {
		t.Fatalf("empty subject report: %+v", report)
	}
}
