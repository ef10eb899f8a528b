package staging

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	"github.com/studyforge/curriculum-backend/internal/data/repos/curriculum/testutil"
	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/hierarchy"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
)

func newTestService(t *testing.T) (*Service, dbctx.Context) {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, gdb)
	svc := NewService(gdb, log,
		repos.NewStagingSubjectRepo(gdb, log),
		repos.NewStagingTopicRepo(gdb, log),
	)
	return svc, dbctx.Context{Ctx: context.Background(), Tx: tx}
}

func TestUpsertSubjectCreatesThenReuses(t *testing.T) {
	svc, dbc := newTestService(t)
	key := types.SubjectKey{
		ExamBoard:         "AQA",
		QualificationType: "GCSE",
		SubjectCode:       "8461",
		SubjectName:       "Biology",
	}

	first, err := svc.UpsertSubject(dbc, key, "spec-2026.pdf")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first == uuid.Nil {
		t.Fatalf("expected a subject id")
	}

	key.SubjectName = "Biology (updated)"
	second, err := svc.UpsertSubject(dbc, key, "spec-2027.pdf")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second != first {
		t.Fatalf("re-upsert created a new subject: %s vs %s", first, second)
	}

	row, err := repos.NewStagingSubjectRepo(testutil.DB(t), testutil.Logger(t)).GetByID(dbc, first)
	if err != nil {
		t.Fatalf("load subject: %v", err)
	}
	if row.SubjectName != "Biology (updated)" || row.SourceRef != "spec-2027.pdf" {
		t.Fatalf("attributes not refreshed: %+v", row)
	}
}

func TestUpsertSubjectRejectsEmptyKey(t *testing.T) {
	svc, dbc := newTestService(t)
	if _, err := svc.UpsertSubject(dbc, types.SubjectKey{}, ""); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestReplaceTopicsFullRefresh(t *testing.T) {
	svc, dbc := newTestService(t)
	subjectID, err := svc.UpsertSubject(dbc, types.SubjectKey{
		ExamBoard:         "OCR",
		QualificationType: "ALEVEL",
		SubjectCode:       "H432",
		SubjectName:       "Chemistry",
	}, "")
	if err != nil {
		t.Fatalf("upsert subject: %v", err)
	}

	tree := hierarchy.Build([]types.TopicTuple{
		{Code: "2", Title: "Foundations", Level: 0},
		{Code: "2.1", Title: "Atoms", Level: 1, ParentCode: "2"},
		{Code: "2.2", Title: "Bonding", Level: 1, ParentCode: "2"},
	})
	n, err := svc.ReplaceTopics(dbc, subjectID, tree)
	if err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if n != 3 {
		t.Fatalf("inserted %d rows, want 3", n)
	}

	topicRepo := repos.NewStagingTopicRepo(testutil.DB(t), testutil.Logger(t))
	rows, err := topicRepo.ListBySubjectID(dbc, subjectID)
	if err != nil {
		t.Fatalf("list topics: %v", err)
	}
	byCode := map[string]*types.StagingTopic{}
	for _, r := range rows {
		byCode[r.Code] = r
	}
	if byCode["2.1"].ParentTopicID == nil || *byCode["2.1"].ParentTopicID != byCode["2"].ID {
		t.Fatalf("in-staging parent not resolved: %+v", byCode["2.1"])
	}

	// Second extraction shrinks the subject; the old rows must be gone.
	smaller := hierarchy.Build([]types.TopicTuple{
		{Code: "2", Title: "Foundations", Level: 0},
		{Code: "2.1", Title: "Atoms", Level: 1, ParentCode: "2"},
	})
	if _, err := svc.ReplaceTopics(dbc, subjectID, smaller); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	rows, err = topicRepo.ListBySubjectID(dbc, subjectID)
	if err != nil {
		t.Fatalf("list after refresh: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after refresh, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Code == "2.2" {
			t.Fatalf("stale row survived the refresh")
		}
	}
}

func TestReplaceTopicsKeepsOrphansWithNullParent(t *testing.T) {
	svc, dbc := newTestService(t)
	subjectID, err := svc.UpsertSubject(dbc, types.SubjectKey{
		ExamBoard:         "WJEC",
		QualificationType: "GCSE",
		SubjectCode:       "3400",
		SubjectName:       "Geography",
	}, "")
	if err != nil {
		t.Fatalf("upsert subject: %v", err)
	}

	tree := hierarchy.Build([]types.TopicTuple{
		{Code: "7.1", Title: "Fieldwork", Level: 1, ParentCode: "7"},
	})
	if _, err := svc.ReplaceTopics(dbc, subjectID, tree); err != nil {
		t.Fatalf("replace: %v", err)
	}

	rows, err := repos.NewStagingTopicRepo(testutil.DB(t), testutil.Logger(t)).ListBySubjectID(dbc, subjectID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("orphan was dropped")
	}
	if rows[0].ParentTopicID != nil {
		t.Fatalf("orphan parent should be NULL, got %v", rows[0].ParentTopicID)
	}
	if rows[0].ParentCode != "7" {
		t.Fatalf("declared parent code should be preserved: %q", rows[0].ParentCode)
	}
}

func TestReplaceTopicsRejectsNilInput(t *testing.T) {
	svc, dbc := newTestService(t)
	if _, err := svc.ReplaceTopics(dbc, uuid.Nil, &hierarchy.Tree{}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("nil subject id: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.ReplaceTopics(dbc, uuid.New(), nil); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("nil tree: expected ErrInvalidArgument, got %v", err)
	}
}
