package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	"github.com/studyforge/curriculum-backend/internal/data/repos/curriculum/testutil"
	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/normalization"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
)

// Sync opens its own transactions, so tests share the sqlite database and
// isolate themselves with unique subject codes instead of testutil.Tx.
type harness struct {
	gdb             *gorm.DB
	svc             *Service
	stagingSubjects repos.StagingSubjectRepo
	stagingTopics   repos.StagingTopicRepo
	subjects        repos.SubjectRepo
	topics          repos.TopicRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		gdb:             gdb,
		stagingSubjects: repos.NewStagingSubjectRepo(gdb, log),
		stagingTopics:   repos.NewStagingTopicRepo(gdb, log),
		subjects:        repos.NewSubjectRepo(gdb, log),
		topics:          repos.NewTopicRepo(gdb, log),
	}
	h.svc = NewService(gdb, log, normalization.NewResolver(),
		h.stagingSubjects, h.stagingTopics, h.subjects, h.topics)
	return h
}

type stagedTopic struct {
	code       string
	name       string
	level      int
	parentCode string
}

// stage writes one staging subject plus its topics, resolving parent
// pointers within the batch the way the staging adapter does.
func (h *harness) stage(t *testing.T, board, qual, code string, topics []stagedTopic) uuid.UUID {
	t.Helper()
	dbc := dbctx.Background()

	subject, err := h.stagingSubjects.GetByNaturalKey(dbc, types.SubjectKey{
		ExamBoard: board, QualificationType: qual, SubjectCode: code,
	})
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("lookup staging subject: %v", err)
	}
	if subject == nil {
		subject = &types.StagingSubject{
			ExamBoard:         board,
			QualificationType: qual,
			SubjectCode:       code,
			SubjectName:       "Subject " + code,
			SourceRef:         "test.pdf",
		}
		if err := h.stagingSubjects.Create(dbc, subject); err != nil {
			t.Fatalf("create staging subject: %v", err)
		}
	}
	if err := h.stagingTopics.DeleteBySubjectID(dbc, subject.ID); err != nil {
		t.Fatalf("clear staging topics: %v", err)
	}

	rows := make([]*types.StagingTopic, 0, len(topics))
	byCode := map[string]*types.StagingTopic{}
	for i, st := range topics {
		row := &types.StagingTopic{
			ID:         uuid.New(),
			SubjectID:  subject.ID,
			Code:       st.code,
			Name:       st.name,
			Level:      st.level,
			ParentCode: st.parentCode,
			SortOrder:  i,
		}
		rows = append(rows, row)
		byCode[st.code] = row
	}
	for _, row := range rows {
		if parent, ok := byCode[row.ParentCode]; ok {
			id := parent.ID
			row.ParentTopicID = &id
		}
	}
	if err := h.stagingTopics.CreateBatch(dbc, rows); err != nil {
		t.Fatalf("insert staging topics: %v", err)
	}
	return subject.ID
}

func (h *harness) productionByCode(t *testing.T, subjectID uuid.UUID) map[string]*types.Topic {
	t.Helper()
	rows, err := h.topics.ListBySubjectID(dbctx.Background(), subjectID)
	if err != nil {
		t.Fatalf("list production topics: %v", err)
	}
	out := map[string]*types.Topic{}
	for _, r := range rows {
		out[r.Code] = r
	}
	return out
}

func TestSyncSubjectCreatesProductionTree(t *testing.T) {
	h := newHarness(t)
	stagingID := h.stage(t, "AQA", "GCSE", "SYNC-TREE", []stagedTopic{
		{code: "1", name: "Energy", level: 0},
		{code: "1.1", name: "Stores", level: 1, parentCode: "1"},
		{code: "1.2", name: "Transfers", level: 1, parentCode: "1"},
	})

	res, err := h.svc.SyncSubject(context.Background(), stagingID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Skipped || res.Failed {
		t.Fatalf("unexpected outcome: %+v", res)
	}
	if res.TopicsInserted != 3 || res.TopicsDeleted != 0 {
		t.Fatalf("counts: %+v", res)
	}
	if res.ParentsLinked != 2 {
		t.Fatalf("parents linked = %d, want 2", res.ParentsLinked)
	}

	subject, err := h.subjects.GetCurrentByNaturalKey(dbctx.Background(), "AQA", "GCSE", "SYNC-TREE")
	if err != nil {
		t.Fatalf("load production subject: %v", err)
	}
	if !subject.IsCurrent || subject.ID != res.SubjectID {
		t.Fatalf("production subject: %+v", subject)
	}

	prod := h.productionByCode(t, subject.ID)
	if len(prod) != 3 {
		t.Fatalf("production topics = %d, want 3", len(prod))
	}
	if prod["1"].ParentTopicID != nil {
		t.Fatalf("root should have NULL parent")
	}
	if prod["1.1"].ParentTopicID == nil || *prod["1.1"].ParentTopicID != prod["1"].ID {
		t.Fatalf("child not linked to root")
	}
}

func TestSyncSubjectNewTopicsKeepStagingIDs(t *testing.T) {
	h := newHarness(t)
	stagingID := h.stage(t, "AQA", "GCSE", "SYNC-IDS", []stagedTopic{
		{code: "2", name: "Waves", level: 0},
	})
	staged, err := h.stagingTopics.ListBySubjectID(dbctx.Background(), stagingID)
	if err != nil {
		t.Fatalf("list staged: %v", err)
	}

	res, err := h.svc.SyncSubject(context.Background(), stagingID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	prod := h.productionByCode(t, res.SubjectID)
	if prod["2"].ID != staged[0].ID {
		t.Fatalf("new topic should keep its staging id: %s vs %s", prod["2"].ID, staged[0].ID)
	}
}

func TestSyncSubjectStableIDsAcrossResync(t *testing.T) {
	h := newHarness(t)
	stagingID := h.stage(t, "OCR", "ALEVEL", "SYNC-STABLE", []stagedTopic{
		{code: "3", name: "Forces", level: 0},
		{code: "3.1", name: "Newton's laws", level: 1, parentCode: "3"},
	})
	first, err := h.svc.SyncSubject(context.Background(), stagingID)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	firstIDs := h.productionByCode(t, first.SubjectID)

	// Re-extraction produces fresh staging surrogate IDs for the same codes.
	h.stage(t, "OCR", "ALEVEL", "SYNC-STABLE", []stagedTopic{
		{code: "3", name: "Forces", level: 0},
		{code: "3.1", name: "Newton's laws of motion", level: 1, parentCode: "3"},
	})
	second, err := h.svc.SyncSubject(context.Background(), stagingID)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.SubjectID != first.SubjectID {
		t.Fatalf("subject id changed across re-sync")
	}
	if second.TopicsInserted != 0 {
		t.Fatalf("re-sync inserted %d topics, want 0", second.TopicsInserted)
	}
	if second.TopicsUpdated != 1 {
		t.Fatalf("renamed topic should count as update, got %d", second.TopicsUpdated)
	}

	secondIDs := h.productionByCode(t, second.SubjectID)
	for code := range firstIDs {
		if firstIDs[code].ID != secondIDs[code].ID {
			t.Fatalf("production id for %s changed across re-sync", code)
		}
	}
	if secondIDs["3.1"].Name != "Newton's laws of motion" {
		t.Fatalf("rename not applied: %q", secondIDs["3.1"].Name)
	}
}

func TestSyncSubjectRemovesDroppedCodes(t *testing.T) {
	h := newHarness(t)
	stagingID := h.stage(t, "WJEC", "GCSE", "SYNC-DROP", []stagedTopic{
		{code: "4", name: "Ecology", level: 0},
		{code: "4.1", name: "Habitats", level: 1, parentCode: "4"},
	})
	if _, err := h.svc.SyncSubject(context.Background(), stagingID); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	h.stage(t, "WJEC", "GCSE", "SYNC-DROP", []stagedTopic{
		{code: "4", name: "Ecology", level: 0},
	})
	res, err := h.svc.SyncSubject(context.Background(), stagingID)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if res.TopicsDeleted != 1 {
		t.Fatalf("deleted = %d, want 1", res.TopicsDeleted)
	}
	prod := h.productionByCode(t, res.SubjectID)
	if _, still := prod["4.1"]; still {
		t.Fatalf("dropped code survived promotion")
	}
}

func TestSyncSubjectKeepsOrphansWithNullParent(t *testing.T) {
	h := newHarness(t)
	stagingID := h.stage(t, "CCEA", "GCSE", "SYNC-ORPHAN", []stagedTopic{
		{code: "5", name: "Cells", level: 0},
		{code: "9.9", name: "Detached appendix", level: 1, parentCode: "9"},
	})
	res, err := h.svc.SyncSubject(context.Background(), stagingID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	prod := h.productionByCode(t, res.SubjectID)
	orphan, ok := prod["9.9"]
	if !ok {
		t.Fatalf("orphan was dropped during promotion")
	}
	if orphan.ParentTopicID != nil {
		t.Fatalf("orphan should land with NULL parent")
	}
	if orphan.ParentCode != "9" {
		t.Fatalf("declared parent code lost in promotion: %q", orphan.ParentCode)
	}
	if prod["5"].ParentCode != "" {
		t.Fatalf("root should declare no parent, got %q", prod["5"].ParentCode)
	}
}

func TestSyncSubjectSkipsUnresolvableKey(t *testing.T) {
	h := newHarness(t)
	stagingID := h.stage(t, "Mystery Board", "GCSE", "SYNC-SKIP", []stagedTopic{
		{code: "1", name: "Anything", level: 0},
	})
	res, err := h.svc.SyncSubject(context.Background(), stagingID)
	if err != nil {
		t.Fatalf("skip should not be an error: %v", err)
	}
	if !res.Skipped || res.SkipReason == "" {
		t.Fatalf("expected skipped result, got %+v", res)
	}
	if _, err := h.subjects.GetCurrentByNaturalKey(dbctx.Background(), "MYSTERY BOARD", "GCSE", "SYNC-SKIP"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("skipped subject must not reach production: %v", err)
	}
}

func TestSyncAllContinuesPastSkips(t *testing.T) {
	h := newHarness(t)
	goodID := h.stage(t, "SQA", "HIGHER", "SYNC-ALL-OK", []stagedTopic{
		{code: "1", name: "Topic", level: 0},
	})
	badID := h.stage(t, "Unknown Org", "HIGHER", "SYNC-ALL-BAD", []stagedTopic{
		{code: "1", name: "Topic", level: 0},
	})

	results, err := h.svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}

	byStaging := map[uuid.UUID]*Result{}
	for _, r := range results {
		byStaging[r.StagingSubjectID] = r
	}
	good, ok := byStaging[goodID]
	if !ok || good.Skipped || good.Failed {
		t.Fatalf("good subject outcome: %+v", good)
	}
	bad, ok := byStaging[badID]
	if !ok || !bad.Skipped {
		t.Fatalf("bad subject outcome: %+v", bad)
	}
}

func TestFirstDuplicateCode(t *testing.T) {
	rows := []*types.StagingTopic{
		{Code: "1"}, {Code: "1.1"}, {Code: "1.1"}, {Code: "1.2"},
	}
	if got := firstDuplicateCode(rows); got != "1.1" {
		t.Fatalf("first duplicate = %q", got)
	}
	if got := firstDuplicateCode(rows[:2]); got != "" {
		t.Fatalf("clean set reported duplicate %q", got)
	}
}

func TestIsUniqueViolationStringFallback(t *testing.T) {
	if !isUniqueViolation(errors.New("UNIQUE constraint failed: topic.code")) {
		t.Fatalf("sqlite unique error not detected")
	}
	if !isUniqueViolation(errors.New("ERROR: duplicate key value (SQLSTATE 23505)")) {
		t.Fatalf("postgres sqlstate not detected")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatalf("false positive")
	}
	if isUniqueViolation(nil) {
		t.Fatalf("nil error")
	}
}
