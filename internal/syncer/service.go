package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/curriculum-backend/internal/data/db"
	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/normalization"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

// Service promotes staging subjects into production. Production topic IDs
// are stable across re-syncs for unchanged codes because user progress and
// discovery rows reference them.
type Service struct {
	gdb             *gorm.DB
	log             *logger.Logger
	resolver        *normalization.Resolver
	stagingSubjects repos.StagingSubjectRepo
	stagingTopics   repos.StagingTopicRepo
	subjects        repos.SubjectRepo
	topics          repos.TopicRepo
}

func NewService(
	gdb *gorm.DB,
	baseLog *logger.Logger,
	resolver *normalization.Resolver,
	stagingSubjects repos.StagingSubjectRepo,
	stagingTopics repos.StagingTopicRepo,
	subjects repos.SubjectRepo,
	topics repos.TopicRepo,
) *Service {
	return &Service{
		gdb:             gdb,
		log:             baseLog.With("service", "SyncService"),
		resolver:        resolver,
		stagingSubjects: stagingSubjects,
		stagingTopics:   stagingTopics,
		subjects:        subjects,
		topics:          topics,
	}
}

// Result summarizes one subject's promotion for operator review.
type Result struct {
	StagingSubjectID uuid.UUID                 `json:"staging_subject_id"`
	SubjectID        uuid.UUID                 `json:"subject_id,omitempty"`
	Key              normalization.ResolvedKey `json:"key,omitempty"`
	Skipped          bool                      `json:"skipped,omitempty"`
	SkipReason       string                    `json:"skip_reason,omitempty"`
	Failed           bool                      `json:"failed,omitempty"`
	Error            string                    `json:"error,omitempty"`
	TopicsInserted   int                       `json:"topics_inserted"`
	TopicsUpdated    int                       `json:"topics_updated"`
	TopicsDeleted    int                       `json:"topics_deleted"`
	ParentsLinked    int                       `json:"parents_linked"`
}

// SyncSubject promotes one staging subject. A natural-key normalization
// failure skips the subject (reported, never defaulted); a duplicate-code
// violation is fatal for the subject because accepting it would corrupt
// the unique-code invariant parent linking relies on.
func (s *Service) SyncSubject(ctx context.Context, stagingSubjectID uuid.UUID) (*Result, error) {
	res := &Result{StagingSubjectID: stagingSubjectID}
	dbc := dbctx.Context{Ctx: ctx}

	stagingSubject, err := s.stagingSubjects.GetByID(dbc, stagingSubjectID)
	if err != nil {
		return nil, fmt.Errorf("load staging subject: %w", err)
	}

	resolved, err := s.resolver.Resolve(stagingSubject.Key())
	if err != nil {
		var unresolved *normalization.UnresolvedKeyError
		if errors.As(err, &unresolved) {
			s.log.Warn("Skipping subject with unresolvable natural key",
				"staging_subject_id", stagingSubjectID,
				"field", unresolved.Field,
				"raw", unresolved.Raw,
			)
			res.Skipped = true
			res.SkipReason = unresolved.Error()
			return res, nil
		}
		return nil, fmt.Errorf("resolve natural key: %w", err)
	}
	res.Key = resolved

	staged, err := s.stagingTopics.ListBySubjectID(dbc, stagingSubjectID)
	if err != nil {
		return nil, fmt.Errorf("load staging topics: %w", err)
	}
	if dup := firstDuplicateCode(staged); dup != "" {
		return nil, fmt.Errorf("staging topics for %s/%s carry duplicate code %q: %w",
			resolved.ExamBoardCode, resolved.SubjectCode, dup, pkgerrors.ErrDuplicateCode)
	}

	err = s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		return s.promote(inner, resolved, stagingSubject, staged, res)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Subject promoted",
		"subject_id", res.SubjectID,
		"exam_board", resolved.ExamBoardCode,
		"subject_code", resolved.SubjectCode,
		"inserted", res.TopicsInserted,
		"updated", res.TopicsUpdated,
		"deleted", res.TopicsDeleted,
		"parents_linked", res.ParentsLinked,
	)
	return res, nil
}

func (s *Service) promote(dbc dbctx.Context, key normalization.ResolvedKey, stagingSubject *types.StagingSubject, staged []*types.StagingTopic, res *Result) error {
	subject, err := s.resolveProductionSubject(dbc, key, stagingSubject)
	if err != nil {
		return err
	}
	res.SubjectID = subject.ID

	if err := s.subjects.MarkNonCurrent(dbc, key.ExamBoardCode, key.QualificationTypeCode, key.SubjectCode, subject.ID); err != nil {
		return fmt.Errorf("demote superseded subjects: %w", err)
	}

	existing, err := s.topics.ListBySubjectID(dbc, subject.ID)
	if err != nil {
		return fmt.Errorf("load production topics: %w", err)
	}
	existingByCode := make(map[string]*types.Topic, len(existing))
	for _, t := range existing {
		existingByCode[t.Code] = t
	}
	stagedByCode := make(map[string]*types.StagingTopic, len(staged))
	for _, t := range staged {
		stagedByCode[t.Code] = t
	}

	// Replace-all within the subject: codes gone from staging are removed.
	var removed []uuid.UUID
	for code, t := range existingByCode {
		if _, keep := stagedByCode[code]; !keep {
			removed = append(removed, t.ID)
		}
	}
	if err := s.topics.DeleteByIDs(dbc, removed); err != nil {
		return fmt.Errorf("delete superseded topics: %w", err)
	}
	res.TopicsDeleted = len(removed)

	// Phase 1: every topic lands with parent_topic_id NULL. This breaks
	// the self-referential foreign key ordering problem without a
	// topological sort. New topics keep their staging surrogate ID so
	// references created against staging stay valid after promotion.
	prodByCode := make(map[string]*types.Topic, len(staged))
	var inserts []*types.Topic
	for _, st := range staged {
		if cur, ok := existingByCode[st.Code]; ok {
			if cur.Name != st.Name || cur.Level != st.Level || cur.SortOrder != st.SortOrder || cur.ParentCode != st.ParentCode {
				cur.Name = st.Name
				cur.Level = st.Level
				cur.SortOrder = st.SortOrder
				cur.ParentCode = st.ParentCode
				if err := s.topics.Update(dbc, cur); err != nil {
					return fmt.Errorf("update topic %s: %w", st.Code, err)
				}
				res.TopicsUpdated++
			}
			prodByCode[st.Code] = cur
			continue
		}
		row := &types.Topic{
			ID:         st.ID,
			SubjectID:  subject.ID,
			Code:       st.Code,
			Name:       st.Name,
			Level:      st.Level,
			ParentCode: st.ParentCode,
			SortOrder:  st.SortOrder,
		}
		inserts = append(inserts, row)
		prodByCode[st.Code] = row
	}
	if err := s.topics.CreateBatch(dbc, inserts); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert topics for %s/%s: %w", key.ExamBoardCode, key.SubjectCode, pkgerrors.ErrDuplicateCode)
		}
		return fmt.Errorf("insert topics: %w", err)
	}
	res.TopicsInserted = len(inserts)

	// Phase 2: set parent pointers now that every row exists. Orphans keep
	// a NULL parent and are surfaced by validation.
	for _, st := range staged {
		child := prodByCode[st.Code]
		var wantParent *uuid.UUID
		if st.ParentCode != "" {
			if parent, ok := prodByCode[st.ParentCode]; ok {
				id := parent.ID
				wantParent = &id
			}
		}
		if parentEqual(child.ParentTopicID, wantParent) {
			continue
		}
		if err := s.topics.SetParent(dbc, child.ID, wantParent); err != nil {
			return fmt.Errorf("link topic %s: %w", st.Code, err)
		}
		if wantParent != nil {
			res.ParentsLinked++
		}
	}
	return nil
}

func (s *Service) resolveProductionSubject(dbc dbctx.Context, key normalization.ResolvedKey, stagingSubject *types.StagingSubject) (*types.Subject, error) {
	subject, err := s.subjects.GetCurrentByNaturalKey(dbc, key.ExamBoardCode, key.QualificationTypeCode, key.SubjectCode)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup production subject: %w", err)
	}
	if subject != nil {
		subject.SubjectName = key.SubjectName
		subject.SourceRef = stagingSubject.SourceRef
		if err := s.subjects.Update(dbc, subject); err != nil {
			return nil, fmt.Errorf("update production subject: %w", err)
		}
		return subject, nil
	}

	subject = &types.Subject{
		ExamBoardCode:         key.ExamBoardCode,
		QualificationTypeCode: key.QualificationTypeCode,
		SubjectCode:           key.SubjectCode,
		SubjectName:           key.SubjectName,
		SourceRef:             stagingSubject.SourceRef,
		IsCurrent:             true,
	}
	if err := s.subjects.Create(dbc, subject); err != nil {
		return nil, fmt.Errorf("create production subject: %w", err)
	}
	return subject, nil
}

// SyncAll promotes every staging subject, collecting per-subject outcomes.
// A failure in one subject never aborts the rest of the run.
func (s *Service) SyncAll(ctx context.Context) ([]*Result, error) {
	dbc := dbctx.Context{Ctx: ctx}
	subjects, err := s.stagingSubjects.List(dbc)
	if err != nil {
		return nil, fmt.Errorf("list staging subjects: %w", err)
	}

	out := make([]*Result, 0, len(subjects))
	for _, ss := range subjects {
		res, err := s.SyncSubject(ctx, ss.ID)
		if err != nil {
			s.log.Error("Subject sync failed", "staging_subject_id", ss.ID, "error", err)
			res = &Result{StagingSubjectID: ss.ID, Failed: true, Error: err.Error()}
		}
		out = append(out, res)
	}
	return out, nil
}

// FullCutover promotes every staging subject in one maintenance window with
// session timeouts disabled; the operation is infrequent and bounded, so a
// single long pass beats chunking.
func (s *Service) FullCutover(ctx context.Context) ([]*Result, error) {
	if err := db.DisableSessionTimeouts(s.gdb.WithContext(ctx)); err != nil {
		s.log.Warn("Could not disable session timeouts, continuing", "error", err)
	}
	return s.SyncAll(ctx)
}

func firstDuplicateCode(rows []*types.StagingTopic) string {
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.Code] {
			return r.Code
		}
		seen[r.Code] = true
	}
	return ""
}

func parentEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
