package staging

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/hierarchy"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

// Service is the staging store adapter. Staging rows are disposable; every
// operation is scoped to exactly one subject so re-runs never touch
// neighbours.
type Service struct {
	db          *gorm.DB
	log         *logger.Logger
	subjectRepo repos.StagingSubjectRepo
	topicRepo   repos.StagingTopicRepo
}

func NewService(db *gorm.DB, baseLog *logger.Logger, subjectRepo repos.StagingSubjectRepo, topicRepo repos.StagingTopicRepo) *Service {
	return &Service{
		db:          db,
		log:         baseLog.With("service", "StagingService"),
		subjectRepo: subjectRepo,
		topicRepo:   topicRepo,
	}
}

// UpsertSubject creates or refreshes the staging subject for a natural key
// and returns its ID. Attributes are overwritten on re-extraction.
func (s *Service) UpsertSubject(dbc dbctx.Context, key types.SubjectKey, sourceRef string) (uuid.UUID, error) {
	if key.Empty() {
		return uuid.Nil, pkgerrors.ErrInvalidArgument
	}
	existing, err := s.subjectRepo.GetByNaturalKey(dbc, key)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("lookup staging subject: %w", err)
	}
	if existing != nil {
		existing.SubjectName = key.SubjectName
		existing.SourceRef = sourceRef
		if err := s.subjectRepo.Update(dbc, existing); err != nil {
			return uuid.Nil, fmt.Errorf("update staging subject: %w", err)
		}
		return existing.ID, nil
	}

	row := &types.StagingSubject{
		ExamBoard:         key.ExamBoard,
		QualificationType: key.QualificationType,
		SubjectCode:       key.SubjectCode,
		SubjectName:       key.SubjectName,
		SourceRef:         sourceRef,
	}
	if err := s.subjectRepo.Create(dbc, row); err != nil {
		return uuid.Nil, fmt.Errorf("create staging subject: %w", err)
	}
	return row.ID, nil
}

// ReplaceTopics performs a full refresh of one subject's staging topics.
// Delete and insert run inside a single transaction, so a mid-replace
// failure can never leave the subject topic-less.
func (s *Service) ReplaceTopics(dbc dbctx.Context, subjectID uuid.UUID, tree *hierarchy.Tree) (int, error) {
	if subjectID == uuid.Nil || tree == nil {
		return 0, pkgerrors.ErrInvalidArgument
	}

	before, err := s.topicRepo.CountBySubjectID(dbc, subjectID)
	if err != nil {
		return 0, fmt.Errorf("count staging topics: %w", err)
	}

	rows := make([]*types.StagingTopic, 0, len(tree.Nodes))
	byCode := make(map[string]*types.StagingTopic, len(tree.Nodes))
	for _, n := range tree.Nodes {
		row := &types.StagingTopic{
			ID:         uuid.New(),
			SubjectID:  subjectID,
			Code:       n.Code,
			Name:       n.Title,
			Level:      n.Level,
			ParentCode: n.ParentCode,
			SortOrder:  n.SortOrder,
		}
		rows = append(rows, row)
		byCode[row.Code] = row
	}
	for _, row := range rows {
		if row.ParentCode == "" {
			continue
		}
		if parent, ok := byCode[row.ParentCode]; ok {
			id := parent.ID
			row.ParentTopicID = &id
		}
		// Unresolved parents stay NULL: root-equivalent orphans are kept
		// and flagged by validation, not dropped.
	}

	run := func(inner dbctx.Context) error {
		if err := s.topicRepo.DeleteBySubjectID(inner, subjectID); err != nil {
			return fmt.Errorf("delete staging topics: %w", err)
		}
		if err := s.topicRepo.CreateBatch(inner, rows); err != nil {
			return fmt.Errorf("insert staging topics: %w", err)
		}
		return nil
	}

	if dbc.Tx != nil {
		if err := run(dbc); err != nil {
			return 0, err
		}
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		}); err != nil {
			return 0, err
		}
	}

	s.log.Info("Replaced staging topics",
		"subject_id", subjectID,
		"before", before,
		"after", len(rows),
		"orphans", tree.Orphans,
		"duplicates_dropped", tree.Duplicates,
	)
	return len(rows), nil
}
