package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

type StagingTopicRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.StagingTopic) error
	ListBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.StagingTopic, error)
	CountBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) (int64, error)
	DeleteBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) error
	SetParent(dbc dbctx.Context, id uuid.UUID, parentID *uuid.UUID) error
}

type stagingTopicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStagingTopicRepo(db *gorm.DB, baseLog *logger.Logger) StagingTopicRepo {
	return &stagingTopicRepo{db: db, log: baseLog.With("repo", "StagingTopicRepo")}
}

func (r *stagingTopicRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *stagingTopicRepo) CreateBatch(dbc dbctx.Context, rows []*types.StagingTopic) error {
	if len(rows) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).CreateInBatches(rows, 200).Error
}

func (r *stagingTopicRepo) ListBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.StagingTopic, error) {
	out := []*types.StagingTopic{}
	if subjectID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("subject_id = ?", subjectID).
		Order("sort_order").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stagingTopicRepo) CountBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) (int64, error) {
	var n int64
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.StagingTopic{}).
		Where("subject_id = ?", subjectID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteBySubjectID is a hard delete scoped to one subject; staging rows are
// disposable.
func (r *stagingTopicRepo) DeleteBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) error {
	if subjectID == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Unscoped().
		Where("subject_id = ?", subjectID).
		Delete(&types.StagingTopic{}).Error
}

func (r *stagingTopicRepo) SetParent(dbc dbctx.Context, id uuid.UUID, parentID *uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.StagingTopic{}).
		Where("id = ?", id).
		Update("parent_topic_id", parentID).Error
}
