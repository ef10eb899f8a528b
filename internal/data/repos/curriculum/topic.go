package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

type TopicRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.Topic) error
	Update(dbc dbctx.Context, row *types.Topic) error
	ListBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.Topic, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	SetParent(dbc dbctx.Context, id uuid.UUID, parentID *uuid.UUID) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *topicRepo) CreateBatch(dbc dbctx.Context, rows []*types.Topic) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).CreateInBatches(rows, 200).Error
}

func (r *topicRepo) Update(dbc dbctx.Context, row *types.Topic) error {
	if row == nil || row.ID == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	row.UpdatedAt = time.Now().UTC()
	return r.dbx(dbc).WithContext(dbc.Ctx).Save(row).Error
}

func (r *topicRepo) ListBySubjectID(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.Topic, error) {
	out := []*types.Topic{}
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

func (r *topicRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Topic{}).Error
}

func (r *topicRepo) SetParent(dbc dbctx.Context, id uuid.UUID, parentID *uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Topic{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"parent_topic_id": parentID,
			"updated_at":      time.Now().UTC(),
		}).Error
}
