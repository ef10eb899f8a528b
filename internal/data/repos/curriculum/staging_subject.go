package curriculum

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

type StagingSubjectRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StagingSubject, error)
	GetByNaturalKey(dbc dbctx.Context, key types.SubjectKey) (*types.StagingSubject, error)
	Create(dbc dbctx.Context, row *types.StagingSubject) error
	Update(dbc dbctx.Context, row *types.StagingSubject) error
	List(dbc dbctx.Context) ([]*types.StagingSubject, error)
}

type stagingSubjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStagingSubjectRepo(db *gorm.DB, baseLog *logger.Logger) StagingSubjectRepo {
	return &stagingSubjectRepo{db: db, log: baseLog.With("repo", "StagingSubjectRepo")}
}

func (r *stagingSubjectRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *stagingSubjectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StagingSubject, error) {
	var row types.StagingSubject
	err := r.dbx(dbc).WithContext(dbc.Ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *stagingSubjectRepo) GetByNaturalKey(dbc dbctx.Context, key types.SubjectKey) (*types.StagingSubject, error) {
	var row types.StagingSubject
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("exam_board = ? AND qualification_type = ? AND subject_code = ?",
			key.ExamBoard, key.QualificationType, key.SubjectCode).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *stagingSubjectRepo) Create(dbc dbctx.Context, row *types.StagingSubject) error {
	if row == nil {
		return pkgerrors.ErrInvalidArgument
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *stagingSubjectRepo) Update(dbc dbctx.Context, row *types.StagingSubject) error {
	if row == nil || row.ID == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	row.UpdatedAt = time.Now().UTC()
	return r.dbx(dbc).WithContext(dbc.Ctx).Save(row).Error
}

func (r *stagingSubjectRepo) List(dbc dbctx.Context) ([]*types.StagingSubject, error) {
	out := []*types.StagingSubject{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Order("exam_board, subject_code").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
