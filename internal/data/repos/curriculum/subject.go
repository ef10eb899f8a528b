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

type SubjectRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Subject, error)
	GetCurrentByNaturalKey(dbc dbctx.Context, board, qualification, code string) (*types.Subject, error)
	Create(dbc dbctx.Context, row *types.Subject) error
	Update(dbc dbctx.Context, row *types.Subject) error
	MarkNonCurrent(dbc dbctx.Context, board, qualification, code string, exceptID uuid.UUID) error
	ListCurrent(dbc dbctx.Context) ([]*types.Subject, error)
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{db: db, log: baseLog.With("repo", "SubjectRepo")}
}

func (r *subjectRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *subjectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Subject, error) {
	var row types.Subject
	err := r.dbx(dbc).WithContext(dbc.Ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *subjectRepo) GetCurrentByNaturalKey(dbc dbctx.Context, board, qualification, code string) (*types.Subject, error) {
	var row types.Subject
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("exam_board_code = ? AND qualification_type_code = ? AND subject_code = ? AND is_current = ?",
			board, qualification, code, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *subjectRepo) Create(dbc dbctx.Context, row *types.Subject) error {
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

func (r *subjectRepo) Update(dbc dbctx.Context, row *types.Subject) error {
	if row == nil || row.ID == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	row.UpdatedAt = time.Now().UTC()
	return r.dbx(dbc).WithContext(dbc.Ctx).Save(row).Error
}

// MarkNonCurrent demotes every current subject for the natural key except
// the one being promoted. Superseded rows are kept, never deleted.
func (r *subjectRepo) MarkNonCurrent(dbc dbctx.Context, board, qualification, code string, exceptID uuid.UUID) error {
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Subject{}).
		Where("exam_board_code = ? AND qualification_type_code = ? AND subject_code = ? AND is_current = ? AND id <> ?",
			board, qualification, code, true, exceptID).
		Updates(map[string]interface{}{
			"is_current": false,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *subjectRepo) ListCurrent(dbc dbctx.Context) ([]*types.Subject, error) {
	out := []*types.Subject{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("is_current = ?", true).
		Order("exam_board_code, subject_code").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
