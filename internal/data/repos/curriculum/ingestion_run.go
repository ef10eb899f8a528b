package curriculum

import (
	"time"

	"gorm.io/gorm"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studyforge/curriculum-backend/internal/pkg/errors"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

type IngestionRunRepo interface {
	Create(dbc dbctx.Context, row *types.IngestionRun) error
	Update(dbc dbctx.Context, row *types.IngestionRun) error
	ListRecent(dbc dbctx.Context, limit int) ([]*types.IngestionRun, error)
}

type ingestionRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngestionRunRepo(db *gorm.DB, baseLog *logger.Logger) IngestionRunRepo {
	return &ingestionRunRepo{db: db, log: baseLog.With("repo", "IngestionRunRepo")}
}

func (r *ingestionRunRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *ingestionRunRepo) Create(dbc dbctx.Context, row *types.IngestionRun) error {
	if row == nil {
		return pkgerrors.ErrInvalidArgument
	}
	now := time.Now().UTC()
	if row.StartedAt.IsZero() {
		row.StartedAt = now
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *ingestionRunRepo) Update(dbc dbctx.Context, row *types.IngestionRun) error {
	if row == nil {
		return pkgerrors.ErrInvalidArgument
	}
	row.UpdatedAt = time.Now().UTC()
	return r.dbx(dbc).WithContext(dbc.Ctx).Save(row).Error
}

func (r *ingestionRunRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.IngestionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []*types.IngestionRun{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
