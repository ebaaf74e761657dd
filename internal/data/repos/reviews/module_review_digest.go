package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

type ModuleReviewDigestRepo interface {
	GetByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) ([]*types.ModuleReviewDigest, error)
	GetByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*types.ModuleReviewDigest, error)

	// UpsertByModuleID replaces the single digest row for row.ModuleID.
	UpsertByModuleID(ctx context.Context, tx *gorm.DB, row *types.ModuleReviewDigest) error

	FullDeleteByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error
}

type moduleReviewDigestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleReviewDigestRepo(db *gorm.DB, baseLog *logger.Logger) ModuleReviewDigestRepo {
	return &moduleReviewDigestRepo{
		db:  db,
		log: baseLog.With("repo", "ModuleReviewDigestRepo"),
	}
}

func (r *moduleReviewDigestRepo) GetByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) ([]*types.ModuleReviewDigest, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ModuleReviewDigest
	if len(moduleIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("module_id IN ?", moduleIDs).
		Order("module_id ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("get module digests", err)
	}
	return out, nil
}

func (r *moduleReviewDigestRepo) GetByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*types.ModuleReviewDigest, error) {
	if moduleID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByModuleIDs(ctx, tx, []uuid.UUID{moduleID})
	if err != nil {
		return nil, err
	}
	return PickFirst(rows), nil
}

func (r *moduleReviewDigestRepo) UpsertByModuleID(ctx context.Context, tx *gorm.DB, row *types.ModuleReviewDigest) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ModuleID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	if row.GeneratedAt.IsZero() {
		row.GeneratedAt = row.UpdatedAt
	}

	err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"reviews_fingerprint",
				"summary",
				"top_keywords",
				"sentiment",
				"source",
				"generated_at",
				"updated_at",
			}),
		}).
		Create(row).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			r.log.Warn("module digest upsert rejected",
				"module_id", row.ModuleID.String(),
				"pg_code", pgErr.Code,
				"constraint", pgErr.ConstraintName,
			)
		}
		return MapError("upsert module digest", err)
	}
	return nil
}

func (r *moduleReviewDigestRepo) FullDeleteByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(moduleIDs) == 0 {
		return nil
	}
	return MapError("delete module digests", t.WithContext(ctx).Where("module_id IN ?", moduleIDs).Delete(&types.ModuleReviewDigest{}).Error)
}
