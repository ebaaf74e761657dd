package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/review-digest/internal/domain/reviews"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

type ModuleReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ModuleReview) ([]*types.ModuleReview, error)

	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ModuleReview, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ModuleReview, error)
	GetByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.ModuleReview, error)

	// ListModuleIDs returns every module that has at least one review.
	ListModuleIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type moduleReviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleReviewRepo(db *gorm.DB, baseLog *logger.Logger) ModuleReviewRepo {
	return &moduleReviewRepo{
		db:  db,
		log: baseLog.With("repo", "ModuleReviewRepo"),
	}
}

func (r *moduleReviewRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ModuleReview) ([]*types.ModuleReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ModuleReview{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = row.CreatedAt
		}
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, MapError("create module reviews", err)
	}
	return rows, nil
}

func (r *moduleReviewRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ModuleReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ModuleReview
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, MapError("get module reviews", err)
	}
	return out, nil
}

func (r *moduleReviewRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ModuleReview, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return PickFirst(rows), nil
}

func (r *moduleReviewRepo) GetByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.ModuleReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.ModuleReview{}
	if moduleID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, MapError("list module reviews", err)
	}
	return out, nil
}

func (r *moduleReviewRepo) ListModuleIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if err := t.WithContext(ctx).
		Model(&types.ModuleReview{}).
		Distinct("module_id").
		Order("module_id ASC").
		Pluck("module_id", &out).Error; err != nil {
		return nil, MapError("list reviewed modules", err)
	}
	return out, nil
}

func (r *moduleReviewRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return MapError("update module review", t.WithContext(ctx).
		Model(&types.ModuleReview{}).
		Where("id = ?", id).
		Updates(updates).Error)
}

func (r *moduleReviewRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return MapError("delete module reviews", t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.ModuleReview{}).Error)
}

// PickFirst returns the first row or nil.
func PickFirst[T any](rows []*T) *T {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
