package store

import (
	"context"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository handles database operations for lesson progress
type ProgressRepository interface {
	ListForUserModule(ctx context.Context, userID int64, moduleSlug string) ([]domain.LessonProgress, error)
	Complete(ctx context.Context, userID int64, moduleSlug, lessonSlug string) error
}

// GormProgressRepository is the GORM implementation of ProgressRepository
type GormProgressRepository struct {
	db *gorm.DB
}

func NewGormProgressRepository(db *gorm.DB) *GormProgressRepository {
	return &GormProgressRepository{db: db}
}

func (r *GormProgressRepository) ListForUserModule(ctx context.Context, userID int64, moduleSlug string) ([]domain.LessonProgress, error) {
	var rows []domain.LessonProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_slug = ?", userID, moduleSlug).
		Find(&rows).Error
	return rows, err
}

func (r *GormProgressRepository) Complete(ctx context.Context, userID int64, moduleSlug, lessonSlug string) error {
	now := time.Now()
	row := domain.LessonProgress{
		ID:          common.UUIDint64(),
		UserID:      userID,
		ModuleSlug:  moduleSlug,
		LessonSlug:  lessonSlug,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_slug"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"completed_at": &now, "updated_at": now}),
		}).
		Create(&row).Error
}
