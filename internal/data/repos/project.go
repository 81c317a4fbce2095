package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// ProjectRepo is the catalog access layer for project rows. Every query
// filters by owner id; a project is visible and mutable only by its owner.
type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, project *domain.Project) (*domain.Project, error)
	GetByIDAndOwner(ctx context.Context, tx *gorm.DB, projectID, ownerID uuid.UUID) (*domain.Project, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*domain.Project, error)
	UpdateName(ctx context.Context, tx *gorm.DB, projectID, ownerID uuid.UUID, name string) error
	SoftDeleteByIDAndOwner(ctx context.Context, tx *gorm.DB, projectID, ownerID uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(ctx context.Context, tx *gorm.DB, project *domain.Project) (*domain.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepo) GetByIDAndOwner(ctx context.Context, tx *gorm.DB, projectID, ownerID uuid.UUID) (*domain.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var project domain.Project
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, ownerID).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*domain.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Project
	if ownerID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectRepo) UpdateName(ctx context.Context, tx *gorm.DB, projectID, ownerID uuid.UUID, name string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	result := transaction.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ? AND user_id = ?", projectID, ownerID).
		Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepo) SoftDeleteByIDAndOwner(ctx context.Context, tx *gorm.DB, projectID, ownerID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, ownerID).
		Delete(&domain.Project{}).Error
}
