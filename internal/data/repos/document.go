package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// DocumentRepo is the catalog access layer for document rows. Reads filter by
// owner; deletes additionally filter by project id to rule out cross-tenant
// and cross-project removal.
type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *domain.Document) (*domain.Document, error)
	GetByIDAndOwner(ctx context.Context, tx *gorm.DB, docID, ownerID uuid.UUID) (*domain.Document, error)
	ListByOwnerAndProject(ctx context.Context, tx *gorm.DB, ownerID, projectID uuid.UUID) ([]*domain.Document, error)
	FullDeleteByIDOwnerProject(ctx context.Context, tx *gorm.DB, docID, ownerID, projectID uuid.UUID) error
	FullDeleteByOwnerAndProject(ctx context.Context, tx *gorm.DB, ownerID, projectID uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *domain.Document) (*domain.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByIDAndOwner(ctx context.Context, tx *gorm.DB, docID, ownerID uuid.UUID) (*domain.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var doc domain.Document
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", docID, ownerID).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByOwnerAndProject returns the project's documents newest-first. Order
// is established here; callers never re-sort.
func (r *documentRepo) ListByOwnerAndProject(ctx context.Context, tx *gorm.DB, ownerID, projectID uuid.UUID) ([]*domain.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Document
	if ownerID == uuid.Nil || projectID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", ownerID, projectID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) FullDeleteByIDOwnerProject(ctx context.Context, tx *gorm.DB, docID, ownerID, projectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("id = ? AND user_id = ? AND project_id = ?", docID, ownerID, projectID).
		Delete(&domain.Document{}).Error
}

func (r *documentRepo) FullDeleteByOwnerAndProject(ctx context.Context, tx *gorm.DB, ownerID, projectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if ownerID == uuid.Nil || projectID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND project_id = ?", ownerID, projectID).
		Delete(&domain.Document{}).Error
}
