package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/docuchat/docuchat-backend/internal/data/repos"
	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/gcp"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// DocumentService is the two-phase document operation layer: blob store and
// catalog, always touched in the order that keeps a catalog row from ever
// pointing at a missing blob.
//
// Upload writes the blob first; if the catalog insert then fails the blob is
// left behind and the error says so. Delete removes the blob first and stops
// before the row when that fails.
type DocumentService interface {
	List(ctx context.Context, scope domain.Scope) ([]*domain.Document, error)
	Upload(ctx context.Context, scope domain.Scope, title string, file io.Reader) (*domain.Document, error)
	Delete(ctx context.Context, scope domain.Scope, doc *domain.Document) error
	DeleteAllForProject(ctx context.Context, scope domain.Scope) error
	PublicURL(doc *domain.Document) string
}

type documentService struct {
	db      *gorm.DB
	log     *logger.Logger
	docRepo repos.DocumentRepo
	bucket  gcp.BucketService
}

func NewDocumentService(db *gorm.DB, log *logger.Logger, docRepo repos.DocumentRepo, bucket gcp.BucketService) DocumentService {
	return &documentService{
		db:      db,
		log:     log.With("service", "DocumentService"),
		docRepo: docRepo,
		bucket:  bucket,
	}
}

func (ds *documentService) List(ctx context.Context, scope domain.Scope) ([]*domain.Document, error) {
	if !scope.Valid() {
		return nil, domain.ErrValidation
	}
	return ds.docRepo.ListByOwnerAndProject(ctx, nil, scope.UserID, scope.ProjectID)
}

func (ds *documentService) Upload(ctx context.Context, scope domain.Scope, title string, file io.Reader) (*domain.Document, error) {
	if !scope.Valid() || file == nil {
		return nil, domain.ErrValidation
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", domain.ErrValidation)
	}

	storagePath := fmt.Sprintf("%s/%d-%s", scope.UserID, time.Now().UnixMilli(), sanitizeObjectName(title))

	if upErr := ds.bucket.UploadFile(ctx, storagePath, file); upErr != nil {
		return nil, fmt.Errorf("upload blob: %w", upErr)
	}

	doc := &domain.Document{
		UserID:      scope.UserID,
		ProjectID:   scope.ProjectID,
		Title:       title,
		StoragePath: storagePath,
	}
	if _, crErr := ds.docRepo.Create(ctx, nil, doc); crErr != nil {
		ds.log.Error("catalog insert failed after blob write, orphan blob remains",
			"storage_path", storagePath, "error", crErr)
		return nil, fmt.Errorf("%w: blob stored at %q but catalog insert failed: %v",
			domain.ErrPartialFailure, storagePath, crErr)
	}
	return doc, nil
}

func (ds *documentService) Delete(ctx context.Context, scope domain.Scope, doc *domain.Document) error {
	if !scope.Valid() || doc == nil {
		return domain.ErrValidation
	}

	if rmErr := ds.bucket.RemoveFiles(ctx, []string{doc.StoragePath}); rmErr != nil {
		return fmt.Errorf("remove blob: %w", rmErr)
	}
	if delErr := ds.docRepo.FullDeleteByIDOwnerProject(ctx, nil, doc.ID, scope.UserID, scope.ProjectID); delErr != nil {
		return fmt.Errorf("delete catalog row: %w", delErr)
	}
	return nil
}

// DeleteAllForProject clears a project's documents, blobs first per document.
// A blob failure stops the sweep; documents already processed stay deleted.
func (ds *documentService) DeleteAllForProject(ctx context.Context, scope domain.Scope) error {
	if !scope.Valid() {
		return domain.ErrValidation
	}
	docs, lsErr := ds.docRepo.ListByOwnerAndProject(ctx, nil, scope.UserID, scope.ProjectID)
	if lsErr != nil {
		return fmt.Errorf("list project documents: %w", lsErr)
	}
	for _, doc := range docs {
		if err := ds.Delete(ctx, scope, doc); err != nil {
			return err
		}
	}
	return nil
}

func (ds *documentService) PublicURL(doc *domain.Document) string {
	if doc == nil {
		return ""
	}
	return ds.bucket.GetPublicURL(doc.StoragePath)
}

// sanitizeObjectName keeps storage keys to a safe character set. Anything
// outside alnum, dot, dash, and underscore becomes an underscore.
func sanitizeObjectName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
