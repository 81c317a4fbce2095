package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuchat/docuchat-backend/internal/data/repos"
	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// ProjectService owns the project catalog. Every operation is scoped to the
// owning user; there is no cross-user visibility.
type ProjectService interface {
	CreateProject(ctx context.Context, ownerID uuid.UUID, name, emoji string) (*domain.Project, error)
	ListProjects(ctx context.Context, ownerID uuid.UUID) ([]*domain.Project, error)
	Get(ctx context.Context, scope domain.Scope) (*domain.Project, error)
	Rename(ctx context.Context, scope domain.Scope, name string) error
	DeleteProject(ctx context.Context, scope domain.Scope) error
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	documents   DocumentService
}

func NewProjectService(db *gorm.DB, log *logger.Logger, projectRepo repos.ProjectRepo, documents DocumentService) ProjectService {
	return &projectService{
		db:          db,
		log:         log.With("service", "ProjectService"),
		projectRepo: projectRepo,
		documents:   documents,
	}
}

func (ps *projectService) CreateProject(ctx context.Context, ownerID uuid.UUID, name, emoji string) (*domain.Project, error) {
	if ownerID == uuid.Nil {
		return nil, domain.ErrValidation
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultProjectName
	}
	if strings.TrimSpace(emoji) == "" {
		emoji = domain.DefaultProjectEmoji
	}
	project := &domain.Project{
		ID:     uuid.New(),
		UserID: ownerID,
		Name:   name,
		Emoji:  emoji,
	}
	if _, err := ps.projectRepo.Create(ctx, nil, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (ps *projectService) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]*domain.Project, error) {
	if ownerID == uuid.Nil {
		return nil, domain.ErrValidation
	}
	return ps.projectRepo.ListByOwner(ctx, nil, ownerID)
}

func (ps *projectService) Get(ctx context.Context, scope domain.Scope) (*domain.Project, error) {
	if !scope.Valid() {
		return nil, domain.ErrValidation
	}
	project, err := ps.projectRepo.GetByIDAndOwner(ctx, nil, scope.ProjectID, scope.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (ps *projectService) Rename(ctx context.Context, scope domain.Scope, name string) error {
	if !scope.Valid() {
		return domain.ErrValidation
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	if err := ps.projectRepo.UpdateName(ctx, nil, scope.ProjectID, scope.UserID, name); err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("rename project: %w", err)
	}
	return nil
}

// DeleteProject removes the project's documents first, then soft-deletes the
// project row. A document failure leaves the project in place so the sweep
// can be retried.
func (ps *projectService) DeleteProject(ctx context.Context, scope domain.Scope) error {
	if !scope.Valid() {
		return domain.ErrValidation
	}
	if _, err := ps.Get(ctx, scope); err != nil {
		return err
	}
	if err := ps.documents.DeleteAllForProject(ctx, scope); err != nil {
		return fmt.Errorf("clear project documents: %w", err)
	}
	if err := ps.projectRepo.SoftDeleteByIDAndOwner(ctx, nil, scope.ProjectID, scope.UserID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
