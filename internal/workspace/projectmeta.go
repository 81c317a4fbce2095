package workspace

import (
	"context"
	"strings"
	"sync"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// ProjectOps is the slice of the catalog the metadata controller needs.
type ProjectOps interface {
	Get(ctx context.Context, scope domain.Scope) (*domain.Project, error)
	Rename(ctx context.Context, scope domain.Scope, name string) error
}

// ProjectMetadataController holds the display name and icon for one project
// and commits rename edits. Unlike the transcript's optimistic append, a
// rename is hold-then-commit: local state changes only after the catalog
// confirms, so a failed rename reverts to the pre-edit title on its own.
type ProjectMetadataController struct {
	mu       sync.Mutex
	log      *logger.Logger
	projects ProjectOps
	scope    domain.Scope

	name     string
	emoji    string
	updating bool
}

func NewProjectMetadataController(log *logger.Logger, projects ProjectOps, scope domain.Scope) *ProjectMetadataController {
	return &ProjectMetadataController{
		log:      log.With("controller", "ProjectMetadataController"),
		projects: projects,
		scope:    scope,
		name:     domain.DefaultProjectName,
		emoji:    domain.DefaultProjectEmoji,
	}
}

// Load fetches the project's name and icon. A lookup miss or error keeps
// the placeholder values rather than failing the whole view.
func (c *ProjectMetadataController) Load(ctx context.Context) {
	if !c.scope.Valid() {
		return
	}
	project, err := c.projects.Get(ctx, c.scope)
	if err != nil {
		c.log.Debug("project metadata load failed, keeping placeholders", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if project.Name != "" {
		c.name = project.Name
	}
	if project.Emoji != "" {
		c.emoji = project.Emoji
	}
}

// Rename trims and commits a new title. Empty or unchanged titles are a
// no-op with no update call.
func (c *ProjectMetadataController) Rename(ctx context.Context, newTitle string) error {
	newTitle = strings.TrimSpace(newTitle)

	c.mu.Lock()
	if newTitle == "" || newTitle == c.name {
		c.mu.Unlock()
		return nil
	}
	if !c.scope.Valid() {
		c.mu.Unlock()
		return domain.ErrValidation
	}
	c.updating = true
	c.mu.Unlock()

	err := c.projects.Rename(ctx, c.scope, newTitle)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.updating = false
	if err != nil {
		return err
	}
	c.name = newTitle
	return nil
}

// Snapshot returns name, emoji, and whether a rename is in flight.
func (c *ProjectMetadataController) Snapshot() (string, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name, c.emoji, c.updating
}
