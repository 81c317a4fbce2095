package workspace

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// DocumentOps is the two-phase blob+catalog operation layer the source list
// drives. Implementations keep blob and row writes ordered: blob first on
// upload, blob first on delete.
type DocumentOps interface {
	List(ctx context.Context, scope domain.Scope) ([]*domain.Document, error)
	Upload(ctx context.Context, scope domain.Scope, title string, file io.Reader) (*domain.Document, error)
	Delete(ctx context.Context, scope domain.Scope, doc *domain.Document) error
}

// Confirmer asks the user before a destructive operation. It is an external
// collaborator; the controller only consults it.
type Confirmer interface {
	ConfirmDelete(doc *domain.Document) bool
}

// SourceListController owns the ordered document list for one project view:
// newest-first list, loading flag, error message, and a toggle-only
// selection set used to scope future queries.
type SourceListController struct {
	mu      sync.Mutex
	log     *logger.Logger
	docs    DocumentOps
	confirm Confirmer
	scope   domain.Scope

	list         []*domain.Document
	selected     map[uuid.UUID]bool
	loading      bool
	errMsg       string
	uploaderOpen bool
}

func NewSourceListController(log *logger.Logger, docs DocumentOps, confirm Confirmer, scope domain.Scope) *SourceListController {
	return &SourceListController{
		log:      log.With("controller", "SourceListController"),
		docs:     docs,
		confirm:  confirm,
		scope:    scope,
		selected: make(map[uuid.UUID]bool),
	}
}

// Load replaces the in-memory list with the catalog's newest-first view.
// Without a resolved scope it is a no-op: empty list, no error. On failure
// the previous list is left untouched.
func (c *SourceListController) Load(ctx context.Context) {
	if !c.scope.Valid() {
		return
	}

	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	list, err := c.docs.List(ctx, c.scope)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = err.Error()
		return
	}
	c.list = list
}

// Upload validates locally, then hands the file to the two-phase operation
// layer. On success the list is refreshed from the catalog and the upload
// affordance closes.
func (c *SourceListController) Upload(ctx context.Context, title string, file io.Reader) error {
	if file == nil || title == "" {
		c.setError("Select a PDF to upload.")
		return domain.ErrValidation
	}
	if !c.scope.Valid() {
		c.setError("You must be signed in to upload.")
		return domain.ErrValidation
	}

	if _, err := c.docs.Upload(ctx, c.scope, title, file); err != nil {
		c.setError(err.Error())
		return err
	}

	c.mu.Lock()
	c.errMsg = ""
	c.uploaderOpen = false
	c.mu.Unlock()

	c.Load(ctx)
	return nil
}

// Delete asks the confirmer, then removes blob before row so a failed blob
// deletion never strands a catalog row pointing at a live object. The list
// refreshes only after both removals succeed.
func (c *SourceListController) Delete(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrValidation
	}
	if !c.scope.Valid() {
		c.setError("You must be signed in to delete sources.")
		return domain.ErrValidation
	}
	if c.confirm != nil && !c.confirm.ConfirmDelete(doc) {
		return nil
	}

	if err := c.docs.Delete(ctx, c.scope, doc); err != nil {
		c.setError(err.Error())
		return err
	}

	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()

	c.Load(ctx)
	return nil
}

// ToggleSelection flips a document in or out of the selection set. Pure
// client-side set membership; unknown ids are tolerated.
func (c *SourceListController) ToggleSelection(docID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected[docID] {
		delete(c.selected, docID)
		return
	}
	c.selected[docID] = true
}

func (c *SourceListController) Selected() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uuid.UUID, 0, len(c.selected))
	for id := range c.selected {
		out = append(out, id)
	}
	return out
}

func (c *SourceListController) SetUploaderOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploaderOpen = open
}

// Snapshot returns the list as currently held, plus loading and error state.
func (c *SourceListController) Snapshot() ([]*domain.Document, bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := make([]*domain.Document, len(c.list))
	copy(list, c.list)
	return list, c.loading, c.errMsg
}

func (c *SourceListController) UploaderOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploaderOpen
}

func (c *SourceListController) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = msg
}
