package workspace

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/docuchat/docuchat-backend/internal/domain"
)

type fakeDocumentOps struct {
	listResult []*domain.Document
	listErr    error
	listCalls  int

	uploadErr   error
	uploadCalls int

	deleteErr   error
	deleteCalls int
	lastDeleted *domain.Document
}

func (f *fakeDocumentOps) List(ctx context.Context, scope domain.Scope) ([]*domain.Document, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func (f *fakeDocumentOps) Upload(ctx context.Context, scope domain.Scope, title string, file io.Reader) (*domain.Document, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &domain.Document{ID: uuid.New(), Title: title}, nil
}

func (f *fakeDocumentOps) Delete(ctx context.Context, scope domain.Scope, doc *domain.Document) error {
	f.deleteCalls++
	f.lastDeleted = doc
	return f.deleteErr
}

type fakeConfirmer struct {
	answer bool
	calls  int
}

func (f *fakeConfirmer) ConfirmDelete(doc *domain.Document) bool {
	f.calls++
	return f.answer
}

func validScope() domain.Scope {
	return domain.Scope{UserID: uuid.New(), ProjectID: uuid.New()}
}

func TestLoadWithoutIdentityIsNoOp(t *testing.T) {
	ops := &fakeDocumentOps{}
	c := NewSourceListController(testLogger(t), ops, nil, domain.Scope{ProjectID: uuid.New()})

	c.Load(context.Background())

	if ops.listCalls != 0 {
		t.Fatalf("list call count: want=0 got=%d", ops.listCalls)
	}
	list, loading, errMsg := c.Snapshot()
	if len(list) != 0 || loading || errMsg != "" {
		t.Fatalf("state should be untouched: list=%d loading=%v err=%q", len(list), loading, errMsg)
	}
}

func TestLoadKeepsCatalogOrder(t *testing.T) {
	newer := &domain.Document{ID: uuid.New(), Title: "b.pdf", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	older := &domain.Document{ID: uuid.New(), Title: "a.pdf", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	ops := &fakeDocumentOps{listResult: []*domain.Document{newer, older}}
	c := NewSourceListController(testLogger(t), ops, nil, validScope())

	c.Load(context.Background())

	list, loading, errMsg := c.Snapshot()
	if loading || errMsg != "" {
		t.Fatalf("unexpected state: loading=%v err=%q", loading, errMsg)
	}
	if len(list) != 2 || !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatalf("expected newest-first order, got %v", list)
	}
}

func TestLoadFailureLeavesPreviousList(t *testing.T) {
	first := &domain.Document{ID: uuid.New(), Title: "keep.pdf"}
	ops := &fakeDocumentOps{listResult: []*domain.Document{first}}
	c := NewSourceListController(testLogger(t), ops, nil, validScope())
	c.Load(context.Background())

	ops.listErr = errors.New("catalog unavailable")
	c.Load(context.Background())

	list, loading, errMsg := c.Snapshot()
	if loading {
		t.Fatalf("loading should clear after failure")
	}
	if errMsg != "catalog unavailable" {
		t.Fatalf("error message: want=%q got=%q", "catalog unavailable", errMsg)
	}
	if len(list) != 1 || list[0].ID != first.ID {
		t.Fatalf("previous list must survive a failed reload, got %v", list)
	}
}

func TestUploadRejectsMissingFileWithoutNetworkCall(t *testing.T) {
	ops := &fakeDocumentOps{}
	c := NewSourceListController(testLogger(t), ops, nil, validScope())

	err := c.Upload(context.Background(), "doc.pdf", nil)

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if ops.uploadCalls != 0 || ops.listCalls != 0 {
		t.Fatalf("no network calls expected: upload=%d list=%d", ops.uploadCalls, ops.listCalls)
	}
	_, _, errMsg := c.Snapshot()
	if errMsg == "" {
		t.Fatalf("expected a user-visible validation message")
	}
}

func TestUploadRejectsMissingScopeWithoutNetworkCall(t *testing.T) {
	ops := &fakeDocumentOps{}
	c := NewSourceListController(testLogger(t), ops, nil, domain.Scope{})

	err := c.Upload(context.Background(), "doc.pdf", strings.NewReader("%PDF"))

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if ops.uploadCalls != 0 {
		t.Fatalf("upload call count: want=0 got=%d", ops.uploadCalls)
	}
}

func TestUploadSuccessRefreshesAndClosesUploader(t *testing.T) {
	ops := &fakeDocumentOps{}
	c := NewSourceListController(testLogger(t), ops, nil, validScope())
	c.SetUploaderOpen(true)

	if err := c.Upload(context.Background(), "doc.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if ops.uploadCalls != 1 {
		t.Fatalf("upload call count: want=1 got=%d", ops.uploadCalls)
	}
	if ops.listCalls != 1 {
		t.Fatalf("upload success must refresh the list, list calls=%d", ops.listCalls)
	}
	if c.UploaderOpen() {
		t.Fatalf("uploader should close after a successful upload")
	}
}

func TestUploadFailureSurfacesErrorWithoutRefresh(t *testing.T) {
	ops := &fakeDocumentOps{uploadErr: errors.New("blob write failed")}
	c := NewSourceListController(testLogger(t), ops, nil, validScope())

	err := c.Upload(context.Background(), "doc.pdf", strings.NewReader("%PDF"))

	if err == nil {
		t.Fatalf("expected error")
	}
	if ops.listCalls != 0 {
		t.Fatalf("failed upload must not refresh, list calls=%d", ops.listCalls)
	}
	_, _, errMsg := c.Snapshot()
	if errMsg != "blob write failed" {
		t.Fatalf("error message: want=%q got=%q", "blob write failed", errMsg)
	}
}

func TestDeleteDeclinedByConfirmerDoesNothing(t *testing.T) {
	ops := &fakeDocumentOps{}
	confirm := &fakeConfirmer{answer: false}
	c := NewSourceListController(testLogger(t), ops, confirm, validScope())

	if err := c.Delete(context.Background(), &domain.Document{ID: uuid.New()}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if confirm.calls != 1 {
		t.Fatalf("confirmer should be consulted once, got %d", confirm.calls)
	}
	if ops.deleteCalls != 0 {
		t.Fatalf("declined delete must not touch the network, got %d calls", ops.deleteCalls)
	}
}

func TestDeleteFailureKeepsListAndSurfacesError(t *testing.T) {
	doc := &domain.Document{ID: uuid.New(), Title: "doc.pdf"}
	ops := &fakeDocumentOps{listResult: []*domain.Document{doc}, deleteErr: errors.New("blob removal failed")}
	confirm := &fakeConfirmer{answer: true}
	c := NewSourceListController(testLogger(t), ops, confirm, validScope())
	c.Load(context.Background())
	ops.listCalls = 0

	err := c.Delete(context.Background(), doc)

	if err == nil {
		t.Fatalf("expected error")
	}
	if ops.listCalls != 0 {
		t.Fatalf("failed delete must not refresh, list calls=%d", ops.listCalls)
	}
	list, _, errMsg := c.Snapshot()
	if len(list) != 1 {
		t.Fatalf("list must be untouched after failed delete, got %d entries", len(list))
	}
	if errMsg != "blob removal failed" {
		t.Fatalf("error message: got=%q", errMsg)
	}
}

func TestDeleteSuccessRefreshes(t *testing.T) {
	doc := &domain.Document{ID: uuid.New()}
	ops := &fakeDocumentOps{}
	confirm := &fakeConfirmer{answer: true}
	c := NewSourceListController(testLogger(t), ops, confirm, validScope())

	if err := c.Delete(context.Background(), doc); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ops.deleteCalls != 1 || ops.lastDeleted != doc {
		t.Fatalf("delete not forwarded: calls=%d", ops.deleteCalls)
	}
	if ops.listCalls != 1 {
		t.Fatalf("successful delete must refresh, list calls=%d", ops.listCalls)
	}
}

func TestToggleSelectionIsPureSetMembership(t *testing.T) {
	c := NewSourceListController(testLogger(t), &fakeDocumentOps{}, nil, validScope())
	id := uuid.New()

	c.ToggleSelection(id)
	if got := c.Selected(); len(got) != 1 || got[0] != id {
		t.Fatalf("after first toggle: %v", got)
	}
	c.ToggleSelection(id)
	if got := c.Selected(); len(got) != 0 {
		t.Fatalf("after second toggle: %v", got)
	}
}
