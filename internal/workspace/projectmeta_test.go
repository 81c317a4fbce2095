package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/docuchat/docuchat-backend/internal/domain"
)

type fakeProjectOps struct {
	project *domain.Project
	getErr  error

	renameErr   error
	renameCalls int
	lastRename  string
}

func (f *fakeProjectOps) Get(ctx context.Context, scope domain.Scope) (*domain.Project, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.project, nil
}

func (f *fakeProjectOps) Rename(ctx context.Context, scope domain.Scope, name string) error {
	f.renameCalls++
	f.lastRename = name
	return f.renameErr
}

func TestProjectMetadataStartsWithPlaceholders(t *testing.T) {
	c := NewProjectMetadataController(testLogger(t), &fakeProjectOps{}, validScope())

	name, emoji, updating := c.Snapshot()
	if name != domain.DefaultProjectName || emoji != domain.DefaultProjectEmoji || updating {
		t.Fatalf("initial state: got (%q, %q, %v)", name, emoji, updating)
	}
}

func TestProjectMetadataLoadAppliesCatalogValues(t *testing.T) {
	ops := &fakeProjectOps{project: &domain.Project{Name: "Thesis", Emoji: "🧬"}}
	c := NewProjectMetadataController(testLogger(t), ops, validScope())

	c.Load(context.Background())

	name, emoji, _ := c.Snapshot()
	if name != "Thesis" || emoji != "🧬" {
		t.Fatalf("after load: got (%q, %q)", name, emoji)
	}
}

func TestProjectMetadataLoadErrorKeepsPlaceholders(t *testing.T) {
	ops := &fakeProjectOps{getErr: errors.New("catalog unavailable")}
	c := NewProjectMetadataController(testLogger(t), ops, validScope())

	c.Load(context.Background())

	name, emoji, _ := c.Snapshot()
	if name != domain.DefaultProjectName || emoji != domain.DefaultProjectEmoji {
		t.Fatalf("placeholders must survive a failed load: got (%q, %q)", name, emoji)
	}
}

func TestRenameNoOpCases(t *testing.T) {
	cases := []struct {
		name     string
		newTitle string
	}{
		{"empty", ""},
		{"whitespace only", "  \t"},
		{"unchanged", "Thesis"},
		{"unchanged after trim", "  Thesis  "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ops := &fakeProjectOps{project: &domain.Project{Name: "Thesis"}}
			c := NewProjectMetadataController(testLogger(t), ops, validScope())
			c.Load(context.Background())

			if err := c.Rename(context.Background(), tc.newTitle); err != nil {
				t.Fatalf("Rename: %v", err)
			}
			if ops.renameCalls != 0 {
				t.Fatalf("no update call expected, got %d", ops.renameCalls)
			}
			name, _, _ := c.Snapshot()
			if name != "Thesis" {
				t.Fatalf("name must not change, got %q", name)
			}
		})
	}
}

func TestRenameCommitsOnlyAfterCatalogConfirms(t *testing.T) {
	ops := &fakeProjectOps{project: &domain.Project{Name: "Thesis"}}
	c := NewProjectMetadataController(testLogger(t), ops, validScope())
	c.Load(context.Background())

	if err := c.Rename(context.Background(), "  Dissertation  "); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	if ops.renameCalls != 1 || ops.lastRename != "Dissertation" {
		t.Fatalf("rename call: calls=%d name=%q", ops.renameCalls, ops.lastRename)
	}
	name, _, updating := c.Snapshot()
	if name != "Dissertation" {
		t.Fatalf("name after commit: got %q", name)
	}
	if updating {
		t.Fatalf("updating must clear after the call")
	}
}

func TestRenameFailureRevertsToPreviousName(t *testing.T) {
	ops := &fakeProjectOps{project: &domain.Project{Name: "Thesis"}, renameErr: errors.New("update failed")}
	c := NewProjectMetadataController(testLogger(t), ops, validScope())
	c.Load(context.Background())

	err := c.Rename(context.Background(), "Dissertation")

	if err == nil {
		t.Fatalf("expected error")
	}
	name, _, updating := c.Snapshot()
	if name != "Thesis" {
		t.Fatalf("failed rename must keep the old name, got %q", name)
	}
	if updating {
		t.Fatalf("updating must clear after a failure")
	}
}
