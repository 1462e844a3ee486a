package vectorindex

import (
	"errors"
	"testing"
)

func TestNewSearchFilterRequiresOwner(t *testing.T) {
	_, err := NewSearchFilter(0, nil)
	if !errors.Is(err, ErrMissingOwner) {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
}

func TestSearchFilterExprGlobalScope(t *testing.T) {
	f, err := NewSearchFilter(42, nil)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}

	if got := f.Expr(); got != "owner_id == 42" {
		t.Fatalf("unexpected expr: %q", got)
	}
	if f.FolderID() != nil {
		t.Fatalf("global scope must have no folder filter")
	}
}

func TestSearchFilterExprFolderScope(t *testing.T) {
	folderID := uint(7)
	f, err := NewSearchFilter(42, &folderID)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}

	if got := f.Expr(); got != "owner_id == 42 && folder_id == 7" {
		t.Fatalf("unexpected expr: %q", got)
	}
}

func TestSearchFilterUnfiledScope(t *testing.T) {
	// folder_id为0的chunk属于未归档文档，显式过滤到0是合法范围
	folderID := uint(0)
	f, err := NewSearchFilter(42, &folderID)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}

	if got := f.Expr(); got != "owner_id == 42 && folder_id == 0" {
		t.Fatalf("unexpected expr: %q", got)
	}
}
