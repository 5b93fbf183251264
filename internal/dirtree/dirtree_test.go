package dirtree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestInsertBuildsPath(t *testing.T) {
	tree := New()
	leaf := tree.Insert([]string{"a", "b", "c"})

	if got, want := tree.ReconstructPath(leaf), "a/b/c"; got != want {
		t.Errorf("ReconstructPath = %q, want %q", got, want)
	}
	if leaf.Index == RootIndex {
		t.Error("leaf should not be root")
	}
}

func TestInsertDedupesSharedPrefix(t *testing.T) {
	tree := New()
	tree.Insert([]string{"a", "b"})
	tree.Insert([]string{"a", "c"})

	root, err := tree.Node(RootIndex)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1 (shared \"a\")", len(root.Children))
	}
	a, err := tree.Node(root.Children[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Children) != 2 {
		t.Fatalf("\"a\" has %d children, want 2", len(a.Children))
	}
}

func TestInsertAtParentLinksCorrectly(t *testing.T) {
	tree := New()
	dir := tree.Insert([]string{"top"})

	sub, err := tree.InsertAtParent(dir.Index, "nested")
	if err != nil {
		t.Fatal(err)
	}
	if sub.Parent != dir.Index {
		t.Errorf("sub.Parent = %d, want %d", sub.Parent, dir.Index)
	}
	if got, want := tree.ReconstructPath(sub), "top/nested"; got != want {
		t.Errorf("ReconstructPath = %q, want %q", got, want)
	}
}

func TestInsertAtParentUnknownParent(t *testing.T) {
	tree := New()
	if _, err := tree.InsertAtParent(99, "x"); err == nil {
		t.Fatal("expected error for unknown parent index")
	}
}

func TestNodesStructuralSnapshot(t *testing.T) {
	tree := New()
	tree.Insert([]string{"dir", "file-parent"})

	got := tree.Nodes()
	want := []Node{
		{Index: 0, Children: []uint32{1}},
		{Index: 1, Name: "dir", Parent: 0, HasParent: true, Children: []uint32{2}},
		{Index: 2, Name: "file-parent", Parent: 1, HasParent: true},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
	}
}
