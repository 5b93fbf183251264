// Package dirtree implements the in-memory directory tree an archive
// create or extract session builds for one run: a flat, index-ordered
// set of nodes whose parent links are indices rather than pointers.
//
// This is the spec.md §9 redesign of original_source's bra_tree_dir.c,
// whose nodes hold raw parent/firstChild/next pointers (a classic
// ownership-cycle shape in C that the teacher's own squashfs.Directory
// avoids the same way: see internal/squashfs/writer.go's Directory,
// which also stores a name, a parent, and an ordered child list,
// generalized here into a Go slice indexed by uint32 per spec.md §3's
// on-disk SUBDIR.parent_index field).
package dirtree

import "golang.org/x/xerrors"

// RootIndex is the reserved index of the tree's root node.
const RootIndex = 0

// ErrNotFound is returned when a parent index does not name an
// existing node.
var ErrNotFound = xerrors.New("dirtree: node not found")

// Node is one directory in the tree. The root node has an empty Name
// and no valid Parent.
type Node struct {
	Index     uint32
	Name      string // single path component, empty for root
	Parent    uint32
	HasParent bool
	Children  []uint32 // child indices, in insertion order
}

// Tree is a flat, index-addressable directory tree. The zero value is
// not usable; use New.
type Tree struct {
	nodes []Node
}

// New returns a tree containing only the root node (index 0, empty
// name).
func New() *Tree {
	return &Tree{nodes: []Node{{Index: RootIndex}}}
}

// Node returns the node at index i.
func (t *Tree) Node(i uint32) (*Node, error) {
	if int(i) >= len(t.nodes) {
		return nil, xerrors.Errorf("index %d: %w", i, ErrNotFound)
	}
	return &t.nodes[i], nil
}

// Nodes returns all nodes in index order, root first. The returned
// slice must not be mutated.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Insert walks from root adding any path components of comps that
// don't already exist as children of the current node, and returns the
// deepest node (existing or newly created). An empty comps returns
// root.
func (t *Tree) Insert(comps []string) *Node {
	cur := uint32(RootIndex)
	for _, name := range comps {
		if name == "" {
			continue
		}
		cur = t.addChild(cur, name)
	}
	return &t.nodes[cur]
}

// InsertAtParent inserts name directly under the node at parentIndex
// (used while reading a SUBDIR entry during extraction, whose parent
// has already been materialized earlier in the archive).
func (t *Tree) InsertAtParent(parentIndex uint32, name string) (*Node, error) {
	if int(parentIndex) >= len(t.nodes) {
		return nil, xerrors.Errorf("parent index %d: %w", parentIndex, ErrNotFound)
	}
	idx := t.addChild(parentIndex, name)
	return &t.nodes[idx], nil
}

// addChild returns the index of name as a child of parent, coalescing
// duplicate siblings and otherwise allocating the next index in
// insertion order.
func (t *Tree) addChild(parent uint32, name string) uint32 {
	for _, c := range t.nodes[parent].Children {
		if t.nodes[c].Name == name {
			return c
		}
	}

	idx := uint32(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Index:     idx,
		Name:      name,
		Parent:    parent,
		HasParent: true,
	})
	t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	return idx
}

// ReconstructPath returns the forward-slash-joined path from root
// (exclusive) to node (inclusive); empty for root.
func (t *Tree) ReconstructPath(n *Node) string {
	if !n.HasParent {
		return ""
	}
	parent, _ := t.Node(n.Parent)
	parentPath := t.ReconstructPath(parent)
	if parentPath == "" {
		return n.Name
	}
	return parentPath + "/" + n.Name
}
