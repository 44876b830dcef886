// Package shadow holds the native-side mirror of a UI hierarchy (the shadow
// tree) and the gateway that serializes structural edits to it.
//
// A Tree is the unsynchronized node set. A Gateway wraps one Tree in a
// single mutual exclusion domain, so that CreateView, SetChildren,
// ManageChildren, RegisterRoot and RemoveRoot issued from different
// goroutines never interleave their effects. The Gateway uses one global
// lock, not per-node locks: callers must not assume that operations on
// disjoint subtrees proceed in parallel.
package shadow

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// RootTypeID is the type identifier given to nodes created by RegisterRoot.
const RootTypeID = "RootView"

// Node is a copy of one registered shadow node.
type Node struct {
	Tag     int
	TypeID  string
	RootTag int
	// Parent is the tag of the node listing this one as a child, or 0.
	Parent   int
	Children []int
	Props    map[string]any
	IsRoot   bool
}

// ManageChildrenOp is the payload of a ManageChildren call. A nil slice is
// an absent argument. Every index refers to the child list as it was before
// the operation began.
type ManageChildrenOp struct {
	MoveFrom     []int
	MoveTo       []int
	AddChildTags []int
	AddAtIndices []int
	RemoveFrom   []int
}

type node struct {
	tag      int
	typeID   string
	rootTag  int
	parent   int
	children []int
	props    map[string]any
}

func (n *node) export(isRoot bool) Node {
	return Node{
		Tag:      n.tag,
		TypeID:   n.typeID,
		RootTag:  n.rootTag,
		Parent:   n.parent,
		Children: slices.Clone(n.children),
		Props:    maps.Clone(n.props),
		IsRoot:   isRoot,
	}
}

// Tree is the unsynchronized shadow node set. It is not safe for concurrent
// use; wrap it in a Gateway when more than one goroutine mutates it.
type Tree struct {
	nodes map[int]*node
	roots map[int]struct{}
	// members tracks every node created under a root tag, attached or not,
	// for bulk teardown.
	members map[int]map[int]struct{}
	// pending maps a listed but not yet created child tag to its parent.
	pending map[int]int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		nodes:   make(map[int]*node),
		roots:   make(map[int]struct{}),
		members: make(map[int]map[int]struct{}),
		pending: make(map[int]int),
	}
}

// CreateView registers a new node with no children. A tag already listed
// as a child of another node takes that node as its parent.
func (t *Tree) CreateView(tag int, typeID string, rootTag int, props map[string]any) error {
	const op = "createView"
	if tag <= 0 {
		return &InvalidArgumentsError{Op: op, Tag: tag, Reason: "tag must be positive"}
	}
	if _, ok := t.nodes[tag]; ok {
		return &DuplicateTagError{Op: op, Tag: tag}
	}
	t.nodes[tag] = &node{
		tag:     tag,
		typeID:  typeID,
		rootTag: rootTag,
		props:   maps.Clone(props),
	}
	if parent, ok := t.pending[tag]; ok {
		t.nodes[tag].parent = parent
		delete(t.pending, tag)
	}
	set := t.members[rootTag]
	if set == nil {
		set = make(map[int]struct{})
		t.members[rootTag] = set
	}
	set[tag] = struct{}{}
	return nil
}

// SetChildren replaces the full child list of tag. Child tags are not
// required to be registered yet. A child listed by another node is moved
// out of that node's list.
func (t *Tree) SetChildren(tag int, childTags []int) error {
	n, ok := t.nodes[tag]
	if !ok {
		return &UnknownNodeError{Op: "setChildren", Tag: tag}
	}
	for _, c := range n.children {
		t.detach(tag, c)
	}
	n.children = slices.Clone(childTags)
	for _, c := range n.children {
		t.attach(tag, c)
	}
	return nil
}

// ManageChildren removes, moves and inserts children of tag as one step.
//
// Indices in RemoveFrom and MoveFrom select children of the pre-operation
// list; those children are taken out first. Moved and added children are
// then inserted at their MoveTo / AddAtIndices destinations in ascending
// destination order.
func (t *Tree) ManageChildren(tag int, op ManageChildrenOp) error {
	const name = "manageChildren"
	n, ok := t.nodes[tag]
	if !ok {
		return &UnknownNodeError{Op: name, Tag: tag}
	}
	if len(op.MoveFrom) != len(op.MoveTo) {
		return &InvalidArgumentsError{Op: name, Tag: tag, Reason: fmt.Sprintf("moveFrom has %d entries, moveTo has %d", len(op.MoveFrom), len(op.MoveTo))}
	}
	if len(op.AddChildTags) != len(op.AddAtIndices) {
		return &InvalidArgumentsError{Op: name, Tag: tag, Reason: fmt.Sprintf("addChildTags has %d entries, addAtIndices has %d", len(op.AddChildTags), len(op.AddAtIndices))}
	}

	count := len(n.children)
	check := func(field string, indices []int, limit int) error {
		for _, i := range indices {
			if i < 0 || i > limit {
				return &IndexOutOfRangeError{Op: name, Tag: tag, Field: field, Index: i, Count: count}
			}
		}
		return nil
	}
	if err := check("removeFrom", op.RemoveFrom, count-1); err != nil {
		return err
	}
	if err := check("moveFrom", op.MoveFrom, count-1); err != nil {
		return err
	}
	if err := check("moveTo", op.MoveTo, count); err != nil {
		return err
	}
	if err := check("addAtIndices", op.AddAtIndices, count); err != nil {
		return err
	}

	taken := make(map[int]struct{}, len(op.RemoveFrom)+len(op.MoveFrom))
	for _, i := range slices.Concat(op.RemoveFrom, op.MoveFrom) {
		if _, dup := taken[i]; dup {
			return &InvalidArgumentsError{Op: name, Tag: tag, Reason: fmt.Sprintf("child index %d is removed or moved more than once", i)}
		}
		taken[i] = struct{}{}
	}

	snapshot := n.children
	type insert struct {
		at  int
		tag int
	}
	inserts := make([]insert, 0, len(op.MoveFrom)+len(op.AddChildTags))
	for i, from := range op.MoveFrom {
		inserts = append(inserts, insert{at: op.MoveTo[i], tag: snapshot[from]})
	}
	for i, c := range op.AddChildTags {
		inserts = append(inserts, insert{at: op.AddAtIndices[i], tag: c})
	}
	slices.SortStableFunc(inserts, func(a, b insert) int { return cmp.Compare(a.at, b.at) })

	next := make([]int, 0, count-len(taken)+len(inserts))
	for i, c := range snapshot {
		if _, ok := taken[i]; !ok {
			next = append(next, c)
		}
	}
	for _, in := range inserts {
		next = slices.Insert(next, min(in.at, len(next)), in.tag)
	}

	for _, i := range op.RemoveFrom {
		t.detach(tag, snapshot[i])
	}
	for _, in := range inserts {
		t.attach(tag, in.tag)
	}
	n.children = next
	return nil
}

// RegisterRoot marks rootTag as a root, creating its node if needed.
// Registering an existing root again is a no-op.
func (t *Tree) RegisterRoot(rootTag int) error {
	const op = "registerRoot"
	if rootTag <= 0 {
		return &InvalidArgumentsError{Op: op, Tag: rootTag, Reason: "tag must be positive"}
	}
	if _, ok := t.roots[rootTag]; ok {
		return nil
	}
	if _, ok := t.nodes[rootTag]; ok {
		return &DuplicateTagError{Op: op, Tag: rootTag}
	}
	t.nodes[rootTag] = &node{tag: rootTag, typeID: RootTypeID, rootTag: rootTag}
	// a root has no parent, so a node that listed the tag early lets it go
	if parent, ok := t.pending[rootTag]; ok {
		if p, ok := t.nodes[parent]; ok {
			p.children = slices.DeleteFunc(p.children, func(c int) bool { return c == rootTag })
		}
		delete(t.pending, rootTag)
	}
	t.roots[rootTag] = struct{}{}
	return nil
}

// RemoveRoot deletes rootTag, every node reachable from it as a descendant,
// and every node created under it. Removing an unknown root is a no-op.
func (t *Tree) RemoveRoot(rootTag int) {
	if _, ok := t.roots[rootTag]; !ok {
		return
	}
	doomed := map[int]struct{}{rootTag: {}}
	queue := []int{rootTag}
	for len(queue) > 0 {
		n, ok := t.nodes[queue[0]]
		queue = queue[1:]
		if !ok {
			continue
		}
		for _, c := range n.children {
			if _, seen := doomed[c]; !seen {
				doomed[c] = struct{}{}
				queue = append(queue, c)
			}
		}
	}
	for tag := range t.members[rootTag] {
		doomed[tag] = struct{}{}
	}
	for child, parent := range t.pending {
		if _, gone := doomed[parent]; gone {
			delete(t.pending, child)
		}
	}
	for tag := range doomed {
		if n, ok := t.nodes[tag]; ok {
			if set := t.members[n.rootTag]; set != nil {
				delete(set, tag)
			}
			// a surviving parent outside this root keeps no dangling reference
			if p, ok := t.nodes[n.parent]; ok && n.parent != 0 {
				if _, gone := doomed[n.parent]; !gone {
					p.children = slices.DeleteFunc(p.children, func(c int) bool { return c == tag })
				}
			}
		}
		delete(t.nodes, tag)
	}
	delete(t.members, rootTag)
	delete(t.roots, rootTag)
}

// attach records parent as the owner of child, taking child out of the list
// of any other node that held it.
func (t *Tree) attach(parent, child int) {
	var prev int
	if c, ok := t.nodes[child]; ok {
		prev, c.parent = c.parent, parent
	} else {
		prev = t.pending[child]
		t.pending[child] = parent
	}
	if prev == 0 || prev == parent {
		return
	}
	if p, ok := t.nodes[prev]; ok {
		p.children = slices.DeleteFunc(p.children, func(c int) bool { return c == child })
	}
}

func (t *Tree) detach(parent, child int) {
	if c, ok := t.nodes[child]; ok {
		if c.parent == parent {
			c.parent = 0
		}
		return
	}
	if t.pending[child] == parent {
		delete(t.pending, child)
	}
}

// Node returns a copy of the node registered under tag.
func (t *Tree) Node(tag int) (Node, bool) {
	n, ok := t.nodes[tag]
	if !ok {
		return Node{}, false
	}
	_, isRoot := t.roots[tag]
	return n.export(isRoot), true
}

// Len returns the number of registered nodes, roots included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Tags returns every registered tag in ascending order.
func (t *Tree) Tags() []int {
	return slices.Sorted(maps.Keys(t.nodes))
}

// Roots returns every registered root tag in ascending order.
func (t *Tree) Roots() []int {
	return slices.Sorted(maps.Keys(t.roots))
}

// Snapshot returns copies of every registered node keyed by tag.
func (t *Tree) Snapshot() map[int]Node {
	out := make(map[int]Node, len(t.nodes))
	for tag, n := range t.nodes {
		_, isRoot := t.roots[tag]
		out[tag] = n.export(isRoot)
	}
	return out
}

// Dump renders the subtree under rootTag, one node per line, children
// indented by two spaces. Child tags with no registered node are shown as
// placeholders.
func (t *Tree) Dump(rootTag int) string {
	var b strings.Builder
	visited := make(map[int]struct{})
	var walk func(tag, depth int)
	walk = func(tag, depth int) {
		indent := strings.Repeat("  ", depth)
		n, ok := t.nodes[tag]
		if !ok {
			fmt.Fprintf(&b, "%s<pending %d>\n", indent, tag)
			return
		}
		if _, seen := visited[tag]; seen {
			fmt.Fprintf(&b, "%s<cycle %d>\n", indent, tag)
			return
		}
		visited[tag] = struct{}{}
		fmt.Fprintf(&b, "%s%s #%d\n", indent, n.typeID, tag)
		for _, c := range n.children {
			walk(c, depth+1)
		}
	}
	walk(rootTag, 0)
	return b.String()
}
