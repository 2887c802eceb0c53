// Package tree implements the immutable node tree that backs every picker.
//
// A Tree is a value: every operation that changes it returns a new Tree and
// leaves the receiver untouched, so a snapshot handed to a renderer can never
// change underneath it. Operations that turn out to change nothing return
// the receiver itself, which lets callers detect "no change" with Same.
//
// Nodes are keyed by id and linked both ways: ParentID points up, ChildIDs
// lists children in display order. The root sentinel (RootID) always exists.
package tree

import (
	"iter"
	"reflect"
	"slices"
)

// RootID is the id of the sentinel node every tree is created with.
const RootID = ""

// Node is one entry in a Tree.
type Node[V any] struct {
	ID       string
	ParentID string
	ChildIDs []string // Display order
	Value    V
	Status   Status
	Expanded bool
	Selected bool
	Active   bool
}

// Tree maps node ids to nodes. The zero value behaves like New().
type Tree[V any] struct {
	nodes map[string]Node[V]
}

// New returns a tree containing only the root sentinel.
func New[V any]() Tree[V] {
	return Tree[V]{nodes: map[string]Node[V]{RootID: {ID: RootID}}}
}

// InitNode builds a fresh node with all UI flags cleared.
func InitNode[V any](id string, value V, status Status) Node[V] {
	return Node[V]{ID: id, Value: value, Status: status}
}

// Node returns the node with the given id.
func (t Tree[V]) Node(id string) (Node[V], bool) {
	if t.nodes == nil {
		if id == RootID {
			return Node[V]{ID: RootID}, true
		}
		return Node[V]{}, false
	}
	n, ok := t.nodes[id]
	return n, ok
}

// Has reports whether id is present.
func (t Tree[V]) Has(id string) bool {
	_, ok := t.Node(id)
	return ok
}

// Len returns the number of nodes, not counting the root sentinel.
func (t Tree[V]) Len() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return len(t.nodes) - 1
}

// Same reports whether t and o are the same snapshot (not merely equal).
func (t Tree[V]) Same(o Tree[V]) bool {
	if t.nodes == nil || o.nodes == nil {
		return t.nodes == nil && o.nodes == nil
	}
	return reflect.ValueOf(t.nodes).UnsafePointer() == reflect.ValueOf(o.nodes).UnsafePointer()
}

// SetNode inserts or replaces n.
//
// When n already exists and n.ChildIDs is nil, the existing children are kept.
// A non-nil ChildIDs replaces them: listed ids that exist move under n (ids
// missing from the tree, repeats and n's own ancestors are dropped), and
// previous children left out are removed with their subtrees.
// Changing ParentID moves the id from the old parent's ChildIDs to the end of
// the new parent's. A node whose parent is not (yet) in the tree is stored as
// an orphan.
func (t Tree[V]) SetNode(n Node[V]) Tree[V] {
	nodes := t.clone()
	setInto(nodes, n)
	return Tree[V]{nodes: nodes}
}

// SetNodes is SetNode applied to each of ns in order, copying the tree once.
func (t Tree[V]) SetNodes(ns ...Node[V]) Tree[V] {
	if len(ns) == 0 {
		return t
	}
	nodes := t.clone()
	for _, n := range ns {
		setInto(nodes, n)
	}
	return Tree[V]{nodes: nodes}
}

// Children returns the direct children of id in display order.
func (t Tree[V]) Children(id string) []Node[V] {
	parent, ok := t.Node(id)
	if !ok {
		return nil
	}
	out := make([]Node[V], 0, len(parent.ChildIDs))
	for _, cid := range parent.ChildIDs {
		if c, ok := t.nodes[cid]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Ancestors returns the chain of nodes above id, topmost first, excluding
// the root sentinel and id itself.
func (t Tree[V]) Ancestors(id string) []Node[V] {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	var chain []Node[V]
	seen := map[string]bool{id: true}
	for n.ID != RootID {
		parent, ok := t.nodes[n.ParentID]
		if !ok || parent.ID == RootID || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		n = parent
	}
	slices.Reverse(chain)
	return chain
}

// Descendants yields every node reachable from id through ChildIDs,
// depth-first and pre-order, excluding id itself. The sequence is a pure
// function of the snapshot and can be ranged over any number of times.
func (t Tree[V]) Descendants(id string) iter.Seq[Node[V]] {
	return t.DescendantsToDepth(id, -1)
}

// DescendantsToDepth is Descendants limited to depth levels below id.
// A negative depth means unlimited.
func (t Tree[V]) DescendantsToDepth(id string, depth int) iter.Seq[Node[V]] {
	return func(yield func(Node[V]) bool) {
		start, ok := t.Node(id)
		if !ok {
			return
		}
		seen := map[string]bool{id: true}
		var walk func(n Node[V], level int) bool
		walk = func(n Node[V], level int) bool {
			if depth >= 0 && level >= depth {
				return true
			}
			for _, cid := range n.ChildIDs {
				if seen[cid] {
					continue
				}
				c, ok := t.nodes[cid]
				if !ok {
					continue
				}
				seen[cid] = true
				if !yield(c) || !walk(c, level+1) {
					return false
				}
			}
			return true
		}
		walk(start, 0)
	}
}

// All yields every node reachable from the root, pre-order.
func (t Tree[V]) All() iter.Seq[Node[V]] {
	return t.Descendants(RootID)
}

// Map applies fn to every node record. Ids and parent/child links are
// restored after fn runs, so only payload, status and flags can change.
func (t Tree[V]) Map(fn func(Node[V]) Node[V]) Tree[V] {
	src := t.ensure()
	nodes := make(map[string]Node[V], len(src))
	for id, n := range src {
		m := fn(n)
		m.ID, m.ParentID, m.ChildIDs = n.ID, n.ParentID, n.ChildIDs
		nodes[id] = m
	}
	return Tree[V]{nodes: nodes}
}

// MapValues transforms every node's payload, leaving all other fields as is.
func MapValues[V, W any](t Tree[V], fn func(V) W) Tree[W] {
	src := t.ensure()
	nodes := make(map[string]Node[W], len(src))
	for id, n := range src {
		nodes[id] = Node[W]{
			ID:       n.ID,
			ParentID: n.ParentID,
			ChildIDs: n.ChildIDs,
			Value:    fn(n.Value),
			Status:   n.Status,
			Expanded: n.Expanded,
			Selected: n.Selected,
			Active:   n.Active,
		}
	}
	return Tree[W]{nodes: nodes}
}

// Remove deletes id and its whole subtree and unlinks it from its parent.
// Removing the root sentinel clears the tree.
func (t Tree[V]) Remove(id string) Tree[V] {
	if id == RootID {
		return New[V]()
	}
	if !t.Has(id) {
		return t
	}
	nodes := t.clone()
	removeInto(nodes, id)
	return Tree[V]{nodes: nodes}
}

// AppendSubtree grafts sub under parentID: children of sub's root become
// children of parentID, everything below keeps its shape. Nodes already in t
// are replaced but keep their existing children.
func (t Tree[V]) AppendSubtree(parentID string, sub Tree[V]) Tree[V] {
	nodes := t.clone()
	for n := range sub.Descendants(RootID) {
		if n.ParentID == RootID {
			n.ParentID = parentID
		}
		n.ChildIDs = nil
		setInto(nodes, n)
	}
	return Tree[V]{nodes: nodes}
}

func (t Tree[V]) ensure() map[string]Node[V] {
	if t.nodes == nil {
		return New[V]().nodes
	}
	return t.nodes
}

// clone copies the id map. Node values are copied with it; ChildIDs slices
// stay shared and must be replaced, never appended to in place.
func (t Tree[V]) clone() map[string]Node[V] {
	src := t.ensure()
	nodes := make(map[string]Node[V], len(src)+1)
	for id, n := range src {
		nodes[id] = n
	}
	return nodes
}

func setInto[V any](nodes map[string]Node[V], n Node[V]) {
	if n.ID == RootID {
		n.ParentID = RootID
	}
	prev, existed := nodes[n.ID]
	explicit := n.ChildIDs != nil
	if explicit {
		n.ChildIDs = adoptable(nodes, n)
	} else if existed {
		n.ChildIDs = prev.ChildIDs
	}
	if existed && n.ID != RootID && prev.ParentID != n.ParentID {
		detach(nodes, prev.ParentID, n.ID)
	}
	nodes[n.ID] = n
	if n.ID != RootID && n.ParentID != n.ID {
		attach(nodes, n.ParentID, n.ID)
	}
	if !explicit {
		return
	}
	for _, cid := range n.ChildIDs {
		c := nodes[cid]
		if c.ParentID == n.ID {
			continue
		}
		detach(nodes, c.ParentID, cid)
		c.ParentID = n.ID
		nodes[cid] = c
	}
	if !existed {
		return
	}
	for _, cid := range prev.ChildIDs {
		if !slices.Contains(n.ChildIDs, cid) {
			removeInto(nodes, cid)
		}
	}
}

// adoptable filters explicit child ids down to nodes that exist and can hang
// under n without forming a cycle, in the given order and without repeats.
func adoptable[V any](nodes map[string]Node[V], n Node[V]) []string {
	above := map[string]bool{n.ID: true, RootID: true}
	for p := n.ParentID; !above[p]; {
		above[p] = true
		pn, ok := nodes[p]
		if !ok {
			break
		}
		p = pn.ParentID
	}
	out := make([]string, 0, len(n.ChildIDs))
	seen := make(map[string]bool, len(n.ChildIDs))
	for _, id := range n.ChildIDs {
		if above[id] || seen[id] {
			continue
		}
		if _, ok := nodes[id]; !ok {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func attach[V any](nodes map[string]Node[V], parentID, id string) {
	parent, ok := nodes[parentID]
	if !ok || slices.Contains(parent.ChildIDs, id) {
		return
	}
	ids := make([]string, 0, len(parent.ChildIDs)+1)
	ids = append(ids, parent.ChildIDs...)
	parent.ChildIDs = append(ids, id)
	nodes[parentID] = parent
}

func detach[V any](nodes map[string]Node[V], parentID, id string) {
	parent, ok := nodes[parentID]
	if !ok || !slices.Contains(parent.ChildIDs, id) {
		return
	}
	parent.ChildIDs = slices.DeleteFunc(slices.Clone(parent.ChildIDs), func(c string) bool { return c == id })
	nodes[parentID] = parent
}

func removeInto[V any](nodes map[string]Node[V], id string) {
	n, ok := nodes[id]
	if !ok {
		return
	}
	detach(nodes, n.ParentID, id)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, ok := nodes[cur]
		if !ok || cur == RootID {
			continue
		}
		delete(nodes, cur)
		stack = append(stack, c.ChildIDs...)
	}
}
