package tree

import "fmt"

// Status is the load state of a node's children.
type Status int

const (
	// Initial means the node is known but its children were never fetched.
	Initial Status = iota
	// Pending means a fetch for the node's children is in flight.
	Pending
	// Loaded means the children are merged, or the node has none to fetch.
	Loaded
)

func (s Status) String() string {
	switch s {
	case Initial:
		return "INITIAL"
	case Pending:
		return "PENDING"
	case Loaded:
		return "LOADED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "INITIAL":
		*s = Initial
	case "PENDING":
		*s = Pending
	case "LOADED":
		*s = Loaded
	default:
		return fmt.Errorf("unknown node status %q", b)
	}
	return nil
}

// update applies fn to a copy of node id. It returns t itself when id is
// absent or fn reports no change.
func (t Tree[V]) update(id string, fn func(n *Node[V]) bool) Tree[V] {
	n, ok := t.Node(id)
	if !ok {
		return t
	}
	if !fn(&n) {
		return t
	}
	nodes := t.clone()
	nodes[id] = n
	return Tree[V]{nodes: nodes}
}

// updateAll applies fn to every node, copying the map only if something
// changed.
func (t Tree[V]) updateAll(fn func(n *Node[V]) bool) Tree[V] {
	var nodes map[string]Node[V]
	for id, n := range t.nodes {
		if !fn(&n) {
			continue
		}
		if nodes == nil {
			nodes = t.clone()
		}
		nodes[id] = n
	}
	if nodes == nil {
		return t
	}
	return Tree[V]{nodes: nodes}
}

// SetStatus forces the status of id. It is the explicit reset hook; the
// load transitions below never move a node backwards on their own.
func (t Tree[V]) SetStatus(id string, s Status) Tree[V] {
	return t.update(id, func(n *Node[V]) bool {
		if n.Status == s {
			return false
		}
		n.Status = s
		return true
	})
}

// BeginLoad moves id to Pending and returns the status it had before.
// ok is false, and the tree unchanged, when id is missing or a load for it is
// already in flight.
func (t Tree[V]) BeginLoad(id string) (next Tree[V], prior Status, ok bool) {
	n, found := t.Node(id)
	if !found || n.Status == Pending {
		return t, n.Status, false
	}
	return t.SetStatus(id, Pending), n.Status, true
}

// FailLoad reverts a Pending node to prior. Nodes that are not Pending are
// left alone.
func (t Tree[V]) FailLoad(id string, prior Status) Tree[V] {
	return t.update(id, func(n *Node[V]) bool {
		if n.Status != Pending || prior == Pending {
			return false
		}
		n.Status = prior
		return true
	})
}

// CompleteLoad marks id Loaded and merges children as its new child list.
//
// Children already in the tree keep their status, flags and own children;
// only the value is replaced. Previous children that are not listed any more
// are removed together with their subtrees. New children are appended in the
// given order. If id is not in the tree the result is dropped.
func (t Tree[V]) CompleteLoad(id string, children []Node[V]) Tree[V] {
	parent, ok := t.Node(id)
	if !ok {
		return t
	}
	nodes := t.clone()

	listed := make(map[string]bool, len(children))
	ids := make([]string, 0, len(children))
	for _, c := range children {
		if c.ID == RootID || c.ID == id || listed[c.ID] {
			continue
		}
		listed[c.ID] = true
		ids = append(ids, c.ID)
	}

	for _, cid := range parent.ChildIDs {
		if !listed[cid] {
			removeInto(nodes, cid)
		}
	}

	for _, c := range children {
		if !listed[c.ID] {
			continue
		}
		delete(listed, c.ID)
		if prev, exists := nodes[c.ID]; exists {
			if prev.ParentID != id {
				detach(nodes, prev.ParentID, c.ID)
			}
			prev.Value = c.Value
			c = prev
		} else {
			c.ChildIDs = nil
		}
		c.ParentID = id
		nodes[c.ID] = c
	}

	parent = nodes[id]
	parent.ChildIDs = ids
	parent.Status = Loaded
	nodes[id] = parent
	return Tree[V]{nodes: nodes}
}

// ToggleCollapse flips the expanded flag of id.
func (t Tree[V]) ToggleCollapse(id string) Tree[V] {
	return t.update(id, func(n *Node[V]) bool {
		n.Expanded = !n.Expanded
		return true
	})
}

// Expand sets the expanded flag on every listed id.
func (t Tree[V]) Expand(ids ...string) Tree[V] {
	return t.setFlag(ids, func(n *Node[V]) *bool { return &n.Expanded }, true)
}

// Collapse clears the expanded flag on every listed id.
func (t Tree[V]) Collapse(ids ...string) Tree[V] {
	return t.setFlag(ids, func(n *Node[V]) *bool { return &n.Expanded }, false)
}

// Select marks every listed id selected. Already selected ids are a no-op.
func (t Tree[V]) Select(ids ...string) Tree[V] {
	return t.setFlag(ids, func(n *Node[V]) *bool { return &n.Selected }, true)
}

// Deselect clears the selected flag on every listed id.
func (t Tree[V]) Deselect(ids ...string) Tree[V] {
	return t.setFlag(ids, func(n *Node[V]) *bool { return &n.Selected }, false)
}

// ToggleSelection flips the selected flag of id.
func (t Tree[V]) ToggleSelection(id string) Tree[V] {
	return t.update(id, func(n *Node[V]) bool {
		n.Selected = !n.Selected
		return true
	})
}

// Activate makes id the only active node. Unknown ids leave the tree as is.
func (t Tree[V]) Activate(id string) Tree[V] {
	if !t.Has(id) {
		return t
	}
	return t.updateAll(func(n *Node[V]) bool {
		want := n.ID == id
		if n.Active == want {
			return false
		}
		n.Active = want
		return true
	})
}

// DeactivateAll clears the active flag everywhere.
func (t Tree[V]) DeactivateAll() Tree[V] {
	return t.updateAll(func(n *Node[V]) bool {
		if !n.Active {
			return false
		}
		n.Active = false
		return true
	})
}

// ActiveNode returns the active node, if any.
func (t Tree[V]) ActiveNode() (Node[V], bool) {
	for n := range t.All() {
		if n.Active {
			return n, true
		}
	}
	return Node[V]{}, false
}

func (t Tree[V]) setFlag(ids []string, field func(n *Node[V]) *bool, value bool) Tree[V] {
	var nodes map[string]Node[V]
	for _, id := range ids {
		n, ok := t.Node(id)
		if !ok || *field(&n) == value {
			continue
		}
		if nodes == nil {
			nodes = t.clone()
		}
		*field(&n) = value
		nodes[id] = n
	}
	if nodes == nil {
		return t
	}
	return Tree[V]{nodes: nodes}
}
