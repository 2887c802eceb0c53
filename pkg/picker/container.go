package picker

import (
	"log/slog"
	"sync"

	"github.com/vanderheijden86/treepick/pkg/tree"
)

// Container owns the session's picker State and serializes every change.
// Readers get immutable snapshots, so they never need the lock.
type Container struct {
	mu    sync.Mutex
	state State

	// notifyMu keeps subscriber calls in dispatch order. It is taken before
	// mu is released, so a subscriber must not call Dispatch synchronously.
	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int

	logger *slog.Logger
}

// NewContainer returns an empty container. A nil logger discards output.
func NewContainer(logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Container{subs: make(map[int]func(State)), logger: logger}
}

// State returns the current snapshot.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies actions in order as one atomic change and returns the
// resulting state. Subscribers see the state once, after all actions.
func (c *Container) Dispatch(actions ...Action) State {
	c.mu.Lock()
	next := c.state
	for _, a := range actions {
		next = Reduce(next, a)
		c.logger.Debug("picker action", "action", actionName(a), "picker", a.Picker())
	}
	c.state = next
	subs := c.snapshotSubs()
	c.notifyMu.Lock()
	c.mu.Unlock()

	defer c.notifyMu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
	return next
}

// BeginLoad atomically moves a node of pickerID to Pending. ok is false when
// the picker or node is missing or a load is already in flight; callers must
// then skip the fetch.
func (c *Container) BeginLoad(pickerID, id string) (prior tree.Status, ok bool) {
	c.mu.Lock()
	if !c.state.Trees.Has(pickerID) {
		c.mu.Unlock()
		return tree.Initial, false
	}
	var next Tree
	next, prior, ok = c.state.Trees.Tree(pickerID).BeginLoad(id)
	if !ok {
		c.mu.Unlock()
		return prior, false
	}
	c.state.Trees = c.state.Trees.Update(pickerID, func(Tree) Tree { return next })
	state := c.state
	subs := c.snapshotSubs()
	c.notifyMu.Lock()
	c.mu.Unlock()

	defer c.notifyMu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
	return prior, true
}

// Subscribe registers fn to run after every change. The returned function
// removes the subscription.
func (c *Container) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Container) snapshotSubs() []func(State) {
	out := make([]func(State), 0, len(c.subs))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func actionName(a Action) string {
	switch a.(type) {
	case InitPicker:
		return "init"
	case LoadNode:
		return "load"
	case LoadNodeSuccess:
		return "load_success"
	case LoadNodeFailure:
		return "load_failure"
	case AppendSubtree:
		return "append_subtree"
	case ToggleCollapse:
		return "toggle_collapse"
	case ExpandNode, ExpandNodes:
		return "expand"
	case ActivateNode:
		return "activate"
	case DeactivateNode:
		return "deactivate"
	case ToggleSelection:
		return "toggle_selection"
	case SelectNodes:
		return "select"
	case DeselectNodes:
		return "deselect"
	case ResetPicker:
		return "reset"
	case SetProjectSearch:
		return "project_search"
	case SetCollectionFilter:
		return "collection_filter"
	case SetLoadParams:
		return "load_params"
	case RefreshPicker:
		return "refresh"
	default:
		return "unknown"
	}
}
