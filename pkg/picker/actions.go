package picker

import (
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// Action is a closed set of state changes understood by Reduce.
type Action interface {
	Picker() string
	isAction()
}

// InitPicker creates the picker entry (if needed) and sets its top-level
// nodes. It is the only action that creates entries.
type InitPicker struct {
	PickerID string
	Roots    []Node
}

// LoadNode marks a node as having a fetch in flight.
type LoadNode struct {
	PickerID string
	ID       string
}

// LoadNodeSuccess merges freshly fetched children under ID and marks it loaded.
type LoadNodeSuccess struct {
	PickerID string
	ID       string
	Nodes    []Node
}

// LoadNodeFailure reverts a pending node to the status it had before the fetch.
type LoadNodeFailure struct {
	PickerID string
	ID       string
	Prior    tree.Status
}

// AppendSubtree grafts a prepared subtree under ID and marks ID loaded.
// With Replace set, nodes below ID that Subtree does not list are removed.
type AppendSubtree struct {
	PickerID string
	ID       string
	Subtree  Tree
	Replace  bool
}

// ToggleCollapse flips the expanded flag of one node.
type ToggleCollapse struct {
	PickerID string
	ID       string
}

// ExpandNode expands one node.
type ExpandNode struct {
	PickerID string
	ID       string
}

// ExpandNodes expands several nodes at once.
type ExpandNodes struct {
	PickerID string
	IDs      []string
}

// ActivateNode makes ID the single active node of the picker and clears the
// active node of every picker in RelatedPickers.
type ActivateNode struct {
	PickerID       string
	ID             string
	RelatedPickers []string
}

// DeactivateNode clears the active node of the picker.
type DeactivateNode struct {
	PickerID string
}

// ToggleSelection flips the selected flag of one node.
type ToggleSelection struct {
	PickerID string
	ID       string
}

// SelectNodes selects one or more nodes. Already selected nodes are left as is.
type SelectNodes struct {
	PickerID string
	IDs      []string
}

// DeselectNodes deselects one or more nodes.
type DeselectNodes struct {
	PickerID string
	IDs      []string
}

// ResetPicker drops the picker's tree entirely.
type ResetPicker struct {
	PickerID string
}

// SetProjectSearch records the project search text of a picker.
type SetProjectSearch struct {
	PickerID string
	Value    string
}

// SetCollectionFilter records the collection filter text of a picker.
type SetCollectionFilter struct {
	PickerID string
	Value    string
}

// SetLoadParams records how a picker wants its nodes loaded.
type SetLoadParams struct {
	PickerID string
	Params   LoadParams
}

// RefreshPicker asks observers to reload the picker's expanded nodes.
type RefreshPicker struct {
	PickerID string
}

func (a InitPicker) Picker() string          { return a.PickerID }
func (a LoadNode) Picker() string            { return a.PickerID }
func (a LoadNodeSuccess) Picker() string     { return a.PickerID }
func (a LoadNodeFailure) Picker() string     { return a.PickerID }
func (a AppendSubtree) Picker() string       { return a.PickerID }
func (a ToggleCollapse) Picker() string      { return a.PickerID }
func (a ExpandNode) Picker() string          { return a.PickerID }
func (a ExpandNodes) Picker() string         { return a.PickerID }
func (a ActivateNode) Picker() string        { return a.PickerID }
func (a DeactivateNode) Picker() string      { return a.PickerID }
func (a ToggleSelection) Picker() string     { return a.PickerID }
func (a SelectNodes) Picker() string         { return a.PickerID }
func (a DeselectNodes) Picker() string       { return a.PickerID }
func (a ResetPicker) Picker() string         { return a.PickerID }
func (a SetProjectSearch) Picker() string    { return a.PickerID }
func (a SetCollectionFilter) Picker() string { return a.PickerID }
func (a SetLoadParams) Picker() string       { return a.PickerID }
func (a RefreshPicker) Picker() string       { return a.PickerID }

func (InitPicker) isAction()          {}
func (LoadNode) isAction()            {}
func (LoadNodeSuccess) isAction()     {}
func (LoadNodeFailure) isAction()     {}
func (AppendSubtree) isAction()       {}
func (ToggleCollapse) isAction()      {}
func (ExpandNode) isAction()          {}
func (ExpandNodes) isAction()         {}
func (ActivateNode) isAction()        {}
func (DeactivateNode) isAction()      {}
func (ToggleSelection) isAction()     {}
func (SelectNodes) isAction()         {}
func (DeselectNodes) isAction()       {}
func (ResetPicker) isAction()         {}
func (SetProjectSearch) isAction()    {}
func (SetCollectionFilter) isAction() {}
func (SetLoadParams) isAction()       {}
func (RefreshPicker) isAction()       {}
