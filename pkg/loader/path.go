package loader

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// InitProjectsPicker creates the five section pickers of base, each with
// its unloaded section root, and records params for all of them. The home
// section is only created when the session has a user. When selectedUUID
// is set, the path to it is opened.
func (l *Loader) InitProjectsPicker(ctx context.Context, base, selectedUUID string, params LoadParams) error {
	secs := picker.SectionIDs(base)
	var actions []picker.Action
	root := func(pickerID, id, name string) {
		actions = append(actions,
			picker.InitPicker{PickerID: pickerID, Roots: []picker.Node{
				tree.InitNode[model.Resource](id, model.Section{ID: id, Name: name}, tree.Initial),
			}},
		)
	}
	if l.userUUID != "" {
		root(secs.Home, l.userUUID, picker.HomeRootName)
	}
	root(secs.Shared, picker.SharedRootID, picker.SharedRootID)
	root(secs.Favorites, picker.FavoritesRootID, picker.FavoritesRootID)
	root(secs.PublicFavorites, picker.PublicFavoritesRootID, picker.PublicFavoritesRootID)
	root(secs.Search, picker.SearchRootID, picker.SearchRootID)
	for _, id := range secs.All() {
		actions = append(actions, picker.SetLoadParams{PickerID: id, Params: params})
	}
	l.store.Dispatch(actions...)
	l.logger.Info("projects picker ready", "base", base, "user", l.userUUID)

	if selectedUUID == "" {
		return nil
	}
	return l.LoadPathTo(ctx, base, selectedUUID)
}

// LoadPathTo opens the section tree down to targetID and activates it.
//
// The chain comes from the ancestor resolver, keeping only projects and
// collections; a target of any other kind is rejected since no section lists
// it. It lands in the home section when any link is owned by the
// session user and in the shared section otherwise. Every link is marked
// Loaded except the target itself. The section is then refreshed so the
// opened links list their other children too.
func (l *Loader) LoadPathTo(ctx context.Context, base, targetID string) error {
	if l.ancestors == nil {
		return l.unsupported("ancestor lookup")
	}
	secs := picker.SectionIDs(base)

	all, err := l.ancestors.Ancestors(ctx, targetID)
	if err != nil {
		ferr := FetchError{Op: "ancestors", PickerID: base, NodeID: targetID, Cause: err}
		l.logger.Warn("ancestor lookup failed", "target", targetID, "error", err)
		l.notifier.Notify(fmt.Sprintf("Could not locate %s: %v", targetID, err), SeverityError)
		return ferr
	}
	var chain []model.Resource
	for _, r := range all {
		switch r.Kind() {
		case model.KindProject, model.KindFilterGroup, model.KindCollection:
			chain = append(chain, r)
		}
	}
	if len(chain) == 0 || chain[len(chain)-1].ResourceID() != targetID {
		l.notifier.Notify(fmt.Sprintf("%s cannot be placed in any project", targetID), SeverityError)
		return fmt.Errorf("%w: %s", ErrInvalidTarget, targetID)
	}

	pickerID, rootID := secs.Shared, picker.SharedRootID
	if l.userUUID != "" && ownedBy(chain, l.userUUID) {
		pickerID, rootID = secs.Home, l.userUUID
	}
	if !l.store.State().Trees.Tree(pickerID).Has(rootID) {
		return fmt.Errorf("section %s is not initialized: %w", pickerID, ErrInvalidTarget)
	}

	nodes := make([]picker.Node, 0, len(chain))
	expand := []string{rootID}
	parent := tree.RootID
	for _, r := range chain {
		status := tree.Loaded
		if r.ResourceID() == targetID {
			status = tree.Initial
		} else {
			expand = append(expand, r.ResourceID())
		}
		nodes = append(nodes, picker.Node{ID: r.ResourceID(), ParentID: parent, Value: r, Status: status})
		parent = r.ResourceID()
	}

	l.store.Dispatch(
		picker.AppendSubtree{PickerID: pickerID, ID: rootID, Subtree: picker.NewTree().SetNodes(nodes...)},
		picker.ExpandNodes{PickerID: pickerID, IDs: expand},
		picker.ActivateNode{PickerID: pickerID, ID: targetID, RelatedPickers: secs.Others(pickerID)},
		picker.RefreshPicker{PickerID: pickerID},
	)
	return l.Refresh(ctx, pickerID, l.Params(pickerID))
}

func ownedBy(chain []model.Resource, userUUID string) bool {
	for _, r := range chain {
		if r.OwnerID() == userUUID {
			return true
		}
	}
	return false
}
