package loader

import (
	"context"
	"strings"

	"github.com/vanderheijden86/treepick/pkg/picker"
)

// Search records text as the project search of base's search section and
// reloads it. Empty text clears the section.
func (l *Loader) Search(ctx context.Context, base, text string) error {
	pickerID := picker.SectionIDs(base).Search
	text = strings.TrimSpace(text)
	l.store.Dispatch(picker.SetProjectSearch{PickerID: pickerID, Value: text})
	if text == "" {
		l.store.Dispatch(picker.LoadNodeSuccess{PickerID: pickerID, ID: picker.SearchRootID})
		return nil
	}
	return l.LoadProject(ctx, pickerID, picker.SearchRootID, l.Params(pickerID))
}

// FilterCollections records text as the collection filter of pickerID and
// refreshes its open projects.
func (l *Loader) FilterCollections(ctx context.Context, pickerID, text string) error {
	l.store.Dispatch(picker.SetCollectionFilter{PickerID: pickerID, Value: strings.TrimSpace(text)})
	return l.Refresh(ctx, pickerID, l.Params(pickerID))
}
