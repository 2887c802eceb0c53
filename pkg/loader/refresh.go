package loader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// Refresh reloads every expanded, loaded node of pickerID that can have
// children, at most RefreshConcurrency at a time. Children that survive a
// reload keep their flags and subtrees. The first error is returned; the
// rest are still reported through the notifier.
func (l *Loader) Refresh(ctx context.Context, pickerID string, params LoadParams) error {
	t := l.store.State().Trees.Tree(pickerID)
	var targets []picker.Node
	for n := range t.All() {
		if n.Expanded && n.Status == tree.Loaded && n.Value != nil && expandable(n.Value.Kind()) {
			targets = append(targets, n)
		}
	}
	l.logger.Debug("refresh", "picker", pickerID, "nodes", len(targets))

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for _, n := range targets {
		g.Go(func() error {
			return l.reload(ctx, pickerID, n, params)
		})
	}
	return g.Wait()
}

// RefreshAll refreshes every section of base with its recorded parameters.
func (l *Loader) RefreshAll(ctx context.Context, base string) error {
	var g errgroup.Group
	for _, id := range picker.SectionIDs(base).All() {
		g.Go(func() error {
			return l.Refresh(ctx, id, l.Params(id))
		})
	}
	return g.Wait()
}
