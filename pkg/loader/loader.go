package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// DefaultPageLimit caps how many children one listing shows.
const DefaultPageLimit = 200

// Config configures a Loader.
type Config struct {
	Source DataSource
	// Ancestors and Favorites default to Source when it implements them.
	Ancestors AncestorResolver
	Favorites FavoritesSource

	Notifier           Notifier
	Logger             *slog.Logger
	UserUUID           string // session user; roots the home section
	PageLimit          int
	RefreshConcurrency int
}

// Loader runs fetches for a picker container.
type Loader struct {
	store     *picker.Container
	source    DataSource
	ancestors AncestorResolver
	favorites FavoritesSource
	notifier  Notifier
	logger    *slog.Logger

	userUUID    string
	pageLimit   int
	concurrency int
}

// New creates a loader committing into store.
func New(store *picker.Container, cfg Config) *Loader {
	l := &Loader{
		store:       store,
		source:      cfg.Source,
		ancestors:   cfg.Ancestors,
		favorites:   cfg.Favorites,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		userUUID:    cfg.UserUUID,
		pageLimit:   cfg.PageLimit,
		concurrency: cfg.RefreshConcurrency,
	}
	if l.ancestors == nil {
		l.ancestors, _ = cfg.Source.(AncestorResolver)
	}
	if l.favorites == nil {
		l.favorites, _ = cfg.Source.(FavoritesSource)
	}
	if l.notifier == nil {
		l.notifier = discardNotifier{}
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	if l.pageLimit <= 0 {
		l.pageLimit = DefaultPageLimit
	}
	if l.concurrency <= 0 {
		l.concurrency = 4
	}
	return l
}

// Store returns the container the loader commits into.
func (l *Loader) Store() *picker.Container { return l.store }

// UserUUID returns the session user uuid.
func (l *Loader) UserUUID() string { return l.userUUID }

// load is the one path every fetch takes: claim the node, fetch, commit.
// A node that is already Pending is skipped without error. On failure the
// node reverts to its prior status, the notifier is told and the error is
// returned.
func (l *Loader) load(ctx context.Context, op, pickerID, nodeID string, fetch func(context.Context) ([]picker.Action, error)) error {
	prior, ok := l.store.BeginLoad(pickerID, nodeID)
	if !ok {
		l.logger.Debug("load skipped", "op", op, "picker", pickerID, "node", nodeID)
		return nil
	}
	start := time.Now()
	commit, err := fetch(ctx)
	if err != nil {
		l.store.Dispatch(picker.LoadNodeFailure{PickerID: pickerID, ID: nodeID, Prior: prior})
		ferr := FetchError{Op: op, PickerID: pickerID, NodeID: nodeID, Cause: err}
		l.logger.Warn("load failed", "op", op, "picker", pickerID, "node", nodeID, "error", err)
		l.notifier.Notify(failureMessage(op, nodeID, err), SeverityError)
		return ferr
	}
	l.store.Dispatch(commit...)
	l.logger.Debug("load done", "op", op, "picker", pickerID, "node", nodeID, "took", time.Since(start))
	return nil
}

func failureMessage(op, nodeID string, err error) string {
	if errors.Is(err, context.Canceled) {
		return "Loading cancelled"
	}
	switch op {
	case "files":
		return fmt.Sprintf("Could not load files of %s: %v", nodeID, err)
	case "favorites", "public_favorites":
		return fmt.Sprintf("Could not load favorites: %v", err)
	default:
		return fmt.Sprintf("Could not load contents of %s: %v", nodeID, err)
	}
}

// LoadChildren lists nodeID with q and replaces its children. Listings past
// the page limit are cut and end with a truncation marker.
func (l *Loader) LoadChildren(ctx context.Context, pickerID, nodeID string, q Query, params LoadParams) error {
	return l.listInto(ctx, pickerID, nodeID, nodeID, q, params)
}

func (l *Loader) listInto(ctx context.Context, pickerID, nodeID, listParent string, q Query, params LoadParams) error {
	if q.Limit <= 0 {
		q.Limit = l.pageLimit
	}
	return l.load(ctx, "list", pickerID, nodeID, func(ctx context.Context) ([]picker.Action, error) {
		page, err := l.source.List(ctx, listParent, q)
		if err != nil {
			return nil, err
		}
		return l.commitPage(pickerID, nodeID, page, q.Limit, params), nil
	})
}

func (l *Loader) commitPage(pickerID, nodeID string, page model.Page, limit int, params LoadParams) []picker.Action {
	items := page.Items
	if len(items) > limit {
		items = items[:limit]
	}
	nodes := make([]picker.Node, 0, len(items)+1)
	for _, r := range items {
		if !keep(r, params) {
			continue
		}
		nodes = append(nodes, tree.InitNode(r.ResourceID(), r, ChildStatus(r.Kind(), params)))
	}
	if page.ItemsAvailable > limit {
		marker := model.Truncated{ParentID: nodeID, Shown: len(items), Available: page.ItemsAvailable}
		nodes = append(nodes, tree.InitNode[model.Resource](marker.ResourceID(), marker, tree.Loaded))
	}
	return []picker.Action{
		picker.LoadNodeSuccess{PickerID: pickerID, ID: nodeID, Nodes: nodes},
		picker.ExpandNode{PickerID: pickerID, ID: nodeID},
	}
}

// keep applies the picker's visibility rules to one listed resource.
func keep(r model.Resource, params LoadParams) bool {
	p, isProject := r.(model.Project)
	if !isProject {
		return true
	}
	if p.Kind() == model.KindFilterGroup && !params.IncludeFilterGroups {
		return false
	}
	if params.ShowOnlyWritable && p.IsFrozen() {
		return false
	}
	return true
}

// ProjectQuery builds the listing query for a project-like node the way
// each section needs it.
func (l *Loader) ProjectQuery(pickerID, nodeID string, params LoadParams) (listParent string, q Query) {
	search := l.store.State().Search
	searching := nodeID == picker.SearchRootID
	shared := nodeID == picker.SharedRootID

	q.Kinds = []model.Kind{model.KindProject}
	if params.IncludeCollections && !searching {
		q.Kinds = append(q.Kinds, model.KindCollection)
	}
	if f := search.CollectionFilter(pickerID); f != "" {
		q.CollectionFilter = f
	} else {
		q.ExcludeIntermediate = true
	}
	if searching {
		q.Search = search.ProjectSearch(pickerID)
	}
	q.ExcludeOwned = shared
	q.Limit = l.pageLimit

	listParent = nodeID
	if shared || searching {
		listParent = ""
	}
	return listParent, q
}

// LoadProject loads the children of a project or of a project-listing
// section root (home, shared, search).
func (l *Loader) LoadProject(ctx context.Context, pickerID, nodeID string, params LoadParams) error {
	listParent, q := l.ProjectQuery(pickerID, nodeID, params)
	return l.listInto(ctx, pickerID, nodeID, listParent, q, params)
}

// LoadCollection fetches the file tree of a collection and grafts it under
// the collection node. Directories come before files, each sorted by name.
func (l *Loader) LoadCollection(ctx context.Context, pickerID, nodeID string, includeDirs, includeFiles bool) error {
	n, ok := l.store.State().Trees.Tree(pickerID).Node(nodeID)
	if !ok {
		return nil
	}
	col, isCollection := n.Value.(model.Collection)
	if !isCollection {
		return fmt.Errorf("%w: %s", ErrNotCollection, nodeID)
	}
	return l.load(ctx, "files", pickerID, nodeID, func(ctx context.Context) ([]picker.Action, error) {
		files, err := l.source.ListFiles(ctx, col.UUID)
		if err != nil {
			return nil, err
		}
		kept := files[:0:0]
		for _, f := range files {
			if includeFiles || (includeDirs && f.Type == model.FileTypeDirectory) {
				kept = append(kept, f)
			}
		}
		return []picker.Action{
			picker.AppendSubtree{PickerID: pickerID, ID: nodeID, Subtree: FileTree(kept), Replace: true},
			picker.ExpandNode{PickerID: pickerID, ID: nodeID},
		}, nil
	})
}

func (l *Loader) favoritesQuery(params LoadParams) Query {
	q := Query{Kinds: []model.Kind{model.KindProject}, OnlyOwned: params.ShowOnlyOwned, Limit: l.pageLimit}
	if params.IncludeCollections {
		q.Kinds = append(q.Kinds, model.KindCollection)
	}
	return q
}

// LoadFavorites lists the session user's favorites under the favorites root.
func (l *Loader) LoadFavorites(ctx context.Context, pickerID string, params LoadParams) error {
	if l.favorites == nil {
		return l.unsupported("favorites")
	}
	q := l.favoritesQuery(params)
	return l.load(ctx, "favorites", pickerID, picker.FavoritesRootID, func(ctx context.Context) ([]picker.Action, error) {
		page, err := l.favorites.Favorites(ctx, l.userUUID, q)
		if err != nil {
			return nil, err
		}
		if params.ShowOnlyWritable {
			page.Items = writable(page.Items)
		}
		return l.commitPage(pickerID, picker.FavoritesRootID, page, q.Limit, params), nil
	})
}

// LoadPublicFavorites lists the site-wide favorites under their root.
func (l *Loader) LoadPublicFavorites(ctx context.Context, pickerID string, params LoadParams) error {
	if l.favorites == nil {
		return l.unsupported("public favorites")
	}
	q := l.favoritesQuery(params)
	q.OnlyOwned = false
	return l.load(ctx, "public_favorites", pickerID, picker.PublicFavoritesRootID, func(ctx context.Context) ([]picker.Action, error) {
		page, err := l.favorites.PublicFavorites(ctx, q)
		if err != nil {
			return nil, err
		}
		return l.commitPage(pickerID, picker.PublicFavoritesRootID, page, q.Limit, params), nil
	})
}

func (l *Loader) unsupported(what string) error {
	l.notifier.Notify(fmt.Sprintf("This server does not provide %s", what), SeverityWarning)
	return fmt.Errorf("%s: %w", what, ErrUnsupported)
}

// writable drops projects the user cannot write into.
func writable(items []model.Resource) []model.Resource {
	out := items[:0:0]
	for _, r := range items {
		if p, ok := r.(model.Project); ok && (!p.CanWrite || p.IsFrozen()) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Expand is what a user's expand gesture does: an unloaded node is loaded
// according to its kind, anything else has its expanded flag toggled.
// Pending nodes are left alone.
func (l *Loader) Expand(ctx context.Context, pickerID, nodeID string, params LoadParams) error {
	n, ok := l.store.State().Trees.Tree(pickerID).Node(nodeID)
	if !ok {
		return nil
	}
	switch n.Status {
	case tree.Pending:
		return nil
	case tree.Initial:
		if n.Value != nil && expandable(n.Value.Kind()) {
			return l.reload(ctx, pickerID, n, params)
		}
	}
	l.store.Dispatch(picker.ToggleCollapse{PickerID: pickerID, ID: nodeID})
	return nil
}

// reload picks the fetch matching the node's kind.
func (l *Loader) reload(ctx context.Context, pickerID string, n picker.Node, params LoadParams) error {
	switch {
	case n.ID == picker.FavoritesRootID:
		return l.LoadFavorites(ctx, pickerID, params)
	case n.ID == picker.PublicFavoritesRootID:
		return l.LoadPublicFavorites(ctx, pickerID, params)
	case n.Value.Kind() == model.KindCollection:
		return l.LoadCollection(ctx, pickerID, n.ID, params.IncludeDirectories, params.IncludeFiles)
	default:
		return l.LoadProject(ctx, pickerID, n.ID, params)
	}
}

// Params returns the load parameters recorded for pickerID.
func (l *Loader) Params(pickerID string) LoadParams {
	p, _ := l.store.State().Search.LoadParams(pickerID)
	return p
}
