// Package loader fetches picker children from a data source and commits
// them to the picker store.
//
// Every load goes through the store's BeginLoad first. A node that is
// already Pending is never fetched twice, and results are committed with a
// single action so a picker never shows a half-applied listing.
package loader

import (
	"context"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
)

// LoadParams is re-exported for callers that only import the loader.
type LoadParams = picker.LoadParams

// Query narrows a listing.
type Query struct {
	Kinds               []model.Kind // allowed kinds; empty means any
	Search              string       // full text match on project names
	CollectionFilter    string       // full text match on collections
	ExcludeIntermediate bool         // drop collections typed intermediate or log
	Limit               int          // page size; 0 means the source default
	ExcludeOwned        bool         // drop items owned by the session user
	OnlyOwned           bool         // favorites owned by the user only
}

// Allows reports whether q admits resources of kind k.
func (q Query) Allows(k model.Kind) bool {
	if len(q.Kinds) == 0 {
		return true
	}
	for _, want := range q.Kinds {
		if want == k || (want == model.KindProject && k == model.KindFilterGroup) {
			return true
		}
	}
	return false
}

// DataSource lists resources. Implementations must be safe for concurrent use.
type DataSource interface {
	// List returns the children of parentID. An empty parentID lists across
	// all owners (used by the shared and search sections).
	List(ctx context.Context, parentID string, q Query) (model.Page, error)
	// ListFiles returns the flattened file tree of a collection.
	ListFiles(ctx context.Context, collectionID string) ([]model.CollectionFile, error)
}

// AncestorResolver resolves the ownership chain of a resource, topmost
// first and ending with the resource itself.
type AncestorResolver interface {
	Ancestors(ctx context.Context, targetID string) ([]model.Resource, error)
}

// FavoritesSource lists the user's and the site's favorites.
type FavoritesSource interface {
	Favorites(ctx context.Context, userID string, q Query) (model.Page, error)
	PublicFavorites(ctx context.Context, q Query) (model.Page, error)
}

// Severity grades notifications.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notifier delivers user-facing messages. Notify must not block.
type Notifier interface {
	Notify(message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, severity Severity)

func (f NotifierFunc) Notify(message string, severity Severity) { f(message, severity) }

type discardNotifier struct{}

func (discardNotifier) Notify(string, Severity) {}
