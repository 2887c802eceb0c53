package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/model"
)

var (
	_ loader.DataSource       = (*Store)(nil)
	_ loader.AncestorResolver = (*Store)(nil)
	_ loader.FavoritesSource  = (*Store)(nil)
)

// where accumulates SQL conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// kindsIn expands q.Kinds to stored kind values. Projects include filter
// groups, the loader decides whether to keep them.
func kindsIn(w *where, kinds []model.Kind) {
	if len(kinds) == 0 {
		w.add("kind <> ?", string(model.KindUser))
		return
	}
	var ph []string
	for _, k := range kinds {
		vals := []model.Kind{k}
		if k == model.KindProject {
			vals = append(vals, model.KindFilterGroup)
		}
		for _, v := range vals {
			ph = append(ph, "?")
			w.args = append(w.args, string(v))
		}
	}
	w.conds = append(w.conds, "kind IN ("+strings.Join(ph, ", ")+")")
}

func likeTerm(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// textMatch requires every term of text to appear in the name of rows of
// the given kinds. Rows of other kinds pass.
func textMatch(w *where, text string, kinds ...model.Kind) {
	for _, term := range strings.Fields(text) {
		ph := make([]string, len(kinds))
		args := make([]any, 0, len(kinds)+1)
		for i, k := range kinds {
			ph[i] = "?"
			args = append(args, string(k))
		}
		args = append(args, likeTerm(term))
		w.add("(kind NOT IN ("+strings.Join(ph, ", ")+`) OR name LIKE ? ESCAPE '\')`, args...)
	}
}

// List returns the children of parentID. With an empty parentID it lists
// every resource, or with q.ExcludeOwned only the top-level items shared
// by other owners.
func (s *Store) List(ctx context.Context, parentID string, q loader.Query) (model.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := &where{}
	kindsIn(w, q.Kinds)
	switch {
	case parentID != "":
		w.add("owner_uuid = ?", parentID)
	case q.ExcludeOwned:
		w.add("owner_uuid <> ?", s.user)
		w.add(`owner_uuid NOT IN (SELECT uuid FROM resources WHERE kind IN ('project', 'filter_group'))`)
	}
	if q.CollectionFilter != "" {
		textMatch(w, q.CollectionFilter, model.KindCollection)
	} else if q.ExcludeIntermediate {
		w.add("coll_type NOT IN ('intermediate', 'log')")
	}
	if q.Search != "" {
		textMatch(w, q.Search, model.KindProject, model.KindFilterGroup)
	}

	var page model.Page
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resources"+w.String(), w.args...).
		Scan(&page.ItemsAvailable); err != nil {
		return model.Page{}, fmt.Errorf("count %q: %w", parentID, err)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := "SELECT kind, body FROM resources" + w.String() +
		` ORDER BY CASE kind WHEN 'collection' THEN 1 WHEN 'workflow' THEN 2 ELSE 0 END, name COLLATE NOCASE, uuid LIMIT ?`
	items, err := s.resources(ctx, query, append(w.args, limit)...)
	if err != nil {
		return model.Page{}, fmt.Errorf("list %q: %w", parentID, err)
	}
	page.Items = items
	return page, nil
}

func (s *Store) resources(ctx context.Context, query string, args ...any) ([]model.Resource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Resource
	for rows.Next() {
		var kind, body string
		if err := rows.Scan(&kind, &body); err != nil {
			return nil, err
		}
		r, err := decode(kind, body)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one resource by uuid.
func (s *Store) Get(ctx context.Context, uuid string) (model.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, uuid)
}

func (s *Store) get(ctx context.Context, uuid string) (model.Resource, error) {
	var kind, body string
	err := s.db.QueryRowContext(ctx, `SELECT kind, body FROM resources WHERE uuid = ?`, uuid).Scan(&kind, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", uuid, err)
	}
	return decode(kind, body)
}

// ListFiles returns the file tree of a collection in fixture order.
func (s *Store) ListFiles(ctx context.Context, collectionID string) ([]model.CollectionFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if r.Kind() != model.KindCollection {
		return nil, fmt.Errorf("%s is a %s: %w", collectionID, r.Kind(), loader.ErrNotCollection)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, name, type, size FROM files WHERE collection_uuid = ? ORDER BY seq`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("files of %s: %w", collectionID, err)
	}
	defer rows.Close()
	var files []model.CollectionFile
	for rows.Next() {
		f := model.CollectionFile{CollectionUUID: collectionID}
		var typ string
		if err := rows.Scan(&f.Path, &f.Name, &typ, &f.Size); err != nil {
			return nil, fmt.Errorf("files of %s: %w", collectionID, err)
		}
		f.Type = model.FileType(typ)
		files = append(files, f)
	}
	return files, rows.Err()
}

const maxDepth = 64

// Ancestors returns the ownership chain of targetID, topmost first. The
// walk stops at a user or at an owner the catalog does not know.
func (s *Store) Ancestors(ctx context.Context, targetID string) ([]model.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []model.Resource
	seen := map[string]bool{}
	for uuid := targetID; uuid != "" && !seen[uuid]; {
		if len(chain) == maxDepth {
			return nil, fmt.Errorf("ancestors of %s: chain deeper than %d", targetID, maxDepth)
		}
		seen[uuid] = true
		r, err := s.get(ctx, uuid)
		if errors.Is(err, ErrNotFound) && len(chain) > 0 {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ancestors of %s: %w", targetID, err)
		}
		chain = append(chain, r)
		if r.Kind() == model.KindUser {
			break
		}
		uuid = r.OwnerID()
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Favorites lists the resources userID has starred, in starring order.
func (s *Store) Favorites(ctx context.Context, userID string, q loader.Query) (model.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.starred(ctx, userID, q)
}

// PublicFavorites lists the cluster's public favorites.
func (s *Store) PublicFavorites(ctx context.Context, q loader.Query) (model.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pfx == "" {
		return model.Page{}, errors.New("public favorites need the cluster uuid prefix")
	}
	return s.starred(ctx, PublicFavoritesOwner(s.pfx), q)
}

func (s *Store) starred(ctx context.Context, owner string, q loader.Query) (model.Page, error) {
	all, err := s.resources(ctx,
		`SELECT r.kind, r.body FROM favorites f JOIN resources r ON r.uuid = f.head_uuid
		 WHERE f.owner_uuid = ? ORDER BY f.position`, owner)
	if err != nil {
		return model.Page{}, fmt.Errorf("favorites of %s: %w", owner, err)
	}
	var page model.Page
	for _, r := range all {
		if !q.Allows(r.Kind()) {
			continue
		}
		page.ItemsAvailable++
		if q.Limit <= 0 || len(page.Items) < q.Limit {
			page.Items = append(page.Items, r)
		}
	}
	return page, nil
}
