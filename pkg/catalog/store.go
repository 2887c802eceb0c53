package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// Store is a catalog database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu   sync.RWMutex // held for reading by queries, for writing by Import
	user string
	pfx  string
}

// ErrNotFound is returned for unknown uuids.
var ErrNotFound = errors.New("catalog: not found")

// Open opens (creating if needed) the catalog database at path. Use
// ":memory:" for a throwaway catalog.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// one connection keeps :memory: databases shared across queries
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db, path: path, logger: logger}
	if err := s.loadMeta(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// UserUUID is the session user recorded by the last import.
func (s *Store) UserUUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UUIDPrefix is the cluster id recorded by the last import.
func (s *Store) UUIDPrefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pfx
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS resources (
			uuid TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			owner_uuid TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			coll_type TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_resources_owner ON resources(owner_uuid, name);`,
		`CREATE TABLE IF NOT EXISTS files (
			collection_uuid TEXT NOT NULL REFERENCES resources(uuid) ON DELETE CASCADE,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			seq INTEGER NOT NULL,
			PRIMARY KEY (collection_uuid, path, name)
		);`,
		`CREATE TABLE IF NOT EXISTS favorites (
			owner_uuid TEXT NOT NULL,
			head_uuid TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (owner_uuid, head_uuid)
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
	}
	return nil
}

func (s *Store) loadMeta() error {
	rows, err := s.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return fmt.Errorf("read catalog meta: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("read catalog meta: %w", err)
		}
		switch k {
		case "user_uuid":
			s.user = v
		case "uuid_prefix":
			s.pfx = v
		}
	}
	return rows.Err()
}

// PublicFavoritesOwner is the uuid of the project holding public favorites.
func PublicFavoritesOwner(prefix string) string {
	return prefix + "-j7d0g-publicfavorites"
}

// Import replaces the catalog contents with fx in one transaction. The
// fixture is verified first; an invalid fixture leaves the store untouched.
func (s *Store) Import(ctx context.Context, fx Fixture) error {
	if err := Verify(fx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM files`, `DELETE FROM favorites`, `DELETE FROM resources`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}
	}

	insRes, err := tx.PrepareContext(ctx,
		`INSERT INTO resources (uuid, kind, owner_uuid, name, coll_type, body) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer insRes.Close()
	put := func(r model.Resource, collType string) error {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.ResourceID(), err)
		}
		if _, err := insRes.ExecContext(ctx, r.ResourceID(), string(r.Kind()), r.OwnerID(), r.DisplayName(), collType, string(body)); err != nil {
			return fmt.Errorf("insert %s: %w", r.ResourceID(), err)
		}
		return nil
	}

	for _, u := range fx.allUsers() {
		if err := put(u, ""); err != nil {
			return err
		}
	}
	for _, p := range fx.Projects {
		if err := put(p, ""); err != nil {
			return err
		}
	}
	for _, w := range fx.Workflows {
		if err := put(w, ""); err != nil {
			return err
		}
	}

	insFile, err := tx.PrepareContext(ctx,
		`INSERT INTO files (collection_uuid, path, name, type, size, seq) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer insFile.Close()
	for _, c := range fx.Collections {
		files := c.FilesOf()
		col := c.Collection
		if col.FileCount == 0 {
			for _, f := range files {
				if f.Type == model.FileTypeFile {
					col.FileCount++
					col.FileSizeTotal += f.Size
				}
			}
		}
		if err := put(col, col.Type()); err != nil {
			return err
		}
		for i, f := range files {
			if _, err := insFile.ExecContext(ctx, f.CollectionUUID, f.Path, f.Name, string(f.Type), f.Size, i); err != nil {
				return fmt.Errorf("insert file %s: %w", f.ResourceID(), err)
			}
		}
	}

	insFav, err := tx.PrepareContext(ctx, `INSERT INTO favorites (owner_uuid, head_uuid, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer insFav.Close()
	stars := []struct {
		owner string
		heads []string
	}{
		{fx.User.UUID, fx.Favorites},
		{PublicFavoritesOwner(fx.UUIDPrefix), fx.PublicFavorites},
	}
	for _, st := range stars {
		for i, h := range st.heads {
			if _, err := insFav.ExecContext(ctx, st.owner, h, i); err != nil {
				return fmt.Errorf("insert favorite %s: %w", h, err)
			}
		}
	}

	for k, v := range map[string]string{"user_uuid": fx.User.UUID, "uuid_prefix": fx.UUIDPrefix} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("write catalog meta: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.user, s.pfx = fx.User.UUID, fx.UUIDPrefix
	s.logger.Info("catalog imported",
		"projects", len(fx.Projects),
		"collections", len(fx.Collections),
		"workflows", len(fx.Workflows))
	return nil
}

func (fx Fixture) allUsers() []model.User {
	users := make([]model.User, 0, len(fx.Users)+1)
	seen := map[string]bool{}
	for _, u := range append([]model.User{fx.User}, fx.Users...) {
		if u.UUID == "" || seen[u.UUID] {
			continue
		}
		seen[u.UUID] = true
		users = append(users, u)
	}
	return users
}

// decode rebuilds a resource from its stored row.
func decode(kind, body string) (model.Resource, error) {
	var (
		r   model.Resource
		err error
	)
	switch model.Kind(kind) {
	case model.KindProject, model.KindFilterGroup:
		var p model.Project
		err = json.Unmarshal([]byte(body), &p)
		r = p
	case model.KindCollection:
		var c model.Collection
		err = json.Unmarshal([]byte(body), &c)
		r = c
	case model.KindWorkflow:
		var w model.Workflow
		err = json.Unmarshal([]byte(body), &w)
		r = w
	case model.KindUser:
		var u model.User
		err = json.Unmarshal([]byte(body), &u)
		r = u
	default:
		return nil, fmt.Errorf("catalog: unexpected kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s row: %w", kind, err)
	}
	return r, nil
}

// OpenFixture opens the database at dbPath and imports the fixture at
// fixturePath into it.
func OpenFixture(ctx context.Context, dbPath, fixturePath string, logger *slog.Logger) (*Store, error) {
	fx, err := LoadFixture(fixturePath)
	if err != nil {
		return nil, err
	}
	s, err := Open(dbPath, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Import(ctx, fx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
