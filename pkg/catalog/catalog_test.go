package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

const (
	ada     = "zzzzz-tpzed-000000000000001"
	bob     = "zzzzz-tpzed-000000000000002"
	genomes = "zzzzz-j7d0g-000000000000001"
	rna     = "zzzzz-j7d0g-000000000000002"
	sharedP = "zzzzz-j7d0g-000000000000003"
	filterG = "zzzzz-j7d0g-000000000000004"
	reads   = "zzzzz-4zz18-000000000000001"
	scratch = "zzzzz-4zz18-000000000000002"
	wf      = "zzzzz-7fd4e-000000000000001"
)

const fixtureYAML = `
uuid_prefix: zzzzz
user:
  uuid: zzzzz-tpzed-000000000000001
  full_name: Ada Lovelace
users:
  - uuid: zzzzz-tpzed-000000000000002
    username: bob
projects:
  - uuid: zzzzz-j7d0g-000000000000001
    name: Genomes
    owner_uuid: zzzzz-tpzed-000000000000001
    can_write: true
  - uuid: zzzzz-j7d0g-000000000000002
    name: RNA seq
    owner_uuid: zzzzz-j7d0g-000000000000001
    can_write: true
  - uuid: zzzzz-j7d0g-000000000000003
    name: Bob's lab
    owner_uuid: zzzzz-tpzed-000000000000002
  - uuid: zzzzz-j7d0g-000000000000004
    name: recent
    group_class: filter
    owner_uuid: zzzzz-tpzed-000000000000001
collections:
  - uuid: zzzzz-4zz18-000000000000001
    name: reads
    owner_uuid: zzzzz-j7d0g-000000000000001
    files:
      - path: lane1/a.fq
        size: 10
      - path: lane1/b.fq
        size: 5
      - path: README
        size: 1
      - path: empty/
  - uuid: zzzzz-4zz18-000000000000002
    name: scratch
    owner_uuid: zzzzz-j7d0g-000000000000001
    properties:
      type: intermediate
workflows:
  - uuid: zzzzz-7fd4e-000000000000001
    name: align
    owner_uuid: zzzzz-j7d0g-000000000000001
favorites:
  - zzzzz-4zz18-000000000000001
  - zzzzz-j7d0g-000000000000002
public_favorites:
  - zzzzz-j7d0g-000000000000003
`

func openCatalog(t *testing.T) *Store {
	t.Helper()
	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Import(context.Background(), fx))
	return s
}

func ids(rs []model.Resource) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ResourceID())
	}
	return out
}

func TestListProjectContents(t *testing.T) {
	s := openCatalog(t)
	ctx := context.Background()

	page, err := s.List(ctx, genomes, loader.Query{})
	require.NoError(t, err)
	require.Equal(t, []string{rna, reads, scratch, wf}, ids(page.Items), "groups first, then collections, then workflows")
	require.Equal(t, 4, page.ItemsAvailable)

	page, err = s.List(ctx, genomes, loader.Query{
		Kinds:               []model.Kind{model.KindProject, model.KindCollection},
		ExcludeIntermediate: true,
	})
	require.NoError(t, err)
	require.Equal(t, []string{rna, reads}, ids(page.Items))

	page, err = s.List(ctx, genomes, loader.Query{Kinds: []model.Kind{model.KindCollection}, CollectionFilter: "scr"})
	require.NoError(t, err)
	require.Equal(t, []string{scratch}, ids(page.Items), "a collection filter replaces the intermediate rule")

	page, err = s.List(ctx, genomes, loader.Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, 4, page.ItemsAvailable)
}

func TestListHomeIncludesFilterGroups(t *testing.T) {
	s := openCatalog(t)
	page, err := s.List(context.Background(), ada, loader.Query{Kinds: []model.Kind{model.KindProject}})
	require.NoError(t, err)
	require.Equal(t, []string{genomes, filterG}, ids(page.Items))
	require.Equal(t, model.KindFilterGroup, page.Items[1].Kind())
}

func TestListSharedAndSearch(t *testing.T) {
	s := openCatalog(t)
	ctx := context.Background()

	page, err := s.List(ctx, "", loader.Query{Kinds: []model.Kind{model.KindProject}, ExcludeOwned: true})
	require.NoError(t, err)
	require.Equal(t, []string{sharedP}, ids(page.Items))

	page, err = s.List(ctx, "", loader.Query{Kinds: []model.Kind{model.KindProject}, Search: "seq"})
	require.NoError(t, err)
	require.Equal(t, []string{rna}, ids(page.Items))

	page, err = s.List(ctx, "", loader.Query{Kinds: []model.Kind{model.KindProject}, Search: "100%"})
	require.NoError(t, err)
	require.Empty(t, page.Items, "LIKE wildcards in search text are literal")
}

func TestListFiles(t *testing.T) {
	s := openCatalog(t)
	ctx := context.Background()

	files, err := s.ListFiles(ctx, reads)
	require.NoError(t, err)
	var got []string
	for _, f := range files {
		got = append(got, f.ResourceID())
	}
	require.Equal(t, []string{
		reads + "/lane1",
		reads + "/lane1/a.fq",
		reads + "/lane1/b.fq",
		reads + "/README",
		reads + "/empty",
	}, got)
	require.Equal(t, model.FileTypeDirectory, files[4].Type)

	r, err := s.Get(ctx, reads)
	require.NoError(t, err)
	require.Equal(t, 3, r.(model.Collection).FileCount)
	require.EqualValues(t, 16, r.(model.Collection).FileSizeTotal)

	_, err = s.ListFiles(ctx, genomes)
	require.ErrorIs(t, err, loader.ErrNotCollection)
	_, err = s.ListFiles(ctx, "zzzzz-4zz18-999999999999999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAncestors(t *testing.T) {
	s := openCatalog(t)
	ctx := context.Background()

	chain, err := s.Ancestors(ctx, rna)
	require.NoError(t, err)
	require.Equal(t, []string{ada, genomes, rna}, ids(chain))

	chain, err = s.Ancestors(ctx, sharedP)
	require.NoError(t, err)
	require.Equal(t, []string{bob, sharedP}, ids(chain))

	_, err = s.Ancestors(ctx, "zzzzz-j7d0g-999999999999999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFavorites(t *testing.T) {
	s := openCatalog(t)
	ctx := context.Background()

	page, err := s.Favorites(ctx, ada, loader.Query{})
	require.NoError(t, err)
	require.Equal(t, []string{reads, rna}, ids(page.Items), "starring order is kept")

	page, err = s.Favorites(ctx, ada, loader.Query{Kinds: []model.Kind{model.KindProject}})
	require.NoError(t, err)
	require.Equal(t, []string{rna}, ids(page.Items))

	page, err = s.PublicFavorites(ctx, loader.Query{})
	require.NoError(t, err)
	require.Equal(t, []string{sharedP}, ids(page.Items))
}

func TestReopenKeepsMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Import(context.Background(), fx))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, ada, s.UserUUID())
	require.Equal(t, "zzzzz", s.UUIDPrefix())
}

func TestVerify(t *testing.T) {
	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	require.NoError(t, Verify(fx))

	bad := fx
	bad.Projects = append([]model.Project(nil), fx.Projects...)
	bad.Projects[0].OwnerUUID = rna // genomes <-> rna
	bad.Projects = append(bad.Projects, model.Project{UUID: sharedP, Name: "dup", OwnerUUID: bob})
	bad.Favorites = []string{"zzzzz-j7d0g-999999999999999"}
	bad.Workflows = []model.Workflow{{UUID: reads, Name: "wrong kind"}}

	err = Verify(bad)
	require.ErrorIs(t, err, ErrInvalidFixture)
	msg := err.Error()
	require.Contains(t, msg, "ownership cycle")
	require.Contains(t, msg, `duplicate uuid "`+sharedP+`"`)
	require.Contains(t, msg, "not in the fixture")
	require.Contains(t, msg, "not shaped like a workflow uuid")
}

func TestParseFixtureRejectsUnknownFields(t *testing.T) {
	_, err := ParseFixture([]byte("user: {uuid: x}\nprojcts: []\n"))
	require.Error(t, err)
}

func TestImportInvalidFixtureKeepsContents(t *testing.T) {
	s := openCatalog(t)
	err := s.Import(context.Background(), Fixture{})
	require.ErrorIs(t, err, ErrInvalidFixture)

	page, err := s.List(context.Background(), genomes, loader.Query{})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
}

func TestWatcherReimportsOnWrite(t *testing.T) {
	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(fixturePath, []byte(fixtureYAML), 0o644))

	s, err := OpenFixture(context.Background(), filepath.Join(dir, "catalog.db"), fixturePath, nil)
	require.NoError(t, err)
	defer s.Close()

	reloaded := make(chan error, 4)
	w, err := NewWatcher(s, fixturePath, func(err error) { reloaded <- err })
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Start())
	defer w.Stop()

	// unrelated files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	fx.Projects = append(fx.Projects, model.Project{UUID: "zzzzz-j7d0g-000000000000005", Name: "Proteomics", OwnerUUID: ada})
	data, err := MarshalFixture(fx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fixturePath, data, 0o644))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("fixture change was not picked up")
	}
	page, err := s.List(context.Background(), ada, loader.Query{Kinds: []model.Kind{model.KindProject}})
	require.NoError(t, err)
	require.Contains(t, ids(page.Items), "zzzzz-j7d0g-000000000000005")
}

func TestCatalogDrivesLoader(t *testing.T) {
	s := openCatalog(t)
	store := picker.NewContainer(nil)
	l := loader.New(store, loader.Config{Source: s, UserUUID: s.UserUUID()})
	ctx := context.Background()

	require.NoError(t, l.InitProjectsPicker(ctx, "p", rna, loader.LoadParams{IncludeCollections: true}))

	home := store.State().Trees.Tree("p_home")
	n, ok := home.Node(rna)
	require.True(t, ok)
	require.True(t, n.Active)
	require.Equal(t, genomes, n.ParentID)

	g, ok := home.Node(genomes)
	require.True(t, ok)
	require.Equal(t, tree.Loaded, g.Status)
	require.Contains(t, g.ChildIDs, reads, "refresh lists the siblings of the opened project")
	require.NotContains(t, g.ChildIDs, scratch)
}
