package arvados

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/model"
)

const (
	userUUID = "zzzzz-tpzed-000000000000001"
	projUUID = "zzzzz-j7d0g-000000000000001"
	subUUID  = "zzzzz-j7d0g-000000000000002"
)

type fakeAPI struct {
	t       *testing.T
	mu      sync.Mutex
	queries map[string]string // path -> raw query of the last request
	routes  map[string]any
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{t: t, queries: map[string]string{}, routes: map[string]any{}}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":["not logged in"]}`))
		return
	}
	f.mu.Lock()
	f.queries[r.URL.Path] = r.URL.RawQuery
	body, ok := f.routes[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":["Path not found"]}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(f.t, json.NewEncoder(w).Encode(body))
}

func (f *fakeAPI) filters(path string) [][]any {
	vals, err := url.ParseQuery(f.query(path))
	require.NoError(f.t, err)
	var out [][]any
	require.NoError(f.t, json.Unmarshal([]byte(vals.Get("filters")), &out))
	return out
}

func (f *fakeAPI) query(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func newClient(t *testing.T, api *fakeAPI) *Client {
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := New(Config{Host: srv.URL, Token: "secret", UUIDPrefix: "zzzzz", KeepWebURL: "https://download.example/"})
	require.NoError(t, err)
	return c
}

func TestListProjectContents(t *testing.T) {
	api := newFakeAPI(t)
	api.routes["/arvados/v1/groups/"+projUUID+"/contents"] = map[string]any{
		"items_available": 3,
		"items": []map[string]any{
			{"kind": "arvados#group", "uuid": subUUID, "name": "sub", "owner_uuid": projUUID, "group_class": "project", "can_write": true},
			{"kind": "arvados#collection", "uuid": colUUID, "name": "reads", "owner_uuid": projUUID, "properties": map[string]any{"type": "output", "n": 3}},
			{"kind": "arvados#containerRequest", "uuid": "zzzzz-xvhdp-000000000000001"},
		},
	}
	c := newClient(t, api)

	page, err := c.List(context.Background(), projUUID, loader.Query{
		Kinds:               []model.Kind{model.KindProject, model.KindCollection},
		ExcludeIntermediate: true,
		Limit:               200,
	})
	require.NoError(t, err)
	require.Equal(t, 3, page.ItemsAvailable)
	require.Len(t, page.Items, 2, "unsupported kinds are skipped")

	sub := page.Items[0].(model.Project)
	require.True(t, sub.CanWrite)
	col := page.Items[1].(model.Collection)
	require.Equal(t, "output", col.Type())

	f := api.filters("/arvados/v1/groups/" + projUUID + "/contents")
	require.Equal(t, "is_a", f[0][1])
	require.Equal(t, "not in", f[1][1])
}

func TestListSharedUsesGlobalContents(t *testing.T) {
	api := newFakeAPI(t)
	api.routes["/arvados/v1/groups/contents"] = map[string]any{"items": []any{}, "items_available": 0}
	c := newClient(t, api)

	_, err := c.List(context.Background(), "", loader.Query{ExcludeOwned: true, Search: "rna", Limit: 10})
	require.NoError(t, err)
	raw := api.query("/arvados/v1/groups/contents")
	require.Contains(t, raw, "exclude_home_project=true")
	require.Contains(t, raw, "limit=10")
	f := api.filters("/arvados/v1/groups/contents")
	require.Equal(t, []any{"groups.any", "ilike", "%rna%"}, f[0])
}

func TestListFilesFromManifest(t *testing.T) {
	api := newFakeAPI(t)
	api.routes["/arvados/v1/collections/"+colUUID] = map[string]any{
		"kind":          "arvados#collection",
		"uuid":          colUUID,
		"manifest_text": ". acbd18db4cc2f85cedef654fccc4a4d8+3 0:3:foo.txt\n",
	}
	c := newClient(t, api)

	files, err := c.ListFiles(context.Background(), colUUID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "https://download.example/c="+colUUID+"/foo.txt", files[0].URL)
}

func TestAncestorsWalksOwners(t *testing.T) {
	api := newFakeAPI(t)
	api.routes["/arvados/v1/collections/"+colUUID] = map[string]any{"kind": "arvados#collection", "uuid": colUUID, "owner_uuid": subUUID}
	api.routes["/arvados/v1/groups/"+subUUID] = map[string]any{"kind": "arvados#group", "uuid": subUUID, "owner_uuid": projUUID, "group_class": "project"}
	api.routes["/arvados/v1/groups/"+projUUID] = map[string]any{"kind": "arvados#group", "uuid": projUUID, "owner_uuid": userUUID, "group_class": "project"}
	api.routes["/arvados/v1/users/"+userUUID] = map[string]any{"kind": "arvados#user", "uuid": userUUID, "first_name": "Ada", "last_name": "L"}
	c := newClient(t, api)

	chain, err := c.Ancestors(context.Background(), colUUID)
	require.NoError(t, err)
	var ids []string
	for _, r := range chain {
		ids = append(ids, r.ResourceID())
	}
	require.Equal(t, []string{userUUID, projUUID, subUUID, colUUID}, ids)
	require.Equal(t, "Ada L", chain[0].DisplayName())
}

func TestAncestorsMissing(t *testing.T) {
	c := newClient(t, newFakeAPI(t))
	_, err := c.Ancestors(context.Background(), projUUID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "Path not found")
}

func TestSharedLookupSurvivesCallerCancel(t *testing.T) {
	arrived := make(chan struct{}, 4)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kind":"arvados#user","uuid":"` + userUUID + `","first_name":"Ada"}`))
	}))
	t.Cleanup(srv.Close)
	c, err := New(Config{Host: srv.URL, Token: "secret"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Ancestors(ctx, userUUID)
		first <- err
	}()
	<-arrived

	second := make(chan error, 1)
	var chain []model.Resource
	go func() {
		var err error
		chain, err = c.Ancestors(context.Background(), userUUID)
		second <- err
	}()

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)
	close(release)
	require.NoError(t, <-second)
	require.Len(t, chain, 1)
	require.Equal(t, "Ada", chain[0].DisplayName())
}

func TestFavoritesResolveHeadsInLinkOrder(t *testing.T) {
	api := newFakeAPI(t)
	api.routes["/arvados/v1/links"] = map[string]any{
		"items_available": 2,
		"items": []map[string]any{
			{"kind": "arvados#link", "uuid": "zzzzz-o0j2j-000000000000001", "head_uuid": subUUID},
			{"kind": "arvados#link", "uuid": "zzzzz-o0j2j-000000000000002", "head_uuid": projUUID},
		},
	}
	api.routes["/arvados/v1/groups/contents"] = map[string]any{
		"items_available": 2,
		"items": []map[string]any{
			{"kind": "arvados#group", "uuid": projUUID, "name": "p"},
			{"kind": "arvados#group", "uuid": subUUID, "name": "s"},
		},
	}
	c := newClient(t, api)

	page, err := c.Favorites(context.Background(), userUUID, loader.Query{Kinds: []model.Kind{model.KindProject}, OnlyOwned: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, subUUID, page.Items[0].ResourceID())

	f := api.filters("/arvados/v1/links")
	require.Contains(t, f, []any{"owner_uuid", "=", userUUID})

	_, err = c.PublicFavorites(context.Background(), loader.Query{})
	require.NoError(t, err)
	f = api.filters("/arvados/v1/links")
	require.Contains(t, f, []any{"owner_uuid", "=", "zzzzz-j7d0g-publicfavorites"})
}

func TestUnauthorized(t *testing.T) {
	api := newFakeAPI(t)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := New(Config{Host: srv.URL, Token: "wrong"})
	require.NoError(t, err)

	_, err = c.List(context.Background(), "", loader.Query{})
	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.True(t, strings.Contains(apiErr.Body, "not logged in"))
}

func TestNewRequiresHost(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	c, err := New(Config{Host: "zzzzz.example.org"})
	require.NoError(t, err)
	require.Equal(t, "https", c.base.Scheme)
}
