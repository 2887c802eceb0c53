package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
)

const (
	userUUID  = "zzzzz-tpzed-000000000000001"
	otherUUID = "zzzzz-tpzed-000000000000002"
)

// fakeSource serves canned listings and records every call.
type fakeSource struct {
	mu        sync.Mutex
	lists     map[string]model.Page
	files     map[string][]model.CollectionFile
	ancestors map[string][]model.Resource
	favorites model.Page
	fail      map[string]error
	calls     map[string]int
	queries   map[string]Query

	// gate, when set, blocks List until it is closed.
	gate    chan struct{}
	entered chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		lists:     map[string]model.Page{},
		files:     map[string][]model.CollectionFile{},
		ancestors: map[string][]model.Resource{},
		fail:      map[string]error{},
		calls:     map[string]int{},
		queries:   map[string]Query{},
	}
}

func (f *fakeSource) record(key string, q Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	f.queries[key] = q
	return f.fail[key]
}

func (f *fakeSource) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSource) query(key string) Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[key]
}

func (f *fakeSource) List(ctx context.Context, parentID string, q Query) (model.Page, error) {
	key := "list:" + parentID
	if f.entered != nil {
		f.entered <- key
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return model.Page{}, ctx.Err()
		}
	}
	if err := f.record(key, q); err != nil {
		return model.Page{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[parentID], nil
}

func (f *fakeSource) ListFiles(_ context.Context, collectionID string) ([]model.CollectionFile, error) {
	key := "files:" + collectionID
	if err := f.record(key, Query{}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[collectionID], nil
}

func (f *fakeSource) Ancestors(_ context.Context, targetID string) ([]model.Resource, error) {
	key := "ancestors:" + targetID
	if err := f.record(key, Query{}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	chain, ok := f.ancestors[targetID]
	if !ok {
		return nil, errors.New("not found")
	}
	return chain, nil
}

func (f *fakeSource) Favorites(_ context.Context, userID string, q Query) (model.Page, error) {
	if err := f.record("favorites:"+userID, q); err != nil {
		return model.Page{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites, nil
}

func (f *fakeSource) PublicFavorites(_ context.Context, q Query) (model.Page, error) {
	if err := f.record("public", q); err != nil {
		return model.Page{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites, nil
}

type notice struct {
	msg string
	sev Severity
}

// recorder is a Notifier that keeps every message.
type recorder struct {
	mu   sync.Mutex
	seen []notice
}

func (r *recorder) Notify(msg string, sev Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, notice{msg, sev})
}

func (r *recorder) all() []notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notice(nil), r.seen...)
}

func proj(uuid, name, owner string) model.Project {
	return model.Project{UUID: uuid, Name: name, OwnerUUID: owner, GroupClass: model.GroupClassProject, CanWrite: true}
}

func projects(n int, owner string) []model.Resource {
	out := make([]model.Resource, n)
	for i := range out {
		out[i] = proj(fmt.Sprintf("zzzzz-j7d0g-%015d", i), fmt.Sprintf("p%d", i), owner)
	}
	return out
}

func setup(t interface{ Helper() }) (*Loader, *fakeSource, *recorder) {
	t.Helper()
	src := newFakeSource()
	rec := &recorder{}
	l := New(picker.NewContainer(nil), Config{Source: src, Notifier: rec, UserUUID: userUUID})
	return l, src, rec
}
