package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// ErrInvalidFixture wraps every problem Verify reports.
var ErrInvalidFixture = errors.New("invalid fixture")

// Verify checks that fx describes a consistent cluster: well-formed uuids
// matching their kinds, no duplicates, no ownership cycles and favorites
// that point at known resources. All problems are reported together.
func Verify(fx Fixture) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if fx.User.UUID == "" {
		fail("user.uuid is required")
	}
	if len(fx.PublicFavorites) > 0 && fx.UUIDPrefix == "" {
		fail("public_favorites need uuid_prefix")
	}

	kinds := map[string]model.Kind{}
	owners := map[string]string{}
	add := func(r model.Resource, want model.Kind) {
		id := r.ResourceID()
		switch {
		case id == "":
			fail("%s %q has no uuid", want, r.DisplayName())
			return
		case model.KindOfUUID(id) != want:
			fail("%s %q: uuid is not shaped like a %s uuid", want, id, want)
		}
		if fx.UUIDPrefix != "" && !strings.HasPrefix(id, fx.UUIDPrefix+"-") {
			fail("%q does not carry cluster prefix %q", id, fx.UUIDPrefix)
		}
		if _, dup := kinds[id]; dup {
			fail("duplicate uuid %q", id)
			return
		}
		kinds[id] = r.Kind()
		owners[id] = r.OwnerID()
	}
	for _, u := range fx.allUsers() {
		add(u, model.KindUser)
	}
	for _, p := range fx.Projects {
		add(p, model.KindProject)
	}
	for _, c := range fx.Collections {
		add(c.Collection, model.KindCollection)
	}
	for _, w := range fx.Workflows {
		add(w, model.KindWorkflow)
	}

	for id, owner := range owners {
		if owner == "" {
			continue
		}
		if owner == id {
			fail("%q owns itself", id)
			continue
		}
		if k, ok := kinds[owner]; ok && k != model.KindUser && k != model.KindProject && k != model.KindFilterGroup {
			fail("%q is owned by %s %q, which cannot own resources", id, k, owner)
		}
	}
	errs = append(errs, ownershipCycles(owners)...)

	checkStars := func(what string, heads []string) {
		seen := map[string]bool{}
		for _, h := range heads {
			if _, ok := kinds[h]; !ok {
				fail("%s %q is not in the fixture", what, h)
			}
			if seen[h] {
				fail("%s %q listed twice", what, h)
			}
			seen[h] = true
		}
	}
	checkStars("favorite", fx.Favorites)
	checkStars("public favorite", fx.PublicFavorites)

	if len(errs) == 0 {
		return nil
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return fmt.Errorf("%w: %w", ErrInvalidFixture, errors.Join(errs...))
}

// ownershipCycles builds the owned-by graph and reports each cycle once.
func ownershipCycles(owners map[string]string) []error {
	ids := make([]string, 0, len(owners))
	for id := range owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	index := make(map[string]int64, len(ids))
	for i, id := range ids {
		index[id] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for _, id := range ids {
		g.AddNode(simple.Node(index[id]))
	}
	for _, id := range ids {
		owner, ok := index[owners[id]]
		if !ok || owners[id] == id {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(index[id]), simple.Node(owner)))
	}

	var errs []error
	for _, cycle := range topo.DirectedCyclesIn(g) {
		// cycles come back closed: the first node repeats at the end
		names := make([]string, 0, len(cycle))
		for _, n := range cycle {
			names = append(names, ids[n.ID()])
		}
		errs = append(errs, fmt.Errorf("ownership cycle: %s", strings.Join(names, " -> ")))
	}
	return errs
}
