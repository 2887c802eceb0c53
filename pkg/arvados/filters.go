package arvados

import (
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// Filters is an Arvados filter list: each entry is [attribute, operator, operand].
// Methods return a new list so builders can be shared.
type Filters [][]any

func (f Filters) add(attr, op string, operand any) Filters {
	out := make(Filters, len(f), len(f)+1)
	copy(out, f)
	return append(out, []any{attr, op, operand})
}

// IsA restricts attr (normally "uuid" or "head_uuid") to the given kinds.
func (f Filters) IsA(attr string, kinds ...model.Kind) Filters {
	var types []string
	for _, k := range kinds {
		if t := apiKind(k); t != "" && !contains(types, t) {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return f
	}
	return f.add(attr, "is_a", types)
}

// Equal adds attr = value.
func (f Filters) Equal(attr string, value any) Filters {
	return f.add(attr, "=", value)
}

// In adds attr in values.
func (f Filters) In(attr string, values ...string) Filters {
	return f.add(attr, "in", values)
}

// NotIn adds attr not in values.
func (f Filters) NotIn(attr string, values ...string) Filters {
	return f.add(attr, "not in", values)
}

// FullText matches every whitespace separated term of text against any
// text column of table ("groups", "collections").
func (f Filters) FullText(text, table string) Filters {
	for _, term := range strings.Fields(text) {
		f = f.add(table+".any", "ilike", "%"+term+"%")
	}
	return f
}

// Encode renders the list the way the API expects it in a query string.
func (f Filters) Encode() (string, error) {
	if len(f) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// apiKind maps a resource kind to its API type name.
func apiKind(k model.Kind) string {
	switch k {
	case model.KindProject, model.KindFilterGroup:
		return "arvados#group"
	case model.KindCollection:
		return "arvados#collection"
	case model.KindWorkflow:
		return "arvados#workflow"
	case model.KindUser:
		return "arvados#user"
	}
	return ""
}
