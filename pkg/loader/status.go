package loader

import (
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// ChildStatus decides whether a freshly listed child can still be expanded
// (Initial) or is a leaf for this picker (Loaded).
//
// Projects and section roots always have children to fetch. Collections
// and directories only do when the picker shows directories or files.
// Everything else, synthetic markers included, is a leaf. NoDescendants
// turns every child into a leaf.
func ChildStatus(k model.Kind, p LoadParams) tree.Status {
	if p.NoDescendants {
		return tree.Loaded
	}
	switch k {
	case model.KindProject, model.KindSection:
		return tree.Initial
	case model.KindCollection, model.KindDirectory:
		if p.IncludeDirectories || p.IncludeFiles {
			return tree.Initial
		}
		return tree.Loaded
	default:
		return tree.Loaded
	}
}

// expandable reports whether nodes of kind k are reloaded on refresh.
func expandable(k model.Kind) bool {
	switch k {
	case model.KindProject, model.KindSection, model.KindCollection:
		return true
	}
	return false
}
