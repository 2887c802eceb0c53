package picker

import "maps"

// LoadParams tells the loader which kinds of children a picker shows and
// how deep it may go.
type LoadParams struct {
	IncludeCollections  bool `json:"include_collections" yaml:"include_collections"`
	IncludeDirectories  bool `json:"include_directories" yaml:"include_directories"`
	IncludeFiles        bool `json:"include_files" yaml:"include_files"`
	IncludeFilterGroups bool `json:"include_filter_groups" yaml:"include_filter_groups"`
	ShowOnlyOwned       bool `json:"show_only_owned" yaml:"show_only_owned"`
	ShowOnlyWritable    bool `json:"show_only_writable" yaml:"show_only_writable"`
	NoDescendants       bool `json:"no_descendants" yaml:"no_descendants"`
}

// SearchState is the per-picker search and loading configuration. Like
// Store, it is never mutated in place.
type SearchState struct {
	projectSearch    map[string]string
	collectionFilter map[string]string
	loadParams       map[string]LoadParams
	refreshes        map[string]int
}

// ProjectSearch returns the project search text of pickerID.
func (s SearchState) ProjectSearch(pickerID string) string {
	return s.projectSearch[pickerID]
}

// CollectionFilter returns the collection filter text of pickerID.
func (s SearchState) CollectionFilter(pickerID string) string {
	return s.collectionFilter[pickerID]
}

// LoadParams returns the load parameters of pickerID and whether any were set.
func (s SearchState) LoadParams(pickerID string) (LoadParams, bool) {
	p, ok := s.loadParams[pickerID]
	return p, ok
}

// Refreshes counts RefreshPicker actions seen for pickerID.
func (s SearchState) Refreshes(pickerID string) int {
	return s.refreshes[pickerID]
}

func withKey[V comparable](m map[string]V, key string, value V) (map[string]V, bool) {
	if cur, ok := m[key]; ok && cur == value {
		return m, false
	}
	out := make(map[string]V, len(m)+1)
	maps.Copy(out, m)
	out[key] = value
	return out, true
}

func (s SearchState) setProjectSearch(pickerID, v string) SearchState {
	s.projectSearch, _ = withKey(s.projectSearch, pickerID, v)
	return s
}

func (s SearchState) setCollectionFilter(pickerID, v string) SearchState {
	s.collectionFilter, _ = withKey(s.collectionFilter, pickerID, v)
	return s
}

func (s SearchState) setLoadParams(pickerID string, p LoadParams) SearchState {
	s.loadParams, _ = withKey(s.loadParams, pickerID, p)
	return s
}

func (s SearchState) refresh(pickerID string) SearchState {
	s.refreshes, _ = withKey(s.refreshes, pickerID, s.refreshes[pickerID]+1)
	return s
}
