package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Kind identifies the concrete type behind a Resource.
type Kind string

const (
	KindUnknown     Kind = ""
	KindProject     Kind = "project"
	KindFilterGroup Kind = "filter_group"
	KindCollection  Kind = "collection"
	KindDirectory   Kind = "directory"
	KindFile        Kind = "file"
	KindWorkflow    Kind = "workflow"
	KindUser        Kind = "user"
	KindSection     Kind = "section"   // Synthetic picker section root
	KindTruncated   Kind = "truncated" // Synthetic "more items available" marker
)

// IsValid returns true if the kind is a recognized value
func (k Kind) IsValid() bool {
	switch k {
	case KindProject, KindFilterGroup, KindCollection, KindDirectory, KindFile,
		KindWorkflow, KindUser, KindSection, KindTruncated:
		return true
	}
	return false
}

// IsSynthetic returns true for kinds that do not correspond to a server resource.
func (k Kind) IsSynthetic() bool {
	return k == KindSection || k == KindTruncated
}

// Resource is a single item that can appear as a tree node value.
// The set of implementations is closed: Project, Collection, CollectionFile,
// Workflow, User, Section and Truncated.
type Resource interface {
	ResourceID() string
	Kind() Kind
	DisplayName() string
	OwnerID() string
	isResource()
}

// Project is a group resource. Filter groups share the representation and
// are distinguished by GroupClass.
type Project struct {
	UUID         string    `json:"uuid" yaml:"uuid"`
	Name         string    `json:"name" yaml:"name"`
	OwnerUUID    string    `json:"owner_uuid" yaml:"owner_uuid"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	GroupClass   string    `json:"group_class,omitempty" yaml:"group_class,omitempty"`
	FrozenByUUID string    `json:"frozen_by_uuid,omitempty" yaml:"frozen_by_uuid,omitempty"`
	CanWrite     bool      `json:"can_write" yaml:"can_write"`
	ModifiedAt   time.Time `json:"modified_at,omitzero" yaml:"modified_at,omitempty"`
}

// GroupClass values reported by the API.
const (
	GroupClassProject = "project"
	GroupClassFilter  = "filter"
)

func (p Project) ResourceID() string  { return p.UUID }
func (p Project) DisplayName() string { return p.Name }
func (p Project) OwnerID() string     { return p.OwnerUUID }
func (Project) isResource()           {}

// Kind reports KindFilterGroup for filter groups and KindProject otherwise.
func (p Project) Kind() Kind {
	if p.GroupClass == GroupClassFilter {
		return KindFilterGroup
	}
	return KindProject
}

// IsFrozen reports whether the project has been frozen against writes.
func (p Project) IsFrozen() bool {
	return p.FrozenByUUID != ""
}

// Collection is a stored set of files.
type Collection struct {
	UUID             string            `json:"uuid" yaml:"uuid"`
	Name             string            `json:"name" yaml:"name"`
	OwnerUUID        string            `json:"owner_uuid" yaml:"owner_uuid"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	PortableDataHash string            `json:"portable_data_hash,omitempty" yaml:"portable_data_hash,omitempty"`
	Properties       map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	FileCount        int               `json:"file_count,omitempty" yaml:"file_count,omitempty"`
	FileSizeTotal    int64             `json:"file_size_total,omitempty" yaml:"file_size_total,omitempty"`
	ModifiedAt       time.Time         `json:"modified_at,omitzero" yaml:"modified_at,omitempty"`
}

func (c Collection) ResourceID() string  { return c.UUID }
func (Collection) Kind() Kind            { return KindCollection }
func (c Collection) DisplayName() string { return c.Name }
func (c Collection) OwnerID() string     { return c.OwnerUUID }
func (Collection) isResource()           {}

// Type returns the "type" property (e.g. "intermediate", "log"), if any.
func (c Collection) Type() string {
	return c.Properties["type"]
}

// FileType distinguishes files from directories inside a collection.
type FileType string

const (
	FileTypeFile      FileType = "file"
	FileTypeDirectory FileType = "directory"
)

// CollectionFile is one entry of a collection's internal file tree.
// Path is the parent directory inside the collection: "" for the collection
// root, "/dir" or "/dir/sub" below it.
type CollectionFile struct {
	CollectionUUID string   `json:"collection_uuid"`
	Path           string   `json:"path"`
	Name           string   `json:"name"`
	Type           FileType `json:"type"`
	Size           int64    `json:"size,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// ResourceID is <collection-uuid><path>/<name>.
func (f CollectionFile) ResourceID() string {
	return f.CollectionUUID + f.Path + "/" + f.Name
}

// ParentID is the id of the containing directory, or the collection uuid for
// top-level entries.
func (f CollectionFile) ParentID() string {
	if f.Path == "" {
		return f.CollectionUUID
	}
	return f.CollectionUUID + f.Path
}

func (f CollectionFile) DisplayName() string { return f.Name }
func (f CollectionFile) OwnerID() string     { return f.CollectionUUID }
func (CollectionFile) isResource()           {}

func (f CollectionFile) Kind() Kind {
	if f.Type == FileTypeDirectory {
		return KindDirectory
	}
	return KindFile
}

// Workflow is a registered workflow definition.
type Workflow struct {
	UUID        string `json:"uuid" yaml:"uuid"`
	Name        string `json:"name" yaml:"name"`
	OwnerUUID   string `json:"owner_uuid" yaml:"owner_uuid"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Definition  string `json:"definition,omitempty" yaml:"definition,omitempty"`
}

func (w Workflow) ResourceID() string  { return w.UUID }
func (Workflow) Kind() Kind            { return KindWorkflow }
func (w Workflow) DisplayName() string { return w.Name }
func (w Workflow) OwnerID() string     { return w.OwnerUUID }
func (Workflow) isResource()           {}

// User is an account; its uuid doubles as the home project id.
type User struct {
	UUID     string `json:"uuid" yaml:"uuid"`
	FullName string `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
}

func (u User) ResourceID() string { return u.UUID }
func (User) Kind() Kind           { return KindUser }
func (u User) OwnerID() string    { return "" }
func (User) isResource()          {}

func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Section is the synthetic root of one picker section ("Home Projects",
// "Shared with me", ...).
type Section struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s Section) ResourceID() string  { return s.ID }
func (Section) Kind() Kind            { return KindSection }
func (s Section) DisplayName() string { return s.Name }
func (Section) OwnerID() string       { return "" }
func (Section) isResource()           {}

// TruncatedID is the id prefix of truncation marker nodes.
const TruncatedID = "more-items-available"

// Truncated marks a listing that was cut at the page limit. It is not a real
// resource and can never be expanded or selected.
type Truncated struct {
	ParentID  string `json:"parent_id,omitempty"`
	Shown     int    `json:"shown"`
	Available int    `json:"available"`
}

// ResourceID is scoped by the listing parent so that markers under different
// nodes of one tree never collide.
func (t Truncated) ResourceID() string {
	if t.ParentID == "" {
		return TruncatedID
	}
	return TruncatedID + "@" + t.ParentID
}

func (Truncated) Kind() Kind         { return KindTruncated }
func (Truncated) OwnerID() string    { return "" }
func (Truncated) isResource()        {}

func (t Truncated) DisplayName() string {
	return fmt.Sprintf("*** Not all items listed (%d out of %d), reduce item count with search or filter ***",
		t.Shown, t.Available)
}

// IsTruncated reports whether r is the truncation marker.
func IsTruncated(r Resource) bool {
	return r != nil && r.Kind() == KindTruncated
}

// Description returns the free-text description of r, if its kind has one.
func Description(r Resource) string {
	switch v := r.(type) {
	case Project:
		return v.Description
	case Collection:
		return v.Description
	case Workflow:
		return v.Description
	}
	return ""
}

// Page is a bounded listing returned by a data source.
type Page struct {
	Items          []Resource
	ItemsAvailable int
}

var (
	uuidPattern = regexp.MustCompile(`^[a-z0-9]{5}-([a-z0-9]{5})-[a-z0-9]{15}$`)
	// Collection-scoped file ids start with a collection uuid or a portable data hash.
	collectionPrefixPattern = regexp.MustCompile(`^([a-z0-9]{5}-4zz18-[a-z0-9]{15}|[a-f0-9]{32}\+[0-9]+)`)
)

// KindOfUUID infers the resource kind from the type infix of an Arvados uuid.
func KindOfUUID(uuid string) Kind {
	m := uuidPattern.FindStringSubmatch(uuid)
	if m == nil {
		return KindUnknown
	}
	switch m[1] {
	case "j7d0g":
		return KindProject
	case "4zz18":
		return KindCollection
	case "7fd4e":
		return KindWorkflow
	case "tpzed":
		return KindUser
	}
	return KindUnknown
}

// IsUUID reports whether s is shaped like an Arvados uuid.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// CollectionUUIDFromFileID extracts the owning collection identifier from a
// CollectionFile id. Returns "" when id is not collection-scoped.
func CollectionUUIDFromFileID(id string) string {
	return collectionPrefixPattern.FindString(id)
}

// Location is a valid destination for file operations.
type Location struct {
	UUID string `json:"uuid"`
	Path string `json:"path"`
}

// FileOperationLocation resolves r to a file operation destination.
// Collections resolve to their root; directories to their path inside the
// owning collection. Everything else is not a destination.
func FileOperationLocation(r Resource) (Location, bool) {
	switch v := r.(type) {
	case Collection:
		return Location{UUID: v.UUID, Path: "/"}, true
	case CollectionFile:
		if v.Type != FileTypeDirectory {
			return Location{}, false
		}
		uuid := CollectionUUIDFromFileID(v.ResourceID())
		if uuid == "" {
			return Location{}, false
		}
		return Location{UUID: uuid, Path: strings.Join([]string{v.Path, v.Name}, "/")}, true
	}
	return Location{}, false
}
