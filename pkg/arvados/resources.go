package arvados

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// wireResource is the union of the fields treepick reads from any API
// resource. The kind field selects which model type it becomes.
type wireResource struct {
	Kind             string         `json:"kind"`
	UUID             string         `json:"uuid"`
	OwnerUUID        string         `json:"owner_uuid"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	GroupClass       string         `json:"group_class"`
	FrozenByUUID     string         `json:"frozen_by_uuid"`
	CanWrite         bool           `json:"can_write"`
	ModifiedAt       time.Time      `json:"modified_at"`
	PortableDataHash string         `json:"portable_data_hash"`
	Properties       map[string]any `json:"properties"`
	FileCount        int            `json:"file_count"`
	FileSizeTotal    int64          `json:"file_size_total"`
	ManifestText     string         `json:"manifest_text"`
	Definition       string         `json:"definition"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	Username         string         `json:"username"`
	HeadUUID         string         `json:"head_uuid"`
}

type listResponse struct {
	Items          []wireResource `json:"items"`
	ItemsAvailable int            `json:"items_available"`
}

// toModel converts a wire resource. Kinds treepick does not show yield an error.
func (w wireResource) toModel() (model.Resource, error) {
	kind := w.Kind
	if kind == "" {
		kind = apiKind(model.KindOfUUID(w.UUID))
	}
	switch kind {
	case "arvados#group":
		return model.Project{
			UUID:         w.UUID,
			Name:         w.Name,
			OwnerUUID:    w.OwnerUUID,
			Description:  w.Description,
			GroupClass:   w.GroupClass,
			FrozenByUUID: w.FrozenByUUID,
			CanWrite:     w.CanWrite,
			ModifiedAt:   w.ModifiedAt,
		}, nil
	case "arvados#collection":
		props := make(map[string]string, len(w.Properties))
		for k, v := range w.Properties {
			if s, ok := v.(string); ok {
				props[k] = s
			}
		}
		return model.Collection{
			UUID:             w.UUID,
			Name:             w.Name,
			OwnerUUID:        w.OwnerUUID,
			Description:      w.Description,
			PortableDataHash: w.PortableDataHash,
			Properties:       props,
			FileCount:        w.FileCount,
			FileSizeTotal:    w.FileSizeTotal,
			ModifiedAt:       w.ModifiedAt,
		}, nil
	case "arvados#workflow":
		return model.Workflow{
			UUID:        w.UUID,
			Name:        w.Name,
			OwnerUUID:   w.OwnerUUID,
			Description: w.Description,
			Definition:  w.Definition,
		}, nil
	case "arvados#user":
		full := w.FirstName
		if w.LastName != "" {
			full += " " + w.LastName
		}
		return model.User{UUID: w.UUID, FullName: full, Username: w.Username}, nil
	}
	return nil, fmt.Errorf("unsupported resource kind %q for %s", kind, w.UUID)
}

func decodeList(b []byte) (listResponse, error) {
	var resp listResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return listResponse{}, fmt.Errorf("decode list: %w", err)
	}
	return resp, nil
}
