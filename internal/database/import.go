package database

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jgoulah/powerdash/pkg/models"
)

// DecodeFacilities parses a facility list from JSON or YAML. The document
// is either a list of facilities or a map with a "facilities" list.
// YAML goes through JSON so kWh values get the same lenient coercion.
func DecodeFacilities(data []byte, isYAML bool) ([]models.Facility, error) {
	if isYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("converting yaml: %w", err)
		}
		data = converted
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Facilities []models.Facility `json:"facilities"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing facilities: %w", err)
		}
		return wrapped.Facilities, nil
	}

	var facilities []models.Facility
	if err := json.Unmarshal(data, &facilities); err != nil {
		return nil, fmt.Errorf("parsing facilities: %w", err)
	}
	return facilities, nil
}

// ImportFacilities saves every facility, assigning a UUID to those without
// an id. It returns the ids in input order.
func (db *DB) ImportFacilities(facilities []models.Facility) ([]string, error) {
	ids := make([]string, 0, len(facilities))
	for i := range facilities {
		f := &facilities[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if err := db.SaveFacility(f); err != nil {
			return ids, fmt.Errorf("importing facility %q: %w", f.ID, err)
		}
		ids = append(ids, f.ID)
	}
	return ids, nil
}
