package upstream

import (
	"github.com/romain325/doc-thor-confgen/pkg/errors"
)

// Project is one entry of the server's project listing. Slug, Versions and
// Latest are typed views of the fields confgen cares about. Fields holds
// the whole record as sent by the server so that templates can use anything
// else it contains.
type Project struct {
	// Slug identifies the project and names its generated file.
	Slug string

	// Versions are the published version tags.
	Versions []string

	// Latest is the version tag marked as latest, if any.
	Latest string

	Fields map[string]interface{}
}

// UnmarshalJSON keeps every field of the record, and extracts the typed
// ones. A slug that isn't a string is rejected. Versions and latest are
// best-effort: if they don't have the expected shape they're only available
// through Fields.
func (p *Project) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	project := Project{Fields: fields}
	if raw, ok := fields["slug"]; ok && raw != nil {
		slug, ok := raw.(string)
		if !ok {
			return errors.New("slug must be a string, got %T", raw)
		}
		project.Slug = slug
	}

	if rawVersions, ok := fields["versions"].([]interface{}); ok {
		for _, raw := range rawVersions {
			if version, ok := raw.(string); ok {
				project.Versions = append(project.Versions, version)
			}
		}
	}

	if latest, ok := fields["latest"].(string); ok {
		project.Latest = latest
	}

	*p = project
	return nil
}
