package data

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	errTemplateID     = errors.New("template id is required")
	errNegativeStat   = errors.New("negative combat stat")
	errNegativeTuning = errors.New("negative AI tuning value")
)

// templatesFile is the on-disk shape of a template data file:
//
//	templates:
//	  - id: bandit_scout
//	    name: Bandit Scout
//	    kind: npc
//	    max_health: 120
//	    faction: bandits
//	    aggressive_to_hostile: true
//	    detection_range: 12
type templatesFile struct {
	Templates []*ActorTemplate `yaml:"templates"`
}

// LoadTemplates reads an actor template data file. Template IDs must be
// unique; unknown kind or faction names fail the load. A template without
// a display name uses its ID.
func LoadTemplates(path string) (Templates, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}

	var file templatesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing template file %s: %w", path, err)
	}

	templates := make(Templates, len(file.Templates))
	for i, tpl := range file.Templates {
		if err := tpl.validate(); err != nil {
			return nil, fmt.Errorf("template file %s: entry %d: %w", path, i, err)
		}
		if _, exists := templates[tpl.ID]; exists {
			return nil, fmt.Errorf("template file %s: entry %d: duplicate template id %q", path, i, tpl.ID)
		}
		if tpl.Name == "" {
			tpl.Name = tpl.ID
		}
		templates[tpl.ID] = tpl
	}

	slog.Info("loaded actor templates", "count", len(templates), "path", path)
	return templates, nil
}
