package data

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// spawnsFile is the on-disk shape of a spawn list data file:
//
//	spawns:
//	  - {template: bandit_scout, x: 10, y: 5, count: 3}
type spawnsFile struct {
	Spawns []SpawnDef `yaml:"spawns"`
}

// LoadSpawns reads a spawn list data file. A missing count defaults to 1.
// Template references resolve at spawn time, not here: the spawn manager
// logs and skips entries pointing at templates that do not exist.
func LoadSpawns(path string) ([]SpawnDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spawn file: %w", err)
	}

	var file spawnsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing spawn file %s: %w", path, err)
	}

	for i := range file.Spawns {
		if file.Spawns[i].Template == "" {
			return nil, fmt.Errorf("spawn file %s: entry %d: template is required", path, i)
		}
		if file.Spawns[i].Count <= 0 {
			file.Spawns[i].Count = 1
		}
	}

	slog.Info("loaded spawn list", "count", len(file.Spawns), "path", path)
	return file.Spawns, nil
}
