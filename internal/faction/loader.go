package faction

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk shape of a relationship data file:
//
//	default: neutral
//	relations:
//	  - {a: Player, b: Elves, relation: friendly, note: "starting allies"}
type tableFile struct {
	Default   string        `yaml:"default"`
	Relations []entryRecord `yaml:"relations"`
}

type entryRecord struct {
	A        string `yaml:"a"`
	B        string `yaml:"b"`
	Relation string `yaml:"relation"`
	Note     string `yaml:"note"`
}

// LoadTable reads a relationship data file and builds a table from it.
// Unknown faction or relation names fail the load; a missing default
// falls back to neutral.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading relationship file: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing relationship file %s: %w", path, err)
	}

	def := RelationNeutral
	if file.Default != "" {
		def, err = ParseRelation(file.Default)
		if err != nil {
			return nil, fmt.Errorf("relationship file %s: default: %w", path, err)
		}
	}

	entries := make([]Entry, 0, len(file.Relations))
	for i, rec := range file.Relations {
		a, err := ParseID(rec.A)
		if err != nil {
			return nil, fmt.Errorf("relationship file %s: entry %d: %w", path, i, err)
		}
		b, err := ParseID(rec.B)
		if err != nil {
			return nil, fmt.Errorf("relationship file %s: entry %d: %w", path, i, err)
		}
		rel, err := ParseRelation(rec.Relation)
		if err != nil {
			return nil, fmt.Errorf("relationship file %s: entry %d: %w", path, i, err)
		}
		entries = append(entries, Entry{A: a, B: b, Relation: rel, Note: rec.Note})
	}

	return BuildTable(entries, def), nil
}
