package data

import "github.com/veyrn/ravenfell/internal/model"

// SpawnDef places count copies of a template at one world position.
type SpawnDef struct {
	Template string  `yaml:"template"`
	Name     string  `yaml:"name"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
	Heading  float64 `yaml:"heading"`
	Count    int     `yaml:"count"`
}

// Location returns the spawn point.
func (s *SpawnDef) Location() model.Location {
	return model.NewLocation(s.X, s.Y, s.Z).WithHeading(s.Heading)
}
