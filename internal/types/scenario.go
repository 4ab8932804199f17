package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Scenario is one time step for a set of independent cells
type Scenario struct {
	Name  string         `yaml:"name"`
	Cells []CellScenario `yaml:"cells"`
}

// CellScenario holds the inputs of one cell. Initial is used when the state
// store has no prior state for the cell.
type CellScenario struct {
	ID          string         `yaml:"id"`
	Tile        Tile           `yaml:"tile"`
	IncludeSnow bool           `yaml:"include-snow"`
	Forcing     Forcing        `yaml:"forcing"`
	Soil        SoilProperties `yaml:"soil"`
	SoilTerms   SoilTerms      `yaml:"soil-terms"`
	SnowTerms   SnowTerms      `yaml:"snow-terms"`
	Initial     ColumnState    `yaml:"initial"`
}

// LoadScenario reads a scenario file
func LoadScenario(filename string) (*Scenario, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	s := &Scenario{}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("error parsing scenario %s: %w", filename, err)
	}
	seen := make(map[string]bool, len(s.Cells))
	for i, c := range s.Cells {
		if c.ID == "" {
			return nil, fmt.Errorf("scenario cell %d has no id", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("scenario cell id %q is duplicated", c.ID)
		}
		seen[c.ID] = true
	}
	return s, nil
}
