// Package vegetation loads the vegetation parameter library: monthly leaf
// area index and canopy resistance for each vegetation class.
package vegetation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Class is one vegetation class of the library
type Class struct {
	ID        int       `yaml:"id"`
	Name      string    `yaml:"name"`
	Overstory bool      `yaml:"overstory"`
	RMin      float64   `yaml:"rmin"` // minimum stomatal resistance (s/m)
	LAI       []float64 `yaml:"lai"`  // one value per month, January first
}

// Library is a read-only set of vegetation classes. It is safe for
// concurrent use once loaded.
type Library struct {
	classes map[int]Class
}

type libraryFile struct {
	Classes []Class `yaml:"classes"`
}

// Load reads a vegetation library file
func Load(filename string) (*Library, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var f libraryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("error parsing vegetation library %s: %w", filename, err)
	}
	return New(f.Classes)
}

// New builds a library from classes, validating each of them
func New(classes []Class) (*Library, error) {
	lib := &Library{classes: make(map[int]Class, len(classes))}
	for _, c := range classes {
		if _, ok := lib.classes[c.ID]; ok {
			return nil, fmt.Errorf("vegetation class %d is defined twice", c.ID)
		}
		if len(c.LAI) != 12 {
			return nil, fmt.Errorf("vegetation class %d has %d monthly LAI values, expected 12", c.ID, len(c.LAI))
		}
		for m, v := range c.LAI {
			if v < 0 {
				return nil, fmt.Errorf("vegetation class %d has negative LAI in month %d", c.ID, m+1)
			}
		}
		lib.classes[c.ID] = c
	}
	return lib, nil
}

// Class returns the parameters of a vegetation class
func (l *Library) Class(id int) (Class, error) {
	c, ok := l.classes[id]
	if !ok {
		return Class{}, fmt.Errorf("unknown vegetation class %d", id)
	}
	return c, nil
}

// LAI returns the leaf area index of a class for month (1-12)
func (l *Library) LAI(class, month int) (float64, error) {
	c, err := l.Class(class)
	if err != nil {
		return 0, err
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("month %d out of range", month)
	}
	return c.LAI[month-1], nil
}

// RMin returns the minimum stomatal resistance of a class
func (l *Library) RMin(class int) (float64, error) {
	c, err := l.Class(class)
	if err != nil {
		return 0, err
	}
	return c.RMin, nil
}

// Len returns the number of classes
func (l *Library) Len() int {
	return len(l.classes)
}
