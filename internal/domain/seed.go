package domain

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed seed_catalog.yaml
var seedCatalogYAML []byte

var (
	seedOnce sync.Once
	seedCars []Car
	seedErr  error
)

type seedFile struct {
	Cars []Car `yaml:"cars"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) ([]Car, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, car := range file.Cars {
		if car.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if !car.Category.Valid() {
			return nil, fmt.Errorf("catalog entry %q has unknown category %q", car.ID, car.Category)
		}
	}
	return file.Cars, nil
}

// DefaultCatalog returns a fresh copy of the built-in seed catalog.
func DefaultCatalog() []Car {
	seedOnce.Do(func() {
		seedCars, seedErr = ParseCatalog(seedCatalogYAML)
	})
	if seedErr != nil {
		// The file is embedded at build time; a parse failure is a programming error.
		panic(seedErr)
	}
	out := make([]Car, len(seedCars))
	copy(out, seedCars)
	return out
}
