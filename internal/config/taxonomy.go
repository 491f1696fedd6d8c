package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

// LoadTaxonomy reads a YAML mapping of raw label to concern. A null or empty value excludes the
// label:
//
//	Papule: Acne
//	Do not consider this image: null
func LoadTaxonomy(name, path string) (*concerns.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", name, err)
	}
	return ParseTaxonomy(name, data)
}

// ParseTaxonomy decodes taxonomy YAML.
func ParseTaxonomy(name string, data []byte) (*concerns.Taxonomy, error) {
	var raw map[string]*string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", name, err)
	}
	entries := make(map[string]string, len(raw))
	for label, concern := range raw {
		if concern == nil {
			entries[label] = ""
			continue
		}
		entries[label] = *concern
	}
	return concerns.NewTaxonomy(name, entries), nil
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
