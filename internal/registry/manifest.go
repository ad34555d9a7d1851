// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Manifest is the on-disk YAML form of a file list.
type Manifest struct {
	Files []string `yaml:"files"`
}

// SaveManifest writes the registry's paths, in order, to a YAML file.
func (r *Registry) SaveManifest(path string) error {
	data, err := yaml.Marshal(Manifest{Files: r.Paths()})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// LoadManifest reads a YAML manifest and adds each listed path through Add,
// so missing files and duplicates are dropped. It returns the admitted paths.
func (r *Registry) LoadManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	var added []string
	for _, p := range m.Files {
		if r.Add(p) {
			added = append(added, p)
		}
	}
	return added, nil
}
