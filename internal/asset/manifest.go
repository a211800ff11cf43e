package asset

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manifest lists the assets to load before the first frame.
//
//	preload:
//	  - type: shader
//	    resource: shaders/sprite.kage
//	  - type: prefab
//	    resource: prefabs/scene.txt
type Manifest struct {
	Preload []ManifestEntry `yaml:"preload"`
}

type ManifestEntry struct {
	Type     string `yaml:"type"`
	Resource string `yaml:"resource"`
}

// LoadManifest reads and parses a manifest through the store's source.
func (s *Store) LoadManifest(name string) (*Manifest, error) {
	data, err := s.src.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Preload adds every listed asset. Unknown type names are skipped with a
// warning. Returns the number of assets added.
func (s *Store) Preload(m *Manifest) int {
	n := 0
	for _, e := range m.Preload {
		tid, ok := s.Lookup(e.Type)
		if !ok {
			s.log.Warn("manifest names unknown asset type",
				zap.String("type", e.Type), zap.String("resource", e.Resource))
			continue
		}
		s.Add(tid, e.Resource)
		n++
	}
	s.log.Info("assets preloaded", zap.Int("count", n))
	return n
}
