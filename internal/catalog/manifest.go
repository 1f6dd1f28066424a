package catalog

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/reelmatch/reelmatch/internal/similarity"
	"gopkg.in/yaml.v3"
)

// FeatureInfo records how description vectors were produced
type FeatureInfo struct {
	Vectorizer  string `yaml:"vectorizer"`
	Model       string `yaml:"model,omitempty"`
	MaxFeatures int    `yaml:"max_features,omitempty"`
	Dimensions  int    `yaml:"dimensions"`
}

// SourceInfo records the raw inputs of a build
type SourceInfo struct {
	Movies  string `yaml:"movies"`
	Credits string `yaml:"credits,omitempty"`
}

// Manifest describes a catalog build
type Manifest struct {
	BuildID           string             `yaml:"build_id"`
	BuiltAt           time.Time          `yaml:"built_at"`
	Movies            int                `yaml:"movies"`
	InputRows         int                `yaml:"input_rows"`
	DroppedDuplicates int                `yaml:"dropped_duplicates"`
	DuplicateTitles   []string           `yaml:"duplicate_titles,omitempty"`
	EmptyDescriptions int                `yaml:"empty_descriptions"`
	Features          FeatureInfo        `yaml:"features"`
	Sources           SourceInfo         `yaml:"sources"`
	MatrixChecksum    string             `yaml:"matrix_checksum"`
	Summary           similarity.Summary `yaml:"summary"`
}

// NewManifest starts a manifest for a fresh build
func NewManifest() *Manifest {
	return &Manifest{
		BuildID: uuid.NewString(),
		BuiltAt: time.Now().UTC(),
	}
}

// SaveManifest writes the manifest as YAML
func SaveManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by SaveManifest
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
