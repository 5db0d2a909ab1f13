package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// MetadataFile is the descriptor file name looked up in each module directory.
const MetadataFile = "module.yaml"

// Metadata represents the YAML descriptor of a module
type Metadata struct {
	Name              string `yaml:"name"`               // Display name
	Description       string `yaml:"description"`        // What the module does
	Version           string `yaml:"version"`            // Free-form version string
	Author            string `yaml:"author"`             // Who wrote it
	Licence           string `yaml:"licence"`            // Licence text
	DescriptionPrompt string `yaml:"description_prompt"` // One line offered to the router
	Steps             []Step `yaml:"steps"`              // Prompt steps, see Build
}

// Step declares one prompt handler of a module.yaml pipeline
type Step struct {
	Stage    Stage  `yaml:"stage"`
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Prompt   string `yaml:"prompt"`
	Fallback string `yaml:"fallback"`
}

// Validate checks if the metadata is valid
func (m *Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if m.DescriptionPrompt == "" {
		return fmt.Errorf("module %s: description_prompt cannot be empty", m.Name)
	}
	for i, s := range m.Steps {
		if s.Name == "" {
			return fmt.Errorf("step %d: name cannot be empty", i)
		}
		if _, ok := stageOrder[s.Stage]; !ok {
			return fmt.Errorf("step %s: stage must be feature, preprocess, or task", s.Name)
		}
		if s.Prompt == "" {
			return fmt.Errorf("step %s: prompt cannot be empty", s.Name)
		}
	}
	return nil
}

// Summary renders the metadata for display.
func (m *Metadata) Summary() string {
	return fmt.Sprintf("%s\n\n%s\n\nVersion: %s\nAuthor: %s", m.Name, m.Description, m.Version, m.Author)
}

// LoadMetadata reads and parses a module.yaml file
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var metadata Metadata
	if err := yaml.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := metadata.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	return &metadata, nil
}

// LoadDescriptors reads the module.yaml of every subdirectory of dir whose
// name matches pattern, in directory name order. An empty pattern matches
// everything. Directories without a descriptor file are skipped; invalid
// descriptors are logged and skipped.
func LoadDescriptors(dir, pattern string) ([]*Metadata, error) {
	if pattern == "" {
		pattern = "*"
	}
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid module pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read modules directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var found []*Metadata
	for _, entry := range entries {
		if !entry.IsDir() || !matcher.Match(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name(), MetadataFile)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		metadata, err := LoadMetadata(path)
		if err != nil {
			debugLog.Warnf("skipping module %s: %v", entry.Name(), err)
			continue
		}
		found = append(found, metadata)
	}
	return found, nil
}
