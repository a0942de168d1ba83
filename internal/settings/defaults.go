package settings

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Defaults returns the built-in coverage settings, overridden by the YAML
// file named in SETTINGS_FILE when present. These apply until the first
// settings save writes a row to the store.
func Defaults() CoverageSettings {
	s := CoverageSettings{
		NetworkTypes: map[string]NetworkTypeStyle{
			"FTTH": {NodeColor: "#e53935", AreaColor: "#ef9a9a", RadiusMeters: 50},
			"HFC":  {NodeColor: "#1e88e5", AreaColor: "#90caf9", RadiusMeters: 100},
		},
		Opacity:    0.35,
		NodeSizePx: 8,
	}

	path := os.Getenv("SETTINGS_FILE")
	if path == "" {
		return s
	}
	loaded, err := LoadFile(path)
	if err != nil {
		// Bad defaults file should not take the service down; built-ins apply.
		fmt.Fprintf(os.Stderr, "[Settings] ignoring %s: %v\n", path, err)
		return s
	}
	return loaded
}

// LoadFile parses a CoverageSettings YAML document.
func LoadFile(path string) (CoverageSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CoverageSettings{}, fmt.Errorf("read settings file: %w", err)
	}
	var s CoverageSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return CoverageSettings{}, fmt.Errorf("parse settings file: %w", err)
	}
	if s.NetworkTypes == nil {
		s.NetworkTypes = map[string]NetworkTypeStyle{}
	}
	return s, nil
}
