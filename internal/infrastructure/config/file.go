package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadFile overlays a YAML config file on top of cfg. Only keys present in
// the file are touched; everything else keeps its env/default value. A
// missing file is not an error so deployments can ship without one.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
