package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds defaults loaded from mosaic.yml. Command-line flags
// take precedence over anything set here.
type ProjectConfig struct {
	BlockSize      int  `yaml:"blockSize,omitempty"`
	ParallelBlocks int  `yaml:"parallelBlocks,omitempty"`
	GDALCacheMB    int  `yaml:"gdalCacheMB,omitempty"`
	Verbose        bool `yaml:"verbose,omitempty"`
}

// Load attempts to read mosaic.yml or mosaic.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"mosaic.yml", "mosaic.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
