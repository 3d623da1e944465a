package config

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := ioutil.ReadFile(filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, err
	}
	out.configFs = afero.NewBasePathFs(afero.NewOsFs(), path)

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Initialize writes the default configuration into the directory if one isn't
// already there, then loads it.
func Initialize(path string, logger *log.Logger) (*Configuration, error) {
	configPath := filepath.Join(path, ConfigurationName)

	if _, err := os.Stat(configPath); err == nil {
		logger.Printf("Configuration already exists at %q, skipping.", configPath)
	} else if !os.IsNotExist(err) {
		return nil, err
	} else {
		if err := ioutil.WriteFile(configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
		logger.Printf("Wrote %q.", configPath)
	}

	return Load(path)
}
