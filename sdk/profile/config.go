package profile

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load resolves a named profile from the config file at configPath (the
// default path when empty). A missing file or missing section returns
// (nil, nil): the profile simply does not exist. A section that exists but
// fails validation returns the construction error.
func Load(name, configPath string) (*Profile, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	entries, err := readConfig(configPath)
	if err != nil {
		return nil, err
	}
	entry, ok := entries[name]
	if !ok {
		log.Debugf("profile %q not found in %s", name, configPath)
		return nil, nil
	}
	entry.ProfileName = name
	return New(entry)
}

// Save writes p's fields to the config file under its profile name,
// preserving every other section. Credentials are never written here; they
// belong to the credential file.
func Save(p *Profile, configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	entries, err := readConfig(configPath)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = make(map[string]Profile)
	}
	entries[p.ProfileName] = *p

	out, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode profile config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err = os.WriteFile(configPath, out, 0o600); err != nil {
		return fmt.Errorf("write profile config %s: %w", configPath, err)
	}
	return nil
}

func readConfig(configPath string) (map[string]Profile, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile config %s: %w", configPath, err)
	}
	entries := make(map[string]Profile)
	if err = yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse profile config %s: %w", configPath, err)
	}
	return entries, nil
}
