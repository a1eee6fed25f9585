package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProgramEntry is one row of the companion programs.yaml file: an on-chain
// program and the pool kind it mints. Kept as a plain string kind rather than
// importing internal/types, since pkg/config is meant to stay dependency-light
// for callers outside this module's cmd tree.
type ProgramEntry struct {
	Name      string `yaml:"name"`
	ProgramID string `yaml:"program_id"`
	Kind      string `yaml:"kind"`
}

type programsFile struct {
	Programs []ProgramEntry `yaml:"programs"`
}

// LoadPrograms reads the programs.yaml file at path and returns its entries.
// Unlike the layered defaults/env/override config, this file is a flat list
// the discovery watcher owns outright, so it's decoded directly with
// yaml.v3 instead of going through viper.
func LoadPrograms(path string) ([]ProgramEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf programsFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, err
	}
	return pf.Programs, nil
}
