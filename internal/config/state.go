package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// StateFile lives in the mod-loader directory and records what the last
// successful update installed.
const StateFile = ".launcher-state.json"

type InstallState struct {
	Tag         string    `json:"tag"`
	Asset       string    `json:"asset"`
	Bytes       int64     `json:"bytes"`
	InstalledAt time.Time `json:"installed_at"`
}

// LoadState reads the state from dir. A missing file returns nil, nil.
func LoadState(fs afero.Fs, dir string) (*InstallState, error) {
	path := filepath.Join(dir, StateFile)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var s InstallState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return &s, nil
}

// Save writes the state into dir.
func (s *InstallState) Save(fs afero.Fs, dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(dir, StateFile), data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}
