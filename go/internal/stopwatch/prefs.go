package stopwatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const preferencesFileName = "preferences.yaml"

// Preferences is the only state the stopwatch keeps between runs.
type Preferences struct {
	Username string `yaml:"username"`
}

// PreferencesStore reads and writes Preferences as YAML at a fixed path.
type PreferencesStore struct {
	path string
}

func NewPreferencesStore(path string) *PreferencesStore {
	return &PreferencesStore{path: path}
}

// DefaultPreferencesPath resolves the preferences file under the user config dir.
func DefaultPreferencesPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, preferencesFileName), nil
}

func (s *PreferencesStore) Path() string {
	return s.path
}

// Load returns the stored preferences, or zero preferences when the file
// does not exist yet.
func (s *PreferencesStore) Load() (Preferences, error) {
	var prefs Preferences

	rawData, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("read preferences file: %w", err)
	}

	if err := yaml.Unmarshal(rawData, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("parse preferences yaml: %w", err)
	}
	prefs.Username = strings.TrimSpace(prefs.Username)
	return prefs, nil
}

func (s *PreferencesStore) Save(prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences yaml: %w", err)
	}

	if err := os.WriteFile(s.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write preferences file: %w", err)
	}
	return nil
}
