package profile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var builtinProfiles []byte

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadBuiltin returns the embedded bank profile table.
func LoadBuiltin() ([]Profile, error) {
	return decode(builtinProfiles, "builtin profiles")
}

// LoadFile reads a user profile table with the same shape as the builtin one.
func LoadFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file %s: %w", path, err)
	}
	return decode(data, path)
}

func decode(data []byte, source string) ([]Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	return file.Profiles, nil
}

// Merge overlays user profiles on base. A user profile whose id exists in base
// replaces it; new ids are appended.
func Merge(base, overrides []Profile) []Profile {
	out := make([]Profile, len(base))
	copy(out, base)

	index := make(map[string]int, len(out))
	for i, p := range out {
		index[p.ID] = i
	}
	for _, p := range overrides {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

// Load returns the builtin table merged with the user file at path, if any.
// Relative paths are resolved with FindProfilesFile.
func Load(path string) ([]Profile, error) {
	profiles, err := LoadBuiltin()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return profiles, nil
	}

	resolved, err := FindProfilesFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles file %s not found: %w", path, err)
	}
	user, err := LoadFile(resolved)
	if err != nil {
		return nil, err
	}
	return Merge(profiles, user), nil
}

// FindProfilesFile looks for filename as given, then under ./config and
// ~/.config/budget-csv.
func FindProfilesFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", os.ErrNotExist
		}
		return filename, nil
	}

	locations := []string{filename, filepath.Join("config", filename)}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "budget-csv", filename))
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}
