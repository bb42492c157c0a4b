package configutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalName returns the name of the local override of the configuration file
// `name`, ex. `config.json5` becomes `config.local.json5`.
func LocalName(name string) string {
	prefixname, ext := splitExt(filepath.Base(name))
	return filepath.Join(
		filepath.Dir(name),
		fmt.Sprintf("%s.local.%s", prefixname, ext),
	)
}

// reads a configuration file, `name` should come with a file extension,
// it will automatically be lopped off to produce the other extensions.
// this function will merge the following files, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
func ReadConfig[T any](name string) (T, error) {
	var out T
	err := ReadConfigOnto(name, &out)
	return out, err
}

// ReadConfigOnto decodes the configuration file `name` and then its local
// override onto out. Keys missing from both files keep the value out already
// holds, keys that are present replace it even when they hold a zero value.
func ReadConfigOnto(name string, out any) error {
	allNotFound := true
	for _, path := range []string{name, LocalName(name)} {
		contents, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		if len(contents) == 0 {
			continue
		}
		err = json5.Unmarshal(contents, out)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if path != name {
			slog.Debug("merging config with local overrides", "local", path)
		}
		allNotFound = false
	}

	if allNotFound {
		return os.ErrNotExist
	}
	return nil
}

// FindConfig goes up the filesystem from the working directory until the root
// to find a directory holding the configuration file `name` or its local
// override, and returns the path of the configuration file in it.
func FindConfig(name string) (string, error) {
	root, err := filepath.Abs("/")
	if err != nil {
		return "", err
	}
	current, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for current != root {
		candidate := filepath.Join(current, name)
		for _, path := range []string{candidate, LocalName(candidate)} {
			_, err := os.Stat(path)
			if err == nil {
				return candidate, nil
			}
		}
		current = filepath.Dir(current)
	}

	return "", os.ErrNotExist
}

// SetLocalValue sets one top level key of the local override of `name`,
// keeping every other key it already holds.
func SetLocalValue(name, key string, value any) error {
	localFilepath := LocalName(name)

	values := map[string]any{}
	existing, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(existing) > 0 {
		err = json5.Unmarshal(existing, &values)
		if err != nil {
			return fmt.Errorf("%s: %w", localFilepath, err)
		}
	}
	err = mergo.Merge(&values, map[string]any{key: value}, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue)
	if err != nil {
		return err
	}

	// json is a subset of json5
	serialized, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(localFilepath, append(serialized, '\n'), 0600)
}
