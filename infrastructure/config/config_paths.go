package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultFile is the configuration file name searched for when none is given
const DefaultFile = "config.yaml"

// SearchPaths returns the locations checked for the default configuration file
func SearchPaths() []string {
	paths := []string{filepath.Join(".", DefaultFile)}

	switch runtime.GOOS {
	case "windows":
		if appDataDir := os.Getenv("APPDATA"); appDataDir != "" {
			paths = append(paths, filepath.Join(appDataDir, "macscan", DefaultFile))
		}
		if programDataDir := os.Getenv("ProgramData"); programDataDir != "" {
			paths = append(paths, filepath.Join(programDataDir, "macscan", DefaultFile))
		}
	default:
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			paths = append(paths, filepath.Join(userConfigDir, "macscan", DefaultFile))
		}
		paths = append(paths, filepath.Join("/etc", "macscan", DefaultFile))
	}
	return paths
}

// Resolve returns path unchanged when it was set explicitly, otherwise
// the first existing file among candidates.
func Resolve(path string, candidates []string) (string, error) {
	if path != "" && path != DefaultFile {
		return path, nil
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no %s file found in %v", DefaultFile, candidates)
}
