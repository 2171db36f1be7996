//go:build linux

package platform

import (
	"os"
	"path/filepath"
)

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func fallbackCacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache")
}

func userDataDir(homeDir string) string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(dataHome) {
		return dataHome
	}
	return filepath.Join(homeDir, ".local", "share")
}
