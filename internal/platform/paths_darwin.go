//go:build darwin

package platform

import "path/filepath"

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "Library", "Application Support")
}

func fallbackCacheDir(homeDir string) string {
	return filepath.Join(homeDir, "Library", "Caches")
}

func userDataDir(homeDir string) string {
	return filepath.Join(homeDir, "Library", "Application Support")
}
