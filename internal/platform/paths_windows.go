//go:build windows

package platform

import (
	"os"
	"path/filepath"
)

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func fallbackCacheDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Local")
}

func userDataDir(homeDir string) string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return localAppData
	}
	return filepath.Join(homeDir, "AppData", "Local")
}
