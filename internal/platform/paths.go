package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dirs resolves the per-user directories of one application.
type Dirs struct {
	appName string
}

// NewDirs returns the directory resolver for appName.
func NewDirs(appName string) *Dirs {
	return &Dirs{appName: appName}
}

// ConfigDir returns the OS-standard configuration directory for the app.
func (dirs *Dirs) ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return filepath.Join(configDir, dirs.appName), nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return filepath.Join(fallbackConfigDir(homeDir), dirs.appName), nil
}

// DataDir returns the directory for user data such as the time log.
func (dirs *Dirs) DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get data dir: %w", err)
	}
	return filepath.Join(userDataDir(homeDir), dirs.appName), nil
}

// CacheDir returns the directory for disposable files such as crash backups.
func (dirs *Dirs) CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err == nil && cacheDir != "" {
		return filepath.Join(cacheDir, dirs.appName), nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get cache dir: %w", err)
		}
		return "", fmt.Errorf("get cache dir: %w", homeErr)
	}

	return filepath.Join(fallbackCacheDir(homeDir), dirs.appName), nil
}

// LegacySettingsPaths lists settings files older releases kept in the home directory.
func (dirs *Dirs) LegacySettingsPaths() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(homeDir, "."+dirs.appName+"rc")}
}
