package main

import (
	"os"
	"path/filepath"
	"strings"
)

// expandPath resolves a leading "~" to the current user's home directory.
// config.Config.Identity.KeyPath and CLI --key flags both accept "~"-forms,
// matching the convention every other chessmesh tool's default
// ("~/.chessmesh/identity.key") already assumes.
func expandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
