package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veris-memory/sentinel/internal/utils"
)

// allowListDirs returns the parent directories a database path is
// permitted to resolve under: a system-owned data directory (or
// SENTINEL_DATA_DIR override), a temporary directory, and a per-user
// config directory, per spec.md §4.3/§6.
func allowListDirs() []string {
	dirs := []string{
		utils.GetDataDir(),
		os.TempDir(),
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(configDir, "sentinel"))
	}
	return dirs
}

// DefaultPath returns the default database location under the
// system-owned data directory.
func DefaultPath() string {
	return filepath.Join(utils.GetDataDir(), "sentinel.db")
}

// ValidatePath checks that path resolves under one of the allow-listed
// parent directories. A violation is a configuration error — fatal at
// startup, per spec.md §7.
func ValidatePath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving db path %q: %w", path, err)
	}

	for _, dir := range allowListDirs() {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if abs == absDir || strings.HasPrefix(abs, absDir+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("db path %q does not resolve under an allow-listed directory (%v)", path, allowListDirs())
}
