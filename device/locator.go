package device

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// DefaultADBName is the executable name used when no explicit path is available
const DefaultADBName = "adb"

// Locator resolves the adb executable path
type Locator struct {
	lookPath func(file string) (string, error)
	getenv   func(key string) string
	homeDir  func() (string, error)
}

// NewLocator creates a locator backed by the process environment
func NewLocator() *Locator {
	return &Locator{
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		homeDir:  os.UserHomeDir,
	}
}

// Locate returns the adb path to use.
// An explicit path wins when it is executable; otherwise PATH and the usual SDK
// install locations are searched. When nothing is found the bare "adb" name is
// returned together with ErrToolNotFound so callers can still start and log.
func (l *Locator) Locate(explicit string) (string, error) {
	if explicit != "" {
		if isExecutable(explicit) {
			log.WithField("adb_path", explicit).Debug("Using configured adb path")
			return explicit, nil
		}
		log.WithField("adb_path", explicit).Warn("⚠️ Configured adb path is not executable, searching system paths")
	}

	if path, err := l.lookPath(DefaultADBName); err == nil {
		log.WithField("adb_path", path).Debug("Found adb in PATH")
		return path, nil
	}

	for _, candidate := range l.candidates() {
		if isExecutable(candidate) {
			log.WithField("adb_path", candidate).Info("📍 Found adb outside PATH")
			return candidate, nil
		}
	}

	return DefaultADBName, fmt.Errorf("%w: searched PATH and SDK locations", ErrToolNotFound)
}

// candidates lists fallback install locations in priority order
func (l *Locator) candidates() []string {
	var paths []string

	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if root := l.getenv(env); root != "" {
			paths = append(paths, filepath.Join(root, "platform-tools", DefaultADBName))
		}
	}

	paths = append(paths, "/usr/local/bin/adb")

	if home, err := l.homeDir(); err == nil && home != "" {
		paths = append(paths,
			filepath.Join(home, "Library", "Android", "sdk", "platform-tools", DefaultADBName),
			filepath.Join(home, "Android", "Sdk", "platform-tools", DefaultADBName),
		)
	}

	return paths
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}
