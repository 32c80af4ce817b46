// Package storage resolves the user and project directories fragments reads
// and writes, with XDG support.
package storage

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	appName        = "fragments"
	ProjectDirName = "_fragments"
)

// Dirs holds per-user directories.
type Dirs struct {
	Config string // User configuration
}

// ProjectDirs locates the files of one fragments repository.
type ProjectDirs struct {
	Repo     string // repository root holding _fragments/
	Root     string // _fragments/
	Index    string // _fragments/config.yaml, tracked files
	Settings string // _fragments/settings.yaml, project settings
	Lock     string // _fragments/.lock, advisory lock for index writes
}

var (
	globalDirs     *Dirs
	globalDirsOnce sync.Once
	globalDirsErr  error
)

// ResolveDirs returns platform-appropriate directories.
// Results are cached after first call.
func ResolveDirs() (*Dirs, error) {
	globalDirsOnce.Do(func() {
		globalDirs, globalDirsErr = resolveDirsImpl()
	})
	return globalDirs, globalDirsErr
}

func resolveDirsImpl() (*Dirs, error) {
	return &Dirs{
		Config: resolveDir("XDG_CONFIG_HOME", platformConfigDefault()),
	}, nil
}

func resolveDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	return fallback
}

// ResolveProjectDirs returns the layout of the repository rooted at repo.
func ResolveProjectDirs(repo string) *ProjectDirs {
	root := filepath.Join(repo, ProjectDirName)
	return &ProjectDirs{
		Repo:     repo,
		Root:     root,
		Index:    filepath.Join(root, "config.yaml"),
		Settings: filepath.Join(root, "settings.yaml"),
		Lock:     filepath.Join(root, ".lock"),
	}
}

// FindProjectDirs walks up from start looking for a _fragments directory.
func FindProjectDirs(start string) (*ProjectDirs, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, false
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ProjectDirName)); err == nil && info.IsDir() {
			return ResolveProjectDirs(dir), true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		dir = parent
	}
}

// Content returns the path of a file stored under _fragments/.
func (p *ProjectDirs) Content(name string) string {
	return filepath.Join(p.Root, name)
}

// EnsureDir creates a directory with the specified permissions if it doesn't exist.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = 0700
	}
	return os.MkdirAll(path, perm)
}

// EnsureStandardDir creates a directory with standard permissions (0755).
func EnsureStandardDir(path string) error {
	return EnsureDir(path, 0755)
}

// ConfigDir returns the config subdirectory path.
func (d *Dirs) ConfigDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Config}, subpath...)...)
}

// UserSettings is the per-user settings file.
func (d *Dirs) UserSettings() string {
	return d.ConfigDir("config.yaml")
}
