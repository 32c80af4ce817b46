// Package registry tracks the files of a fragments repository and the
// committed copy of each one kept under _fragments/.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/adalundhe/fragments/core/storage"
)

const (
	indexVersion = "1"

	lockTimeout      = 10 * time.Second
	lockPollInterval = 50 * time.Millisecond
)

type index struct {
	Version string            `yaml:"version"`
	Files   map[string]string `yaml:"files"`
}

func newIndex() *index {
	return &index{Version: indexVersion, Files: make(map[string]string)}
}

type Registry struct {
	dirs   *storage.ProjectDirs
	index  *index
	lock   *flock.Flock
	logger *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func newRegistry(dirs *storage.ProjectDirs, opts []Option) *Registry {
	r := &Registry{
		dirs:   dirs,
		index:  newIndex(),
		lock:   flock.New(dirs.Lock),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init creates a repository under root. A repository already found at or
// above root is an error unless its index is missing or unreadable, in
// which case the index is recreated and a corrupt one is kept aside.
func Init(root string, opts ...Option) (*Registry, error) {
	abs, err := realpath(root)
	if err != nil {
		return nil, err
	}

	if dirs, ok := storage.FindProjectDirs(abs); ok {
		r := newRegistry(dirs, opts)
		err := r.load()
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, dirs.Index)
		case errors.Is(err, ErrCorruptConfig):
			if err := os.Rename(dirs.Index, dirs.Index+".corrupt"); err != nil {
				return nil, err
			}
			r.logger.Warn("corrupt index moved aside", slog.String("path", dirs.Index+".corrupt"))
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
		r.index = newIndex()
		return r, r.save()
	}

	dirs := storage.ResolveProjectDirs(abs)
	if err := storage.EnsureStandardDir(dirs.Root); err != nil {
		return nil, fmt.Errorf("create %s: %w", dirs.Root, err)
	}
	r := newRegistry(dirs, opts)
	if err := r.save(); err != nil {
		return nil, err
	}
	r.logger.Debug("repository initialized", slog.String("root", dirs.Root))
	return r, nil
}

// Open loads the repository found at or above start.
func Open(start string, opts ...Option) (*Registry, error) {
	abs, err := realpath(start)
	if err != nil {
		return nil, err
	}
	dirs, ok := storage.FindProjectDirs(abs)
	if !ok {
		return nil, fmt.Errorf("%w in %s or any parent directory", ErrNotFound, start)
	}
	r := newRegistry(dirs, opts)
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Dirs() *storage.ProjectDirs {
	return r.dirs
}

func (r *Registry) Root() string {
	return r.dirs.Repo
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.dirs.Index)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s is missing", ErrNotFound, r.dirs.Index)
	}
	if err != nil {
		return err
	}

	idx := newIndex()
	if err := yaml.Unmarshal(data, idx); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptConfig, err)
	}
	if idx.Files == nil {
		idx.Files = make(map[string]string)
	}
	r.index = idx
	return nil
}

// save writes the index while holding the repository lock.
func (r *Registry) save() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := r.lock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		return fmt.Errorf("lock %s: %w", r.dirs.Lock, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: timed out", r.dirs.Lock)
	}
	defer func() { _ = r.lock.Unlock() }()

	r.index.Version = indexVersion
	data, err := yaml.Marshal(r.index)
	if err != nil {
		return err
	}

	tmp := r.dirs.Index + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.dirs.Index)
}

// ContentName is the name of the committed copy of key under _fragments/.
func ContentName(key string) string {
	sum := sha256.Sum256([]byte("fragments:" + key))
	return hex.EncodeToString(sum[:])
}

// Keys returns every followed key in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.index.Files))
	for k := range r.index.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) Followed(key string) bool {
	_, ok := r.index.Files[key]
	return ok
}

func (r *Registry) Version() string {
	return r.index.Version
}

// realpath resolves symlinks in the longest existing prefix of path, so
// files that do not exist yet still land under the resolved repository.
func realpath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rest := ""
	dir := abs
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
