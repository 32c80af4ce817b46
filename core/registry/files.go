package registry

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type FileStatus int

const (
	StatusUnchanged FileStatus = iota
	StatusModified
	StatusAdded
	StatusDeleted
	StatusUntracked
	StatusMissing
)

var fileStatusCodes = map[FileStatus]string{
	StatusUnchanged: " ",
	StatusModified:  "M",
	StatusAdded:     "A",
	StatusDeleted:   "D",
	StatusUntracked: "?",
	StatusMissing:   "E",
}

// Code is the one-letter form used in listings.
func (s FileStatus) Code() string {
	if code, ok := fileStatusCodes[s]; ok {
		return code
	}
	return "E"
}

var fileStatusNames = map[FileStatus]string{
	StatusUnchanged: "unchanged",
	StatusModified:  "modified",
	StatusAdded:     "added",
	StatusDeleted:   "deleted",
	StatusUntracked: "untracked",
	StatusMissing:   "missing",
}

func (s FileStatus) String() string {
	if name, ok := fileStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Key converts a filesystem path into the repository-relative key that
// identifies it in the index.
func (r *Registry) Key(path string) (string, error) {
	full, err := realpath(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.dirs.Repo, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &OutsideRootError{Path: path, Root: r.dirs.Repo}
	}
	return filepath.ToSlash(rel), nil
}

// Path is the working copy of key.
func (r *Registry) Path(key string) string {
	return filepath.Join(r.dirs.Repo, filepath.FromSlash(key))
}

func (r *Registry) committedPath(key string) (string, error) {
	name, ok := r.index.Files[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrNotFollowed)
	}
	return r.dirs.Content(name), nil
}

// Follow starts tracking the file at path and returns its key.
func (r *Registry) Follow(path string) (string, error) {
	key, err := r.Key(path)
	if err != nil {
		return "", err
	}
	if r.Followed(key) {
		return key, fmt.Errorf("%s: %w", key, ErrAlreadyFollowed)
	}
	f, err := os.OpenFile(r.Path(key), os.O_RDWR, 0)
	if err != nil {
		return key, fmt.Errorf("could not access %s: %w", key, err)
	}
	f.Close()

	r.index.Files[key] = ContentName(key)
	if err := r.save(); err != nil {
		delete(r.index.Files, key)
		return key, err
	}
	r.logger.Debug("following file",
		slog.String("key", key),
		slog.String("content", r.index.Files[key]))
	return key, nil
}

// Status compares the working copy of key with its committed copy.
func (r *Registry) Status(key string) (FileStatus, error) {
	committedPath, err := r.committedPath(key)
	if err != nil {
		return StatusUntracked, nil
	}

	current, currentErr := os.ReadFile(r.Path(key))
	if currentErr != nil && !os.IsNotExist(currentErr) {
		return StatusMissing, currentErr
	}
	committed, committedErr := os.ReadFile(committedPath)
	if committedErr != nil && !os.IsNotExist(committedErr) {
		return StatusMissing, committedErr
	}

	switch {
	case currentErr == nil && committedErr == nil:
		if bytes.Equal(current, committed) {
			return StatusUnchanged, nil
		}
		return StatusModified, nil
	case currentErr == nil:
		return StatusAdded, nil
	case committedErr == nil:
		return StatusDeleted, nil
	default:
		return StatusMissing, nil
	}
}

// Commit records the working copy of key as its committed content.
func (r *Registry) Commit(key string) error {
	status, err := r.Status(key)
	if err != nil {
		return err
	}
	switch status {
	case StatusUntracked:
		return fmt.Errorf("%s: %w", key, ErrNotFollowed)
	case StatusDeleted, StatusMissing:
		return fmt.Errorf("%s: %w", key, ErrRemoved)
	case StatusUnchanged:
		return fmt.Errorf("%s: %w", key, ErrUnchanged)
	}

	dst, err := r.committedPath(key)
	if err != nil {
		return err
	}
	if err := copyFile(r.Path(key), dst); err != nil {
		return err
	}
	r.logger.Debug("committed", slog.String("key", key), slog.String("status", status.String()))
	return nil
}

// Revert restores the working copy of key from its committed content.
func (r *Registry) Revert(key string) error {
	status, err := r.Status(key)
	if err != nil {
		return err
	}
	switch status {
	case StatusUntracked:
		return fmt.Errorf("%s: %w", key, ErrNotFollowed)
	case StatusAdded, StatusMissing:
		return fmt.Errorf("%s: %w", key, ErrNeverCommitted)
	case StatusUnchanged:
		return fmt.Errorf("%s: %w", key, ErrUnchanged)
	}

	src, err := r.committedPath(key)
	if err != nil {
		return err
	}
	if err := copyFile(src, r.Path(key)); err != nil {
		return err
	}
	r.logger.Debug("reverted", slog.String("key", key), slog.String("status", status.String()))
	return nil
}

// Committed returns the last committed lines of key.
func (r *Registry) Committed(key string) ([]string, error) {
	path, err := r.committedPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", key, ErrNeverCommitted)
	}
	if err != nil {
		return nil, err
	}
	return SplitLines(data), nil
}

// Current returns the working copy lines of a followed key.
func (r *Registry) Current(key string) ([]string, error) {
	if !r.Followed(key) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFollowed)
	}
	return r.Read(key)
}

// Read returns the working copy lines of key whether or not it is followed.
func (r *Registry) Read(key string) ([]string, error) {
	data, err := os.ReadFile(r.Path(key))
	if err != nil {
		return nil, err
	}
	return SplitLines(data), nil
}

// Write replaces the working copy of key, keeping its permissions.
func (r *Registry) Write(key string, lines []string) error {
	path := r.Path(key)
	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return os.WriteFile(path, JoinLines(lines), perm)
}

// copyFile copies src over dst and carries the modification time along.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
