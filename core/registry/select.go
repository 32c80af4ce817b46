package registry

import (
	"errors"
	"path"

	"github.com/gobwas/glob"
)

// Select resolves command arguments to keys. Explicit arguments keep their
// order with duplicates dropped; no arguments means every followed key.
// Keys matching any exclude pattern, by full key or base name, are left out.
func (r *Registry) Select(args []string, exclude []string) ([]string, error) {
	matchers, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}

	var keys []string
	if len(args) == 0 {
		keys = r.Keys()
	} else {
		seen := make(map[string]bool, len(args))
		for _, arg := range args {
			key, err := r.Key(arg)
			if err != nil {
				return nil, err
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}

	selected := make([]string, 0, len(keys))
	for _, key := range keys {
		if !excluded(key, matchers) {
			selected = append(selected, key)
		}
	}
	return selected, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		matchers = append(matchers, matcher)
	}

	return matchers, nil
}

func excluded(key string, matchers []glob.Glob) bool {
	for _, m := range matchers {
		if m.Match(key) || m.Match(path.Base(key)) {
			return true
		}
	}
	return false
}
