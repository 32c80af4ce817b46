package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestResolveDirs(t *testing.T) {
	resetGlobalDirs()

	dirs, err := ResolveDirs()
	if err != nil {
		t.Fatalf("ResolveDirs failed: %v", err)
	}

	if dirs.Config == "" {
		t.Error("Config dir should not be empty")
	}
	if !strings.Contains(dirs.Config, "fragments") {
		t.Errorf("Config dir should contain 'fragments': %s", dirs.Config)
	}
}

func TestResolveDirsXDGOverride(t *testing.T) {
	resetGlobalDirs()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dirs, err := ResolveDirs()
	if err != nil {
		t.Fatalf("ResolveDirs failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "fragments")
	if dirs.Config != expected {
		t.Errorf("XDG override failed: got %s, want %s", dirs.Config, expected)
	}
	if dirs.UserSettings() != filepath.Join(expected, "config.yaml") {
		t.Errorf("UserSettings: got %s", dirs.UserSettings())
	}
}

func TestResolveProjectDirs(t *testing.T) {
	repo := "/test/project"
	dirs := ResolveProjectDirs(repo)

	if dirs.Root != filepath.Join(repo, "_fragments") {
		t.Errorf("Root: got %s, want %s", dirs.Root, filepath.Join(repo, "_fragments"))
	}
	if dirs.Index != filepath.Join(repo, "_fragments", "config.yaml") {
		t.Errorf("Index: got %s", dirs.Index)
	}
	if dirs.Settings != filepath.Join(repo, "_fragments", "settings.yaml") {
		t.Errorf("Settings: got %s", dirs.Settings)
	}
	if dirs.Lock != filepath.Join(repo, "_fragments", ".lock") {
		t.Errorf("Lock: got %s", dirs.Lock)
	}
	if dirs.Content("abc") != filepath.Join(repo, "_fragments", "abc") {
		t.Errorf("Content: got %s", dirs.Content("abc"))
	}
}

func TestFindProjectDirs(t *testing.T) {
	repo := t.TempDir()
	if err := EnsureStandardDir(filepath.Join(repo, ProjectDirName)); err != nil {
		t.Fatalf("EnsureStandardDir failed: %v", err)
	}
	nested := filepath.Join(repo, "a", "b")
	if err := EnsureStandardDir(nested); err != nil {
		t.Fatalf("EnsureStandardDir failed: %v", err)
	}

	t.Run("from nested directory", func(t *testing.T) {
		dirs, ok := FindProjectDirs(nested)
		if !ok {
			t.Fatal("expected to find project dirs")
		}
		want, _ := filepath.Abs(repo)
		if dirs.Repo != want {
			t.Errorf("Repo: got %s, want %s", dirs.Repo, want)
		}
	})

	t.Run("outside any repository", func(t *testing.T) {
		if _, ok := FindProjectDirs(t.TempDir()); ok {
			t.Error("expected no project dirs")
		}
	})
}

func TestFindProjectDirsIgnoresFiles(t *testing.T) {
	repo := t.TempDir()
	if err := os.WriteFile(filepath.Join(repo, ProjectDirName), []byte("x"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, ok := FindProjectDirs(repo); ok {
		t.Error("a plain file named _fragments is not a repository")
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	testPath := filepath.Join(tmpDir, "test", "nested", "dir")

	if err := EnsureDir(testPath, 0); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	info, err := os.Stat(testPath)
	if err != nil {
		t.Fatalf("Directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Path is not a directory")
	}
}

func TestDirsConfigDir(t *testing.T) {
	dirs := &Dirs{Config: "/config"}

	if got := dirs.ConfigDir("sub", "path"); got != filepath.Join("/config", "sub", "path") {
		t.Errorf("ConfigDir: got %s", got)
	}
}

func resetGlobalDirs() {
	globalDirs = nil
	globalDirsOnce = sync.Once{}
	globalDirsErr = nil
}
