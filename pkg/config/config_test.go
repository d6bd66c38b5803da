package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets every MONOSYNC variable so tests see a clean slate.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		TokenEnv, SourceRepoEnv, SourceOwnerEnv, PackageLocationEnv,
		MonorepoOwnerEnv, MonorepoRepoEnv, MonorepoBranchEnv,
		SourceRootEnv, ScratchDirEnv, APIBaseURLEnv, PRNumberEnv,
		LogLevelEnv, LogFileEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SourceOwner != DefaultSourceOwner {
		t.Errorf("expected default source owner, got %q", cfg.SourceOwner)
	}
	if cfg.MonorepoOwner != DefaultSourceOwner {
		t.Errorf("monorepo owner should default to source owner, got %q", cfg.MonorepoOwner)
	}
	if cfg.MonorepoRepo != DefaultMonorepoRepo {
		t.Errorf("unexpected monorepo repo %q", cfg.MonorepoRepo)
	}
	if cfg.MonorepoBranch != DefaultMonorepoBranch {
		t.Errorf("unexpected monorepo branch %q", cfg.MonorepoBranch)
	}
	if cfg.SourceRoot != "." {
		t.Errorf("unexpected source root %q", cfg.SourceRoot)
	}
	if cfg.ScratchDir == "" {
		t.Error("scratch dir should have a default")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	configDir := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	content := "source_repo: from-file\npackage_location: libs/from-file\nmonorepo_branch: develop\n"
	if err := os.WriteFile(filepath.Join(configDir, ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(SourceRepoEnv, "from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SourceRepo != "from-env" {
		t.Errorf("env should win over file, got %q", cfg.SourceRepo)
	}
	if cfg.PackageLocation != "libs/from-file" {
		t.Errorf("file value should apply, got %q", cfg.PackageLocation)
	}
	if cfg.MonorepoBranch != "develop" {
		t.Errorf("file value should apply, got %q", cfg.MonorepoBranch)
	}
}

func TestLoadSearchesParentDirectories(t *testing.T) {
	clearEnv(t)

	root := t.TempDir()
	configDir := filepath.Join(root, ConfigDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, ConfigFile), []byte("source_repo: parent-repo\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SourceRepo != "parent-repo" {
		t.Errorf("expected config from parent, got %q", cfg.SourceRepo)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	configDir := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, ConfigFile), []byte("{invalid"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected invalid YAML to fail")
	}
}

func TestValidateReportsAllMissing(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	for _, want := range []string{TokenEnv, SourceRepoEnv, PackageLocationEnv} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got: %v", want, err)
		}
	}
}

func TestValidateComplete(t *testing.T) {
	cfg := &Config{
		Token:           "tok",
		SourceRepo:      "formio.js",
		PackageLocation: "libs/formio.js",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestFullNames(t *testing.T) {
	cfg := &Config{
		SourceOwner:   "formio",
		SourceRepo:    "formio.js",
		MonorepoOwner: "formio",
		MonorepoRepo:  "monorepo",
	}
	if got := cfg.SourceFullName(); got != "formio/formio.js" {
		t.Errorf("unexpected source full name %q", got)
	}
	if got := cfg.MonorepoFullName(); got != "formio/monorepo" {
		t.Errorf("unexpected monorepo full name %q", got)
	}
}
