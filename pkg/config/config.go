// Package config resolves the configuration for a sync run.
// Values come from environment variables first, then an optional
// .monosync/config.yaml project file, then built-in defaults.
// Validation runs before any network or filesystem side effect.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name for project configuration.
	ConfigDir = ".monosync"
	// ConfigFile is the name of the configuration file.
	ConfigFile = "config.yaml"
	// ConfigPath is the config file path relative to the project root.
	ConfigPath = ConfigDir + "/" + ConfigFile
)

// Environment variable names.
const (
	TokenEnv           = "GITHUB_TOKEN"
	SourceRepoEnv      = "MONOSYNC_SOURCE_REPO"
	SourceOwnerEnv     = "MONOSYNC_SOURCE_OWNER"
	PackageLocationEnv = "MONOSYNC_PACKAGE_LOCATION"
	MonorepoOwnerEnv   = "MONOSYNC_MONOREPO_OWNER"
	MonorepoRepoEnv    = "MONOSYNC_MONOREPO_REPO"
	MonorepoBranchEnv  = "MONOSYNC_MONOREPO_BRANCH"
	SourceRootEnv      = "MONOSYNC_SOURCE_ROOT"
	ScratchDirEnv      = "MONOSYNC_SCRATCH_DIR"
	APIBaseURLEnv      = "MONOSYNC_API_URL"
	PRNumberEnv        = "MONOSYNC_PR"
	LogLevelEnv        = "MONOSYNC_LOG_LEVEL"
	LogFileEnv         = "MONOSYNC_LOG_FILE"
)

// Defaults applied when neither the environment nor the project file
// provides a value.
const (
	DefaultSourceOwner    = "formio"
	DefaultMonorepoRepo   = "monorepo"
	DefaultMonorepoBranch = "master"
)

// Config holds the resolved configuration for one sync run.
type Config struct {
	// Token authenticates against the hosting API. Required.
	Token string `yaml:"-"`

	// SourceOwner is the owner/organization of the source repository.
	SourceOwner string `yaml:"source_owner,omitempty"`

	// SourceRepo is the source repository name (without owner). Required.
	SourceRepo string `yaml:"source_repo,omitempty"`

	// PackageLocation is the subdirectory of the monorepo that mirrors
	// the source repository. Required.
	PackageLocation string `yaml:"package_location,omitempty"`

	// MonorepoOwner is the owner of the target monorepo.
	MonorepoOwner string `yaml:"monorepo_owner,omitempty"`

	// MonorepoRepo is the target monorepo name.
	MonorepoRepo string `yaml:"monorepo_repo,omitempty"`

	// MonorepoBranch is the integration branch sync PRs target.
	MonorepoBranch string `yaml:"monorepo_branch,omitempty"`

	// SourceRoot is the local checkout of the source repository that
	// replay reads file contents from. Defaults to the working directory:
	// the tool is normally run from inside the source repository.
	SourceRoot string `yaml:"source_root,omitempty"`

	// ScratchDir is the root under which the monorepo is staged.
	ScratchDir string `yaml:"scratch_dir,omitempty"`

	// APIBaseURL overrides the hosting API base URL (enterprise hosts).
	APIBaseURL string `yaml:"api_url,omitempty"`

	// LogLevel is the logger level (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFile, when set, additionally writes rotated logs to this path.
	LogFile string `yaml:"-"`
}

// Load resolves configuration starting from dir. It searches dir and its
// parents for .monosync/config.yaml, overlays environment variables on
// top of the file values, and fills remaining defaults.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	path, err := findConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.Token = os.Getenv(TokenEnv)
	cfg.SourceOwner = resolve(os.Getenv(SourceOwnerEnv), cfg.SourceOwner, DefaultSourceOwner)
	cfg.SourceRepo = resolve(os.Getenv(SourceRepoEnv), cfg.SourceRepo, "")
	cfg.PackageLocation = resolve(os.Getenv(PackageLocationEnv), cfg.PackageLocation, "")
	cfg.MonorepoOwner = resolve(os.Getenv(MonorepoOwnerEnv), cfg.MonorepoOwner, cfg.SourceOwner)
	cfg.MonorepoRepo = resolve(os.Getenv(MonorepoRepoEnv), cfg.MonorepoRepo, DefaultMonorepoRepo)
	cfg.MonorepoBranch = resolve(os.Getenv(MonorepoBranchEnv), cfg.MonorepoBranch, DefaultMonorepoBranch)
	cfg.SourceRoot = resolve(os.Getenv(SourceRootEnv), cfg.SourceRoot, ".")
	cfg.ScratchDir = resolve(os.Getenv(ScratchDirEnv), cfg.ScratchDir, filepath.Join(os.TempDir(), "monorepo-sync"))
	cfg.APIBaseURL = resolve(os.Getenv(APIBaseURLEnv), cfg.APIBaseURL, "")
	cfg.LogLevel = resolve(os.Getenv(LogLevelEnv), cfg.LogLevel, "info")
	cfg.LogFile = os.Getenv(LogFileEnv)

	return cfg, nil
}

// LoadFromCurrentDir resolves configuration from the working directory.
func LoadFromCurrentDir() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Load(dir)
}

// Validate checks that every required value is present. It reports all
// missing values at once so the operator can fix the environment in one go.
func (c *Config) Validate() error {
	var missing []string
	if c.Token == "" {
		missing = append(missing, TokenEnv)
	}
	if c.SourceRepo == "" {
		missing = append(missing, SourceRepoEnv)
	}
	if c.PackageLocation == "" {
		missing = append(missing, PackageLocationEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SourceFullName returns "owner/repo" for the source repository.
func (c *Config) SourceFullName() string {
	return c.SourceOwner + "/" + c.SourceRepo
}

// MonorepoFullName returns "owner/repo" for the target monorepo.
func (c *Config) MonorepoFullName() string {
	return c.MonorepoOwner + "/" + c.MonorepoRepo
}

// resolve applies precedence: environment > config file > default.
func resolve(envValue, fileValue, defaultValue string) string {
	if envValue != "" {
		return envValue
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// findConfigPath searches dir and its parents for .monosync/config.yaml.
// It returns the full path, or empty string if not found.
func findConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		path := filepath.Join(absDir, ConfigPath)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return "", nil
		}
		absDir = parent
	}
}
